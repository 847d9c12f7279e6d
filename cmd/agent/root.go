package main

import (
	"deliveroo-agent/internal/config"
	"deliveroo-agent/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Autonomous delivery agent",
	Long: `Delivery agent for a grid world: finds items, carries them to delivery
tiles and optionally cooperates with exactly one partner.

  sim    - run agents against the local simulator
  relay  - run the websocket relay for partner messages
  version`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./agent.yaml)")
	rootCmd.PersistentFlags().String("id", "", "agent id")
	rootCmd.PersistentFlags().Bool("cooperative", false, "cooperate with a partner")
	rootCmd.PersistentFlags().Duration("movement-duration", 0, "server movement duration")

	_ = viper.BindPFlag("id", rootCmd.PersistentFlags().Lookup("id"))
	_ = viper.BindPFlag("cooperative", rootCmd.PersistentFlags().Lookup("cooperative"))
	_ = viper.BindPFlag("movement_duration", rootCmd.PersistentFlags().Lookup("movement-duration"))
}

// initConfig читает файл конфигурации и переменные окружения AGENT_*
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("agent")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Log.WithField("file", viper.ConfigFileUsed()).Info("config loaded")
	}
}
