// Package config собирает настройки агента из viper (флаги, файл, переменные AGENT_*).
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix - префикс переменных окружения
const EnvPrefix = "AGENT"

type Config struct {
	AgentID string
	Name    string

	// Параметры сервера
	MovementDuration time.Duration
	DecayInterval    time.Duration
	ObservationRange int

	// Оценка полезности
	DecayPerStep  float64
	ContestMargin float64

	// Планы
	BanTicks            int
	MaxPlanFailures     int
	DetourMargin        float64
	DetourAbandonMargin float64
	DetourMaxSteps      int
	HandoverCapacity    int
	StuckTicks          int
	PlannerTimeout      time.Duration

	// Кооперация
	Cooperative         bool
	CollisionTimeout    time.Duration
	CollisionMaxRetries int
	RelayURL            string
}

// Default - настройки без viper
func Default() Config {
	movement := 500 * time.Millisecond
	return Config{
		MovementDuration:    movement,
		DecayInterval:       time.Second,
		ObservationRange:    5,
		DecayPerStep:        0.5,
		ContestMargin:       0.25,
		BanTicks:            20,
		MaxPlanFailures:     5,
		DetourMargin:        2.0,
		DetourAbandonMargin: 4.0,
		DetourMaxSteps:      6,
		HandoverCapacity:    4,
		StuckTicks:          10,
		PlannerTimeout:      2 * time.Second,
		CollisionTimeout:    3 * movement,
		CollisionMaxRetries: 3,
	}
}

// Load читает конфигурацию из viper и проверяет ее
func Load() (*Config, error) {
	d := Default()
	movement := getDurationOrDefault("movement_duration", d.MovementDuration)

	cfg := &Config{
		AgentID: viper.GetString("id"),
		Name:    viper.GetString("name"),

		MovementDuration: movement,
		DecayInterval:    getDurationOrDefault("decay_interval", d.DecayInterval),
		ObservationRange: getIntOrDefault("observation_range", d.ObservationRange),

		DecayPerStep:  getFloatOrDefault("decay_per_step", d.DecayPerStep),
		ContestMargin: getFloatOrDefault("contest_margin", d.ContestMargin),

		BanTicks:            getIntOrDefault("ban_ticks", d.BanTicks),
		MaxPlanFailures:     getIntOrDefault("max_plan_failures", d.MaxPlanFailures),
		DetourMargin:        getFloatOrDefault("detour.margin", d.DetourMargin),
		DetourAbandonMargin: getFloatOrDefault("detour.abandon_margin", d.DetourAbandonMargin),
		DetourMaxSteps:      getIntOrDefault("detour.max_steps", d.DetourMaxSteps),
		HandoverCapacity:    getIntOrDefault("handover.capacity", d.HandoverCapacity),
		StuckTicks:          getIntOrDefault("handover.stuck_ticks", d.StuckTicks),
		PlannerTimeout:      getDurationOrDefault("planner_timeout", d.PlannerTimeout),

		Cooperative:         viper.GetBool("cooperative"),
		CollisionTimeout:    getDurationOrDefault("collision.timeout", 3*movement),
		CollisionMaxRetries: getIntOrDefault("collision.max_retries", d.CollisionMaxRetries),
		RelayURL:            viper.GetString("relay_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HandshakeInterval - период рукопожатия и обмена состоянием с партнером
func (c *Config) HandshakeInterval() time.Duration {
	return 2 * c.MovementDuration
}

var (
	ErrNonPositiveDuration = errors.New("duration must be positive")
	ErrNonPositiveValue    = errors.New("value must be positive")
)

// Validate отклоняет неположительные длительности и емкости
func (c *Config) Validate() error {
	durations := map[string]time.Duration{
		"movement_duration": c.MovementDuration,
		"collision.timeout": c.CollisionTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s: %w", key, ErrNonPositiveDuration)
		}
	}
	if c.DecayInterval < 0 || c.PlannerTimeout < 0 {
		return fmt.Errorf("decay_interval/planner_timeout: %w", ErrNonPositiveDuration)
	}

	counts := map[string]int{
		"observation_range":     c.ObservationRange,
		"ban_ticks":             c.BanTicks,
		"max_plan_failures":     c.MaxPlanFailures,
		"detour.max_steps":      c.DetourMaxSteps,
		"handover.capacity":     c.HandoverCapacity,
		"handover.stuck_ticks":  c.StuckTicks,
		"collision.max_retries": c.CollisionMaxRetries,
	}
	for key, v := range counts {
		if v <= 0 {
			return fmt.Errorf("%s: %w", key, ErrNonPositiveValue)
		}
	}
	if c.DecayPerStep < 0 {
		return fmt.Errorf("decay_per_step: %w", ErrNonPositiveValue)
	}
	return nil
}

func getIntOrDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getFloatOrDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultVal
}
