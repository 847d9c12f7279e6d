// Команда agent - запуск агента доставки: локальная симуляция, релей сообщений, версия.
package main

import (
	"deliveroo-agent/pkg/logger"
	"fmt"
	"os"
)

func init() {
	logger.Init()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
