package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
var Log = logrus.New()

// Init инициализирует глобальный логгер.
// Вызывается один раз при старте (main.go) и в TestMain пакетов.
func Init() {
	InitWithOutput(os.Stdout)
}

// InitWithOutput - то же, что Init, но с произвольным приемником логов.
func InitWithOutput(out io.Writer) {
	Log = logrus.New()

	// 1. Уровень из LOG_LEVEL, по умолчанию "info"
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер: "json" для сбора логов, иначе текст
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Log.SetOutput(out)
}

// For возвращает логгер компонента с привязанным агентом
func For(component, agentID string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"component": component,
		"agent":     agentID,
	})
}
