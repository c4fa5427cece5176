package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func NewLogger(config *viper.Viper) *logrus.Logger {
	log := logrus.New()

	level := logrus.InfoLevel
	if config != nil {
		if parsed, err := logrus.ParseLevel(config.GetString("log.level")); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	if config != nil && config.GetString("log.format") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return log
}
