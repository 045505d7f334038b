package main

import (
	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/logger"
	"mentoring-svc/src/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	logrus.Infof("Application %s is starting....", cfg.App.Name)

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatal("Error starting server")
	}
}
