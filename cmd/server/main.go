package main

import (
	"log"
	"os"

	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	"github.com/panuavakul/v-video-compressor-sub001/internal/server"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/db/sqlite"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
)

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yml"
	}
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	db, err := sqlite.NewSqliteDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not open job history db: %s", err)
	}
	defer db.Close()
	appLogger.Infof("job history db ready")

	s := server.NewServer(cfg, db, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("error running server: %v", err)
	}
}
