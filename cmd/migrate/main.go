package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/db"
	"github.com/waw-schedule/backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate <up|down|status|version|redo|reset|up-to|down-to> [version]")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()
	logger.Init(cfg.Env, logger.Options{Level: cfg.Log.Level})
	defer logger.Sync()

	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		logger.Fatal("mysql connect problem", zap.Error(err))
	}
	defer func() {
		_ = dbMySQL.Close()
	}()

	if err := db.RunMigrations(context.Background(), dbMySQL.DB, args[0], args[1:]...); err != nil {
		logger.Error("migration failed", zap.String("command", args[0]), zap.Error(err))
		return
	}

	logger.Info("migration done", zap.String("command", args[0]))
}
