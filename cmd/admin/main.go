package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/repository"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/config"
	"github.com/fundalink/fundalink-api/pkg/database"
	"github.com/fundalink/fundalink-api/pkg/logger"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errAndDie(fmt.Errorf("load config: %w", err))
	}

	logr, err := logger.New(cfg)
	if err != nil {
		errAndDie(fmt.Errorf("init logger: %w", err))
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		errAndDie(fmt.Errorf("connect postgres: %w", err))
	}
	defer db.Close()

	cli := &commandLine{
		users: service.NewUserService(repository.NewUserRepository(db), validation.Default(), logr),
		migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, db)
		},
		logger: logr,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		logr.Error("admin command failed", zap.Error(err))
		errAndDie(err)
	}
}

func errAndDie(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
