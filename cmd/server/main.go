package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"echo-diary/internal/config"
	"echo-diary/internal/handler"
	applog "echo-diary/internal/logger"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	applog.Init(cfg.Log)
	ctx := context.Background()

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "driver", cfg.Database.ResolveDriver(), "err", err)
		os.Exit(1)
	}
	if err := model.AutoMigrate(db); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	authSvc := service.NewAuthService(db, cfg.Auth)
	if err := authSvc.EnsureAdmin(ctx); err != nil {
		slog.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	store, err := service.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		slog.Warn("object store init failed, images disabled", "err", err)
		store = nil
	}
	if store == nil {
		slog.Info("object store not configured")
	}

	aiSvc := service.NewAIService(cfg.LLM)
	diarySvc := service.NewDiaryService(db, aiSvc, store, cfg.LLM.Strict)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(authSvc, diarySvc)

	slog.Info("server starting", "addr", cfg.Addr(), "llm_disabled", cfg.LLM.Disabled, "llm_configured", cfg.LLM.APIKey != "")
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
