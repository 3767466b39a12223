package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Blu3B0y/finsight/pkg/app"
	"github.com/Blu3B0y/finsight/pkg/msglog"

	"github.com/joho/godotenv"
	"github.com/vmkteam/embedlog"
)

const appName = "finsight"

func main() {
	// .env is for local development, ignore when absent
	_ = godotenv.Load()

	cfg := loadConfig()
	sl := embedlog.NewLogger(cfg.Server.IsDevel, false)
	ctx := context.Background()

	messages, err := msglog.Open(cfg.Database.Path)
	if err != nil {
		sl.Error(ctx, "failed to open message log", "path", cfg.Database.Path, "err", err)
		os.Exit(1)
	}
	defer messages.Close()

	a, err := app.New(appName, sl, cfg, messages)
	if err != nil {
		sl.Error(ctx, "failed to create app", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		sl.Print(ctx, "shutdown signal received", "signal", sig.String())
		if err := a.Shutdown(30 * time.Second); err != nil {
			sl.Error(ctx, "shutdown error", "err", err)
		}
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		sl.Error(ctx, "app stopped with error", "err", err)
	}
	sl.Print(ctx, "app stopped")
}

func loadConfig() app.Config {
	var cfg app.Config

	cfg.Server.Host = envString("SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = envInt("SERVER_PORT", 8080)
	cfg.Server.IsDevel = envBool("SERVER_IS_DEVEL", false)

	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.WebhookSecret = os.Getenv("TELEGRAM_WEBHOOK_SECRET")
	cfg.Telegram.Debug = envBool("TELEGRAM_DEBUG", false)

	cfg.Store.URL = os.Getenv("STORE_URL")
	cfg.Store.ServiceKey = os.Getenv("STORE_SERVICE_KEY")
	cfg.Store.Timeout = time.Duration(envInt("STORE_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.Database.Path = envString("DATABASE_PATH", "data/messages.db")
	cfg.Dashboard.URL = os.Getenv("DASHBOARD_URL")

	cfg.Worker.Count = envInt("WORKER_COUNT", 4)
	cfg.Worker.QueueSize = envInt("WORKER_QUEUE_SIZE", 256)

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s=%q, using %d\n", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s=%q, using %t\n", key, v, def)
		return def
	}
	return b
}
