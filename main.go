package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OliverSchlueter/goutils/sloki"

	"github.com/tilda-center/backend/internal/config"
	"github.com/tilda-center/backend/internal/imap"
	"github.com/tilda-center/backend/internal/store"
	"github.com/tilda-center/backend/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	lokiURL := flag.String("loki", "", "Loki push URL; empty disables shipping")
	flag.Parse()

	lokiService := sloki.NewService(sloki.Configuration{
		URL:          *lokiURL,
		Service:      "tilda-backend",
		ConsoleLevel: slog.LevelDebug,
		LokiLevel:    slog.LevelInfo,
		EnableLoki:   *lokiURL != "",
	})
	slog.SetDefault(slog.New(lokiService))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	posts, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		slog.Error("opening post store", "error", err)
		os.Exit(1)
	}
	defer posts.Close()

	mail := imap.NewService(imap.Config{
		Host:           cfg.Mail.Server,
		MasterUser:     cfg.Mail.MasterUser,
		MasterPassword: cfg.Mail.MasterPassword,
		Timeout:        time.Duration(cfg.Mail.TimeoutSec) * time.Second,
	})

	srv := web.NewServer(web.Configuration{
		Posts:     posts,
		Mail:      mail,
		JWTSecret: cfg.Auth.JWTSecret,
		UploadDir: cfg.Media.UploadDir,
	})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
