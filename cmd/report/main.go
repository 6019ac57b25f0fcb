// Package main печатает отчет дашборда одного участника в терминал
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/internal/app"
	"energy-dashboard/internal/catalog"
	"energy-dashboard/internal/config"
	"energy-dashboard/internal/dashboard"
	"energy-dashboard/internal/logger"
	"energy-dashboard/internal/report"
)

func main() {
	participant := flag.String("participant", "", "participant id (defaults to BASE_PARTICIPANT)")
	date := flag.String("date", "", "date in YYYY-MM-DD (defaults to today, UTC)")
	view := flag.String("view", "day", "day or week")
	width := flag.Int("width", 72, "chart width")
	height := flag.Int("height", 10, "chart height")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := run(*participant, *date, *view, *width, *height, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}

func run(participant, date, view string, width, height int, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger("warn", "console", "energy-report")
	if err != nil {
		return err
	}
	defer log.Sync()

	if participant == "" {
		participant = cfg.BaseParticipant
	}
	q, err := dashboard.ParseQuery(participant, date, view, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	src, err := app.NewDataSource(cfg, nil, log)
	if err != nil {
		return err
	}
	service := app.NewService(cfg, src, catalog.NewProvider(cfg.CategoryFile, log), log)

	snap, err := service.Build(ctx, q)
	if err != nil {
		log.Debug("Build failed", zap.Error(err))
		return err
	}
	return report.Render(os.Stdout, snap, width, height)
}
