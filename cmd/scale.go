package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/scale"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// ScaleWatch subscribes to one scale's weight stream and prints snapshots
// until interrupted.
//
// Weight frames can burst well past 10/s; prints are paced by a rate limiter
// so the terminal stays responsive. Pacing only skips redraws: every frame
// still lands in the handle's snapshot in arrival order, and the final print
// reflects the latest processed frame.
func (r *Runner) ScaleWatch(ctx context.Context, cmd *cli.Command) error {
	class, err := models.ParseScaleClass(cmd.String("class"))
	if err != nil {
		return err
	}

	baseURL := cmd.String("url")
	if baseURL == "" {
		baseURL = r.config.Stream.BaseURL
	}

	refresh := cmd.Float("refresh")
	if refresh <= 0 {
		refresh = 4
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := scale.Open(class, scale.Options{
		BaseURL:       baseURL,
		MaxAttempts:   r.config.Stream.MaxReconnectAttempts,
		BackoffBase:   time.Duration(r.config.Stream.BackoffBaseMs) * time.Millisecond,
		BackoffCap:    time.Duration(r.config.Stream.BackoffCapMs) * time.Millisecond,
		LatencyBudget: time.Duration(r.config.Stream.LatencyBudgetMs) * time.Millisecond,
		ReadTimeout:   time.Duration(r.config.Stream.ReadTimeoutSeconds) * time.Second,
		Logger:        r.logger,
	})
	defer handle.Close()

	r.logger.Info("watching scale", "class", class.String(), "url", baseURL)

	limiter := rate.NewLimiter(rate.Limit(refresh), 1)

	for {
		select {
		case <-ctx.Done():
			r.writePlainln("Stopped watching %s scale", class.String())
			return nil
		case <-handle.Updates():
			if !limiter.Allow() {
				continue
			}
			r.printSnapshot(handle.State())
		}
	}
}

func (r *Runner) printSnapshot(snap scale.Snapshot) {
	switch {
	case snap.Conn == models.StateFailed:
		r.writePlain("[%s] FAILED: %v (reconnect manually or check the bridge)\n", snap.Class, snap.Err)
	case snap.Pending:
		r.writePlain("[%s] %s...\n", snap.Class, snap.Conn)
	case !snap.Online:
		reason := "no status from hardware yet"
		if snap.Err != nil {
			reason = snap.Err.Error()
		}
		r.writePlain("[%s] scale offline: %s\n", snap.Class, reason)
	default:
		marker := " "
		if snap.Stable {
			marker = "•"
		}
		warn := ""
		if snap.LatencyWarning {
			warn = " (lagging)"
		}
		r.writePlain("[%s] %s %.3f KG%s\n", snap.Class, marker, snap.Weight, warn)
	}
}
