package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"inventory-analytics/config"
)

func backgroundProcesses(ctx context.Context) {
	// Drop idle workspaces
	go startWorkspaceCleanup(ctx, 1*time.Minute)
	// Drop idle rate limiter entries and expired bans
	go startLimiterCleanup(ctx, 1*time.Minute)
	// Exit if the heap grows past the configured limit
	go startMemoryMonitor(ctx, config.GetMemoryLimit(), 5*time.Second)
	<-ctx.Done()
}

// runEvery calls fn every interval until ctx is done.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func startWorkspaceCleanup(ctx context.Context, interval time.Duration) {
	log := config.GetLogger()
	runEvery(ctx, interval, func() {
		removed, err := config.CleanupWorkspaces(time.Now())
		if err != nil {
			log.Warn("Workspace cleanup failed: " + err.Error())
			return
		}
		store, err := config.GetWorkspaces()
		if err != nil {
			return
		}
		if removed > 0 {
			log.Info("(Background) Workspace cleanup done (Removed: "+strconv.FormatInt(removed, 10)+")", slog.Int64("active", store.Count()))
		}
	})
}

func startLimiterCleanup(ctx context.Context, interval time.Duration) {
	log := config.GetLogger()
	runEvery(ctx, interval, func() {
		limiters, err := config.CleanupOldLimiterEntries()
		if err != nil {
			log.Warn("Rate limiter cleanup failed: " + err.Error())
			return
		}
		bans, err := config.CleanupBlockedIPs()
		if err != nil {
			log.Warn("Ban list cleanup failed: " + err.Error())
			return
		}
		if limiters > 0 || bans > 0 {
			log.Debug("(Background) Limiter cleanup done", slog.Int64("limiters", limiters), slog.Int64("bans", bans))
		}
	})
}

func startMemoryMonitor(ctx context.Context, maxBytes uint64, interval time.Duration) {
	log := config.GetLogger()
	var m runtime.MemStats
	runEvery(ctx, interval, func() {
		runtime.ReadMemStats(&m)
		if m.Alloc > maxBytes {
			log.Error(fmt.Sprintf("Memory usage exceeded: %d bytes > %d bytes", m.Alloc, maxBytes))
			_ = config.CloseLogFile()
			os.Exit(1)
		}
	})
}
