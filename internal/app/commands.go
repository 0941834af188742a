// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package app

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func buildInfo() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}
}

func load(cfgFile string) (*Application, error) {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(cfg, buildInfo())
}

// Run loads configuration and runs the server until shutdown.
func Run(cfgFile string) error {
	a, err := load(cfgFile)
	if err != nil {
		return err
	}
	defer a.Logger.Sync() //nolint:errcheck

	return a.Run(context.Background())
}

// RunMigrations executes a migration action: "up", "down:N" or "status".
func RunMigrations(cfgFile, action string) error {
	a, err := load(cfgFile)
	if err != nil {
		return err
	}
	defer a.Logger.Sync() //nolint:errcheck

	ctx := context.Background()
	switch {
	case action == "up":
		return a.MigrateUp(ctx)

	case strings.HasPrefix(action, "down:"):
		steps, err := strconv.Atoi(strings.TrimPrefix(action, "down:"))
		if err != nil || steps < 1 {
			return fmt.Errorf("invalid step count %q", strings.TrimPrefix(action, "down:"))
		}
		return a.MigrateDown(ctx, steps)

	case action == "status":
		infos, err := a.MigrationStatus(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			state := "pending"
			if info.Applied {
				state = "applied"
			}
			fmt.Printf("%-40s %s\n", info.Version, state)
		}
		return nil

	default:
		return fmt.Errorf("unknown migration action %q", action)
	}
}

// PrintVersion writes build information to stdout.
func PrintVersion() {
	fmt.Printf("agendo %s (commit %s, built %s, %s)\n",
		Version, Commit, BuildTime, runtime.Version())
}
