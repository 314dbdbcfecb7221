// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceTask is one periodic housekeeping job.
type MaintenanceTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// MaintenanceService runs housekeeping tasks on a fixed interval. A failing
// task is logged and does not stop the others or the service.
type MaintenanceService struct {
	tasks    []MaintenanceTask
	interval time.Duration
	logger   zerolog.Logger
}

// NewMaintenanceService creates a maintenance service. A non-positive
// interval defaults to five minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(interval time.Duration, logger zerolog.Logger, tasks ...MaintenanceTask) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{
		tasks:    tasks,
		interval: interval,
		logger:   logger.With().Str("service", "maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce runs every task once and returns the number that failed.
func (m *MaintenanceService) RunOnce(ctx context.Context) int {
	failed := 0
	for _, task := range m.tasks {
		if ctx.Err() != nil {
			return failed
		}
		start := time.Now()
		if err := task.Run(ctx); err != nil {
			failed++
			m.logger.Warn().Err(err).Str("task", task.Name).Msg("maintenance task failed")
			continue
		}
		m.logger.Debug().Str("task", task.Name).Dur("duration", time.Since(start)).Msg("maintenance task complete")
	}
	return failed
}

func (m *MaintenanceService) String() string {
	return "maintenance-service"
}
