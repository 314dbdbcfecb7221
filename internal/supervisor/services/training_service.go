// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
)

// Trainer is the part of the recommendation engine the training service
// drives. *recommend.Engine satisfies it.
type Trainer interface {
	Train(ctx context.Context) (recommend.TrainingSummary, error)
	Info() recommend.ModelInfo
}

// TrainingServiceConfig holds configuration for the training service.
type TrainingServiceConfig struct {
	// TrainOnStartup trains once when the service first starts, unless a
	// model is already loaded.
	TrainOnStartup bool

	// RetrainInterval is how often to retrain. Zero disables scheduled
	// retraining.
	RetrainInterval time.Duration
}

// TrainingService owns the training lifecycle: the optional startup run,
// scheduled retraining, and on-demand runs from the API.
type TrainingService struct {
	trainer Trainer
	config  TrainingServiceConfig
	logger  zerolog.Logger

	// startupDone keeps a supervisor restart from retraining immediately.
	startupDone atomic.Bool
}

// NewTrainingService creates a new training service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(trainer Trainer, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
	}
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("retrain_interval", s.config.RetrainInterval).
		Msg("training service starting")

	if s.startupDone.CompareAndSwap(false, true) && s.config.TrainOnStartup {
		if s.trainer.Info().Trained {
			s.logger.Info().Msg("persisted model loaded, skipping startup training")
		} else if _, err := s.TrainNow(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("startup training failed")
		}
	}

	if s.config.RetrainInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.RetrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			if _, err := s.TrainNow(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// TrainNow runs one training cycle and records its metrics. A run rejected
// because another is in progress returns recommend.ErrTrainingInProgress.
func (s *TrainingService) TrainNow(ctx context.Context) (recommend.TrainingSummary, error) {
	start := time.Now()
	summary, err := s.trainer.Train(ctx)
	duration := time.Since(start)

	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		metrics.RecordTraining("rejected", 0)
		return summary, err
	case err != nil:
		metrics.RecordTraining("error", duration)
		return summary, err
	}

	metrics.RecordTraining("success", duration)
	info := s.trainer.Info()
	metrics.SetModel(info.Version, summary.MatrixUsers, summary.MatrixItems)

	s.logger.Info().
		Int("version", info.Version).
		Str("model_id", info.ModelID).
		Int("users", summary.MatrixUsers).
		Int("items", summary.MatrixItems).
		Dur("duration", duration).
		Msg("model training complete")

	return summary, nil
}

// Info returns the trainer's current model description.
func (s *TrainingService) Info() recommend.ModelInfo {
	return s.trainer.Info()
}

func (s *TrainingService) String() string {
	return "training-service"
}
