package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/config"
	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/pkg/logger"
)

// Reaper sweeps candidates stuck in interviewing. A browser that
// crashed mid-session leaves the candidate interviewing forever; the
// sweep completes them in the error score state once they are older
// than the configured threshold.
type Reaper struct {
	db   *gorm.DB
	cfg  *config.InterviewConfig
	cron *cron.Cron
}

func NewReaper(db *gorm.DB, cfg *config.InterviewConfig) *Reaper {
	return &Reaper{db: db, cfg: cfg, cron: cron.New()}
}

// Start schedules the sweep. A zero StaleAfter disables the reaper.
func (r *Reaper) Start() error {
	if r.cfg.StaleAfter <= 0 {
		logger.Info().Msg("stale-interview reaper disabled")
		return nil
	}
	if _, err := r.cron.AddFunc(r.cfg.ReaperSchedule, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	logger.Info().Str("schedule", r.cfg.ReaperSchedule).
		Dur("stale_after", r.cfg.StaleAfter).
		Msg("stale-interview reaper started")
	return nil
}

func (r *Reaper) Stop() {
	r.cron.Stop()
}

// Sweep completes every candidate that has been interviewing longer
// than the stale threshold without a score outcome.
func (r *Reaper) Sweep() {
	cutoff := time.Now().Add(-r.cfg.StaleAfter)

	result := r.db.Model(&models.Candidate{}).
		Where("status = ? AND score_status = ? AND updated_at < ?",
			models.StatusInterviewing, models.ScoreStatusMissing, cutoff).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"score_status": models.ScoreStatusError,
		})
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("stale-interview sweep failed")
		return
	}
	if result.RowsAffected > 0 {
		logger.Warn().Int64("count", result.RowsAffected).Msg("auto-completed stale interviews")
	}
}
