// Package reaper periodically deletes expired messages and finished sessions
// from the relay database.
//
// A session is finished when it is terminated or past its own expiry; its
// participants and messages go with it. Subscribers of a session that
// expired without being terminated are sent a terminated event, so clients
// learn about it the same way as about an explicit terminate.
package reaper

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"burna/internal/domain"
	"burna/internal/metrics"
	"burna/internal/models"
	"burna/internal/service"
)

// batchSize bounds the number of session ids per IN clause.
const batchSize = 500

// Result counts the rows removed by one pass.
type Result struct {
	Messages     int64
	Participants int64
	Sessions     int64
}

// Reaper deletes expired rows every interval.
type Reaper struct {
	db       *gorm.DB
	pub      service.Publisher
	clock    clock.Clock
	interval time.Duration
	log      zerolog.Logger
}

// New returns a reaper; a nil clock means the wall clock.
func New(db *gorm.DB, pub service.Publisher, interval time.Duration, clk clock.Clock, log zerolog.Logger) *Reaper {
	if clk == nil {
		clk = clock.New()
	}
	return &Reaper{
		db:       db,
		pub:      pub,
		clock:    clk,
		interval: interval,
		log:      log.With().Str("component", "reaper").Logger(),
	}
}

// Run reaps once immediately and then every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()
	r.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reaper) pass(ctx context.Context) {
	res, err := r.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Msg("reap")
		}
		return
	}
	if res.Messages+res.Participants+res.Sessions > 0 {
		r.log.Info().
			Int64("messages", res.Messages).
			Int64("participants", res.Participants).
			Int64("sessions", res.Sessions).
			Msg("reaped")
	}
}

// RunOnce performs a single pass.
func (r *Reaper) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	now := r.clock.Now().UTC()
	tx := r.db.WithContext(ctx)

	var finished []models.Session
	if err := tx.Select("id", "terminated").
		Where("terminated = ? OR expires_at <= ?", true, now).
		Find(&finished).Error; err != nil {
		return res, err
	}

	for start := 0; start < len(finished); start += batchSize {
		batch := finished[start:min(start+batchSize, len(finished))]
		ids := make([]string, len(batch))
		for i, s := range batch {
			ids[i] = s.ID
		}
		err := tx.Transaction(func(tx *gorm.DB) error {
			del := tx.Where("session_id IN ?", ids).Delete(&models.Message{})
			if del.Error != nil {
				return del.Error
			}
			res.Messages += del.RowsAffected
			del = tx.Where("session_id IN ?", ids).Delete(&models.Participant{})
			if del.Error != nil {
				return del.Error
			}
			res.Participants += del.RowsAffected
			del = tx.Where("id IN ?", ids).Delete(&models.Session{})
			if del.Error != nil {
				return del.Error
			}
			res.Sessions += del.RowsAffected
			return nil
		})
		if err != nil {
			return res, err
		}
		for _, s := range batch {
			if !s.Terminated {
				r.pub.Publish(domain.Event{Type: domain.EventTerminated, SessionID: domain.SessionID(s.ID)})
			}
		}
	}

	del := tx.Where("expires_at <= ?", now).Delete(&models.Message{})
	if del.Error != nil {
		return res, del.Error
	}
	res.Messages += del.RowsAffected

	metrics.ReapedTotal.WithLabelValues("messages").Add(float64(res.Messages))
	metrics.ReapedTotal.WithLabelValues("participants").Add(float64(res.Participants))
	metrics.ReapedTotal.WithLabelValues("sessions").Add(float64(res.Sessions))
	return res, nil
}
