// Package scheduler runs the timed jobs: the morning and evening shift
// reports pushed to the report chats, and the hourly purge of expired
// update keys.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/scooter-intake/internal/config"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/shift"
	"github.com/tbourn/scooter-intake/internal/sysutil"
)

// jobTimeout bounds one report build plus its deliveries.
const jobTimeout = 5 * time.Minute

// Reporter builds a timed shift report.
type Reporter interface {
	Scheduled(ctx context.Context, kind shift.Kind) (services.ScheduledReport, error)
}

// Delivery sends report output to a chat.
type Delivery interface {
	Text(ctx context.Context, chatID int64, replyTo int, text string) error
	Document(ctx context.Context, chatID int64, doc services.Document) error
}

// Purger drops expired processed-update keys.
type Purger interface {
	PurgeProcessed(ctx context.Context) (int64, error)
}

// Scheduler owns a gocron scheduler in the civil timezone.
type Scheduler struct {
	cron    *gocron.Scheduler
	ctx     context.Context
	reports Reporter
	out     Delivery
	purge   Purger
	chats   []int64
}

// New registers the jobs. The report jobs are skipped when cfg is disabled
// or there is no report chat; the purge job always runs.
func New(cfg config.ScheduleConfig, loc *time.Location, chats []int64, rep Reporter, out Delivery, purge Purger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    gocron.NewScheduler(loc),
		ctx:     context.Background(),
		reports: rep,
		out:     out,
		purge:   purge,
		chats:   chats,
	}
	s.cron.SingletonModeAll()

	switch {
	case !cfg.Enabled:
		log.Info().Msg("scheduled reports disabled")
	case len(chats) == 0:
		log.Warn().Msg("scheduled reports enabled but REPORT_CHAT_IDS is empty")
	case rep == nil || out == nil:
		return nil, errors.New("scheduler: reports and delivery are required")
	default:
		for kind, at := range map[shift.Kind]string{shift.Morning: cfg.MorningAt, shift.Evening: cfg.EveningAt} {
			if _, err := s.cron.Every(1).Day().At(at).Tag(string(kind)).Do(func() {
				s.runReport(kind)
			}); err != nil {
				return nil, fmt.Errorf("schedule %s report at %q: %w", kind, at, err)
			}
		}
	}

	if purge != nil {
		if _, err := s.cron.Every(1).Hour().Tag("purge").Do(s.runPurge); err != nil {
			return nil, fmt.Errorf("schedule purge: %w", err)
		}
	}
	return s, nil
}

// Run starts the jobs and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.StartAsync()
	for _, j := range s.cron.Jobs() {
		log.Info().Strs("tags", j.Tags()).Time("next_run", j.NextRun()).Msg("job scheduled")
	}
	<-ctx.Done()
	s.cron.Stop()
	log.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) runReport(kind shift.Kind) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	if err := s.SendReport(ctx, kind); err != nil {
		log.Error().Str("shift", string(kind)).Str("err", sysutil.RedactErr(err)).Msg("scheduled report failed")
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()
	n, err := s.purge.PurgeProcessed(ctx)
	if err != nil {
		log.Error().Err(err).Msg("purge processed updates failed")
		return
	}
	log.Debug().Int64("purged", n).Msg("expired update keys purged")
}

// SendReport builds the kind report and delivers it to every report chat.
// A failed delivery is logged and the remaining chats still get the report;
// the returned error covers the build only.
func (s *Scheduler) SendReport(ctx context.Context, kind shift.Kind) error {
	rep, err := s.reports.Scheduled(ctx, kind)
	if err != nil {
		return err
	}
	logger := log.With().Str("shift", string(kind)).Time("from", rep.Window.Start).Time("to", rep.Window.End).Logger()

	delivered := 0
	for _, chatID := range s.chats {
		if rep.Document != nil {
			err = s.out.Document(ctx, chatID, *rep.Document)
		} else {
			err = s.out.Text(ctx, chatID, 0, rep.Text)
		}
		if err != nil {
			logger.Error().Int64("chat_id", chatID).Str("err", sysutil.RedactErr(err)).Msg("report delivery failed")
			continue
		}
		delivered++
	}
	records := 0
	if rep.Document != nil {
		records = rep.Document.Records
	}
	logger.Info().Int("records", records).Int("delivered", delivered).Int("chats", len(s.chats)).Msg("scheduled report sent")
	return nil
}
