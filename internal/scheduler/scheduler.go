package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/config"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/service/reporting"
)

// Notifier delivers the digest text to the farm group. It is optional.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler runs the daily flock age digest.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	notifier     Notifier
	cfg          config.Config
	location     *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance. The cron schedule is evaluated in the
// configured time zone so "0 6 * * *" means 06:00 at the farm.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Digest.Location()
	if err != nil {
		return nil, fmt.Errorf("load digest timezone: %w", err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		reportingSvc: reportingSvc,
		notifier:     notifier,
		cfg:          cfg,
		location:     loc,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Start registers the digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Digest.CronSchedule), zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.cfg.Digest.CronSchedule, s.runDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDigest(ctx); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
	}
}

// RunDigest builds today's digest and sends it to every configured sink. A failing
// sink is logged and does not stop the others; only a failure to build the digest
// is returned.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	day := agecalc.Today(s.now(), s.location)
	s.logger.Info("generating daily digest", zap.String("date", day.Format(agecalc.DateLayout)))

	digest, err := s.reportingSvc.BuildDigest(day)
	if err != nil {
		return err
	}

	if err := s.reportingSvc.ArchiveDigest(ctx, digest); err != nil {
		s.logger.Error("failed to archive digest", zap.Error(err))
	}

	if err := s.reportingSvc.ExportDigest(ctx, digest); err != nil {
		s.logger.Error("failed to export digest", zap.Error(err))
	}

	if s.notifier == nil || s.cfg.WhatsApp.GroupID == "" {
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.GroupID,
		Message: s.reportingSvc.FormatDigest(digest),
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent successfully")
	}
	return nil
}
