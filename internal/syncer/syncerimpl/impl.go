package syncerimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/story-sync-telegram-bot/internal/collection"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/archive"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/subscription"
	"github.com/orgball2608/story-sync-telegram-bot/internal/syncer"
	"github.com/orgball2608/story-sync-telegram-bot/internal/telegram"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Stories          collection.Controller
	Telegram         telegram.Client
	ArchiveRepo      archive.Repository
	SubscriptionRepo subscription.Repository
	Logger           logger.Logger
	Config           *config.Config
}

type SyncerImpl struct {
	Stories          collection.Controller
	Telegram         telegram.Client
	ArchiveRepo      archive.Repository
	SubscriptionRepo subscription.Repository
	Logger           logger.Logger
	Config           *config.Config
}

func New(opts Opts) *SyncerImpl {
	return &SyncerImpl{
		Stories:          opts.Stories,
		Telegram:         opts.Telegram,
		ArchiveRepo:      opts.ArchiveRepo,
		SubscriptionRepo: opts.SubscriptionRepo,
		Logger:           opts.Logger.WithComponent("Syncer"),
		Config:           opts.Config,
	}
}

var _ syncer.Client = (*SyncerImpl)(nil)

// ScheduleSync runs the feed sync on a randomized interval so the polling
// pattern does not look like a fixed-rate client.
func (s *SyncerImpl) ScheduleSync(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sync scheduler: %w", err)
	}

	minInterval := time.Duration(s.Config.Sync.Minutes) * time.Minute
	maxInterval := minInterval + 5*time.Minute

	_, err = scheduler.NewJob(
		gocron.DurationRandomJob(minInterval, maxInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, stopping story sync schedule")
				return
			}

			taskCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()

			if err := s.SyncOnce(taskCtx); err != nil {
				s.Logger.Error("Scheduled sync failed", "error", err)
				s.Telegram.SendMessageToUser("Story sync error: " + err.Error())
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule story sync: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping story sync scheduler")
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down sync scheduler", "error", err)
		}
	}()

	return nil
}

// ScheduleArchiveCleanup sets up a daily job to drop old archive rows.
func (s *SyncerImpl) ScheduleArchiveCleanup(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}

	// Runs at 3:00 AM every day.
	_, err = scheduler.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0)),
		),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, stopping archive cleanup job")
				return
			}

			s.Logger.Info("Starting scheduled archive cleanup job")

			cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			const retention = 30 * 24 * time.Hour

			rowsDeleted, err := s.ArchiveRepo.CleanupOldRecords(cleanupCtx, retention)
			if err != nil {
				s.Logger.Error("Failed to clean up old archive records", "error", err)
				return
			}

			s.Logger.Info("Archive cleanup completed", "rows_deleted", rowsDeleted)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule archive cleanup: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping archive cleanup scheduler")
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down cleanup scheduler", "error", err)
		}
	}()

	return nil
}
