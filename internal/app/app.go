package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/orgball2608/story-sync-telegram-bot/internal/collection"
	"github.com/orgball2608/story-sync-telegram-bot/internal/collection/collectionimpl"
	"github.com/orgball2608/story-sync-telegram-bot/internal/command"
	"github.com/orgball2608/story-sync-telegram-bot/internal/command/commandimpl"
	_ "github.com/orgball2608/story-sync-telegram-bot/internal/migrations"
	"github.com/orgball2608/story-sync-telegram-bot/internal/pgx"
	repositories "github.com/orgball2608/story-sync-telegram-bot/internal/repositories/fx"
	"github.com/orgball2608/story-sync-telegram-bot/internal/session"
	"github.com/orgball2608/story-sync-telegram-bot/internal/session/sessionimpl"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi/storyapiimpl"
	"github.com/orgball2608/story-sync-telegram-bot/internal/syncer"
	"github.com/orgball2608/story-sync-telegram-bot/internal/syncer/syncerimpl"
	"github.com/orgball2608/story-sync-telegram-bot/internal/telegram"
	"github.com/orgball2608/story-sync-telegram-bot/internal/telegram/telegramimpl"
	"github.com/orgball2608/story-sync-telegram-bot/internal/tokenstore"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/retry"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	fx.Provide(
		fx.Annotate(
			storyapiimpl.New,
			fx.As(new(storyapi.Client)),
		), fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		), fx.Annotate(
			syncerimpl.New,
			fx.As(new(syncer.Client)),
		),
		fx.Annotate(
			commandimpl.New,
			fx.As(new(command.Client)),
		),
	),
	tokenstore.Module,
	sessionimpl.Module,
	collectionimpl.Module,
	repositories.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

func migrate(cfg *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "internal", "migrations"))
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, sess session.Controller,
	stories collection.Controller, syncClient syncer.Client, tgClient telegram.Client, cmdClient command.Client) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go startHttpServer(log, cfg)

			if err := bootstrapSession(ctx, log, cfg, sess, stories); err != nil {
				log.Error("Story platform login error", "Error", err)
				tgClient.SendMessageToUser("Story platform login error:" + err.Error())
			}

			// Stale authenticated data must never outlive the session.
			go func() {
				for loggedIn := range sess.Watch(ctx) {
					if !loggedIn {
						stories.Invalidate()
					}
				}
			}()

			if err := syncClient.ScheduleSync(ctx); err != nil {
				log.Error("Sync schedule error", "Error", err)
				tgClient.SendMessageToUser("Sync schedule error:" + err.Error())
			}

			if err := syncClient.ScheduleArchiveCleanup(ctx); err != nil {
				log.Error("Cleanup schedule error", "Error", err)
				tgClient.SendMessageToUser("Cleanup schedule error:" + err.Error())
			}

			go func() {
				for {
					if err := cmdClient.HandleCommand(ctx); err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Error("Command handler stopped", "Error", err)
						time.Sleep(5 * time.Second)
					}
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// bootstrapSession reuses a persisted session when it still works and falls
// back to a credential login otherwise.
func bootstrapSession(ctx context.Context, log logger.Logger, cfg *config.Config,
	sess session.Controller, stories collection.Controller) error {
	if sess.IsLoggedIn(ctx) {
		err := stories.Refresh(ctx)
		if err == nil {
			log.Info("Reusing persisted session")
			return nil
		}
		if !apperrors.IsUnauthorized(err) {
			return fmt.Errorf("failed to verify persisted session: %w", err)
		}
		log.Warn("Persisted session is no longer valid, logging in with credentials")
		if err := sess.Logout(ctx); err != nil {
			return err
		}
	}

	login := func() error {
		return sess.Login(ctx, cfg.StoryAPI.Email, cfg.StoryAPI.Pass)
	}
	if err := retry.Do(ctx, log, "Login", login, retry.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to log in after multiple attempts: %w", err)
	}

	log.Info("Logged in with credentials")
	return nil
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Info("Health check request received", "Method", r.Method, "URL", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
