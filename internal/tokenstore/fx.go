package tokenstore

import (
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	fx.Annotate(
		func(cfg *config.Config, log logger.Logger) *FileStore {
			return NewFileStore(cfg.StoryAPI.TokenPath, log)
		},
		fx.As(new(Store)),
	),
)
