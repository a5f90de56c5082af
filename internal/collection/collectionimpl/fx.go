package collectionimpl

import (
	"github.com/orgball2608/story-sync-telegram-bot/internal/collection"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.As(new(collection.Controller)),
	),
)
