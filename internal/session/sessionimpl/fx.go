package sessionimpl

import (
	"github.com/orgball2608/story-sync-telegram-bot/internal/session"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.As(new(session.Controller)),
	),
)
