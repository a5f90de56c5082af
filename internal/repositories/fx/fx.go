package fx

import (
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/archive"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/subscription"
	"go.uber.org/fx"
)

var Module = fx.Options(
	archive.Module,
	subscription.Module,
)
