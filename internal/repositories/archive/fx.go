package archive

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	fx.Annotate(
		func(pool *pgxpool.Pool, log logger.Logger) *PgxRepository {
			return NewPgxRepository(pool, log)
		},
		fx.As(new(Repository)),
	),
)
