package subscription

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

type PgxRepository struct {
	db     repositories.DB
	logger logger.Logger
}

func NewPgxRepository(db repositories.DB, log logger.Logger) *PgxRepository {
	return &PgxRepository{
		db:     db,
		logger: log.WithComponent("SubscriptionRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) Create(ctx context.Context, sub domain.Subscription) error {
	query, args, err := repositories.SqBuilder.
		Insert("subscriptions").
		Columns("chat_id").
		Values(sub.ChatID).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PgxRepository) Delete(ctx context.Context, chatID int64) error {
	query, args, err := repositories.SqBuilder.
		Delete("subscriptions").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PgxRepository) GetAllChatIDs(ctx context.Context) ([]int64, error) {
	query, args, err := repositories.SqBuilder.
		Select("chat_id").
		From("subscriptions").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, err
		}
		chatIDs = append(chatIDs, chatID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chatIDs, nil
}
