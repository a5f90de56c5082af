package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
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
		logger: log.WithComponent("ArchiveRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) GetByStoryID(ctx context.Context, storyID string) (*domain.ArchivedStory, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "story_id", "author", "photo_url", "created_at").
		From("story_archive").
		Where(sq.Eq{"story_id": storyID}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var story domain.ArchivedStory
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&story.ID,
		&story.StoryID,
		&story.Author,
		&story.PhotoURL,
		&story.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get archived story: %w", err)
	}

	return &story, nil
}

func (r *PgxRepository) Create(ctx context.Context, story domain.ArchivedStory) error {
	query, args, err := repositories.SqBuilder.
		Insert("story_archive").
		Columns("story_id", "author", "photo_url", "created_at").
		Values(story.StoryID, story.Author, story.PhotoURL, story.CreatedAt).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCannotCreate
		}
		return errors.Join(err, ErrCannotCreate)
	}

	return nil
}

func (r *PgxRepository) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	query, args, err := repositories.SqBuilder.
		Delete("story_archive").
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up archive: %w", err)
	}

	return tag.RowsAffected(), nil
}
