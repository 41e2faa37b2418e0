package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
// Methods take a querier so callers can run them inside transactions.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyFields = `id, owner_id, title, slug, summary, genre, kind, status, cover_image_url, published_at, created_at, updated_at`

func scanStory(row pgx.Row) (*models.Story, error) {
	story := &models.Story{}
	err := row.Scan(&story.ID, &story.OwnerID, &story.Title, &story.Slug, &story.Summary,
		&story.Genre, &story.Kind, &story.Status, &story.CoverImageURL,
		&story.PublishedAt, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return story, nil
}

// Create inserts a new story.
func (r *pgStoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	query := `INSERT INTO stories (owner_id, title, slug, summary, genre, kind, status, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		story.OwnerID, story.Title, story.Slug, story.Summary,
		story.Genre, story.Kind, story.Status, story.CoverImageURL,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Duplicate story slug", zap.String("slug", story.Slug), zap.String("ownerID", story.OwnerID.String()))
			return models.ErrStorySlugTaken
		}
		r.logger.Error("Failed to create story", zap.Error(err))
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Info("Story created", zap.String("storyID", story.ID.String()), zap.String("title", story.Title))
	return nil
}

// GetByID retrieves a story by ID.
func (r *pgStoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE id = $1`
	story, err := scanStory(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story by id", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get story by id: %w", err)
	}
	return story, nil
}

// GetBySlug retrieves a story by owner and slug.
func (r *pgStoryRepository) GetBySlug(ctx context.Context, querier interfaces.DBTX, ownerID uuid.UUID, slug string) (*models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE owner_id = $1 AND slug = $2`
	story, err := scanStory(querier.QueryRow(ctx, query, ownerID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get story by slug: %w", err)
	}
	return story, nil
}

// ListByOwner returns the owner's stories, newest first.
func (r *pgStoryRepository) ListByOwner(ctx context.Context, querier interfaces.DBTX, ownerID uuid.UUID, limit, offset int) ([]models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	stories := []models.Story{}
	if err := pgxscan.Select(ctx, querier, &stories, query, ownerID, limit, offset); err != nil {
		r.logger.Error("Failed to list stories by owner", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return nil, fmt.Errorf("failed to list stories by owner: %w", err)
	}
	return stories, nil
}

const publishedStoryFields = `
	s.id, s.owner_id, s.title, s.slug, s.summary, s.genre, s.kind, s.status,
	s.cover_image_url, s.published_at, s.created_at, s.updated_at,
	u.display_name AS author_name,
	(SELECT COUNT(*) FROM story_likes sl WHERE sl.story_id = s.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.story_id = s.id AND NOT c.is_deleted) AS comment_count,
	(SELECT COUNT(*) FROM chapters ch WHERE ch.story_id = s.id AND ch.status = 'published') AS chapter_count
`

// ListPublished returns published stories with community counters for the
// feed, newest publication first.
func (r *pgStoryRepository) ListPublished(ctx context.Context, querier interfaces.DBTX, genre string, limit, offset int) ([]models.StoryWithStats, error) {
	query := `SELECT ` + publishedStoryFields + `
		FROM stories s
		JOIN users u ON u.id = s.owner_id
		WHERE s.status = 'published' AND ($1 = '' OR s.genre = $1)
		ORDER BY s.published_at DESC
		LIMIT $2 OFFSET $3`
	stories := []models.StoryWithStats{}
	if err := pgxscan.Select(ctx, querier, &stories, query, genre, limit, offset); err != nil {
		r.logger.Error("Failed to list published stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list published stories: %w", err)
	}
	return stories, nil
}

// Update rewrites the mutable story fields.
func (r *pgStoryRepository) Update(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	query := `UPDATE stories SET
		title = $2, slug = $3, summary = $4, genre = $5, kind = $6, cover_image_url = $7, updated_at = now()
		WHERE id = $1`
	tag, err := querier.Exec(ctx, query,
		story.ID, story.Title, story.Slug, story.Summary, story.Genre, story.Kind, story.CoverImageURL)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrStorySlugTaken
		}
		r.logger.Error("Failed to update story", zap.Error(err), zap.String("storyID", story.ID.String()))
		return fmt.Errorf("failed to update story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// SetStatus transitions the story lifecycle state.
func (r *pgStoryRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.StoryStatus, publishedAt *time.Time) error {
	query := `UPDATE stories SET status = $2, published_at = COALESCE($3, published_at), updated_at = now() WHERE id = $1`
	tag, err := querier.Exec(ctx, query, id, status, publishedAt)
	if err != nil {
		r.logger.Error("Failed to set story status", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to set story status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story status updated", zap.String("storyID", id.String()), zap.String("status", string(status)))
	return nil
}

// Delete removes a story and cascades to its content.
func (r *pgStoryRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id.String()))
	return nil
}
