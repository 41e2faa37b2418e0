package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgPlaceRepository implements PlaceRepository
var _ interfaces.PlaceRepository = (*pgPlaceRepository)(nil)

const placeFields = `id, story_id, name, description, image_url, created_at, updated_at`

type pgPlaceRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgPlaceRepository creates a new PostgreSQL-backed PlaceRepository.
func NewPgPlaceRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.PlaceRepository {
	return &pgPlaceRepository{
		db:     db,
		logger: logger.Named("PgPlaceRepo"),
	}
}

func scanPlace(row pgx.Row) (*models.Place, error) {
	p := &models.Place{}
	err := row.Scan(&p.ID, &p.StoryID, &p.Name, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a place.
func (r *pgPlaceRepository) Create(ctx context.Context, place *models.Place) error {
	query := `INSERT INTO places (story_id, name, description, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		place.StoryID, place.Name, place.Description, place.ImageURL,
	).Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.ErrStoryNotFound
		}
		r.logger.Error("Failed to create place", zap.Error(err), zap.String("storyID", place.StoryID.String()))
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

// GetByID retrieves a place by ID.
func (r *pgPlaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	query := `SELECT ` + placeFields + ` FROM places WHERE id = $1`
	place, err := scanPlace(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPlaceNotFound
		}
		r.logger.Error("Failed to get place", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return place, nil
}

// ListByStory returns the story's places ordered by name.
func (r *pgPlaceRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Place, error) {
	query := `SELECT ` + placeFields + ` FROM places WHERE story_id = $1 ORDER BY name`
	places := []models.Place{}
	if err := pgxscan.Select(ctx, r.db, &places, query, storyID); err != nil {
		r.logger.Error("Failed to list places", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

// Update rewrites name, description and image.
func (r *pgPlaceRepository) Update(ctx context.Context, place *models.Place) error {
	query := `UPDATE places
		SET name = $2, description = $3, image_url = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, place.ID, place.Name, place.Description, place.ImageURL)
	if err != nil {
		r.logger.Error("Failed to update place", zap.Error(err), zap.String("id", place.ID.String()))
		return fmt.Errorf("failed to update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPlaceNotFound
	}
	return nil
}

// Delete removes a place.
func (r *pgPlaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete place", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPlaceNotFound
	}
	return nil
}
