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

// Compile-time check to ensure pgCharacterRepository implements CharacterRepository
var _ interfaces.CharacterRepository = (*pgCharacterRepository)(nil)

const characterFields = `id, story_id, name, description, portrait_url, traits, created_at, updated_at`

type pgCharacterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCharacterRepository creates a new PostgreSQL-backed CharacterRepository.
func NewPgCharacterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("PgCharacterRepo"),
	}
}

func scanCharacter(row pgx.Row) (*models.Character, error) {
	c := &models.Character{}
	err := row.Scan(
		&c.ID, &c.StoryID, &c.Name, &c.Description, &c.PortraitURL,
		&c.Traits, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a character.
func (r *pgCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	if len(character.Traits) == 0 {
		character.Traits = []byte(`{}`)
	}
	query := `INSERT INTO characters (story_id, name, description, portrait_url, traits)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		character.StoryID, character.Name, character.Description, character.PortraitURL, character.Traits,
	).Scan(&character.ID, &character.CreatedAt, &character.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.ErrStoryNotFound
		}
		r.logger.Error("Failed to create character", zap.Error(err), zap.String("storyID", character.StoryID.String()))
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// GetByID retrieves a character by ID.
func (r *pgCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	query := `SELECT ` + characterFields + ` FROM characters WHERE id = $1`
	character, err := scanCharacter(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCharacterNotFound
		}
		r.logger.Error("Failed to get character", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return character, nil
}

// ListByStory returns the story's characters ordered by name.
func (r *pgCharacterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Character, error) {
	query := `SELECT ` + characterFields + ` FROM characters WHERE story_id = $1 ORDER BY name`
	characters := []models.Character{}
	if err := pgxscan.Select(ctx, r.db, &characters, query, storyID); err != nil {
		r.logger.Error("Failed to list characters", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

// Update rewrites name, description, portrait and traits.
func (r *pgCharacterRepository) Update(ctx context.Context, character *models.Character) error {
	if len(character.Traits) == 0 {
		character.Traits = []byte(`{}`)
	}
	query := `UPDATE characters
		SET name = $2, description = $3, portrait_url = $4, traits = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		character.ID, character.Name, character.Description, character.PortraitURL, character.Traits,
	)
	if err != nil {
		r.logger.Error("Failed to update character", zap.Error(err), zap.String("id", character.ID.String()))
		return fmt.Errorf("failed to update character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCharacterNotFound
	}
	return nil
}

// Delete removes a character.
func (r *pgCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete character", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCharacterNotFound
	}
	return nil
}
