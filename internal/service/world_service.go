package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// WorldService manages a story's world book: the characters and places an
// author defines once and reuses across generation prompts.
//
//go:generate mockery --name WorldService --output ../mocks --outpkg mocks --case=underscore
type WorldService interface {
	CreateCharacter(ctx context.Context, ownerID uuid.UUID, character *models.Character) (*models.Character, error)
	ListCharacters(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Character, error)
	UpdateCharacter(ctx context.Context, ownerID uuid.UUID, character *models.Character) (*models.Character, error)
	DeleteCharacter(ctx context.Context, ownerID, characterID uuid.UUID) error

	CreatePlace(ctx context.Context, ownerID uuid.UUID, place *models.Place) (*models.Place, error)
	ListPlaces(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Place, error)
	UpdatePlace(ctx context.Context, ownerID uuid.UUID, place *models.Place) (*models.Place, error)
	DeletePlace(ctx context.Context, ownerID, placeID uuid.UUID) error
}

// Compile-time check to ensure worldServiceImpl implements WorldService
var _ WorldService = (*worldServiceImpl)(nil)

type worldServiceImpl struct {
	db            interfaces.DBTX
	storyRepo     interfaces.StoryRepository
	characterRepo interfaces.CharacterRepository
	placeRepo     interfaces.PlaceRepository
	logger        *zap.Logger
}

// NewWorldService creates a new instance of worldServiceImpl.
func NewWorldService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	characterRepo interfaces.CharacterRepository,
	placeRepo interfaces.PlaceRepository,
	logger *zap.Logger,
) WorldService {
	return &worldServiceImpl{
		db:            db,
		storyRepo:     storyRepo,
		characterRepo: characterRepo,
		placeRepo:     placeRepo,
		logger:        logger.Named("WorldService"),
	}
}

func (s *worldServiceImpl) CreateCharacter(ctx context.Context, ownerID uuid.UUID, character *models.Character) (*models.Character, error) {
	if err := s.checkOwner(ctx, ownerID, character.StoryID); err != nil {
		return nil, err
	}
	character.Name = strings.TrimSpace(character.Name)
	if character.Name == "" {
		return nil, fmt.Errorf("character name is required: %w", models.ErrInvalidInput)
	}
	if err := s.characterRepo.Create(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *worldServiceImpl) ListCharacters(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Character, error) {
	if err := s.checkVisible(ctx, requesterID, storyID); err != nil {
		return nil, err
	}
	return s.characterRepo.ListByStory(ctx, storyID)
}

func (s *worldServiceImpl) UpdateCharacter(ctx context.Context, ownerID uuid.UUID, character *models.Character) (*models.Character, error) {
	existing, err := s.characterRepo.GetByID(ctx, character.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, ownerID, existing.StoryID); err != nil {
		return nil, err
	}
	character.StoryID = existing.StoryID
	if strings.TrimSpace(character.Name) == "" {
		character.Name = existing.Name
	}
	if err := s.characterRepo.Update(ctx, character); err != nil {
		return nil, err
	}
	return s.characterRepo.GetByID(ctx, character.ID)
}

func (s *worldServiceImpl) DeleteCharacter(ctx context.Context, ownerID, characterID uuid.UUID) error {
	character, err := s.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(ctx, ownerID, character.StoryID); err != nil {
		return err
	}
	return s.characterRepo.Delete(ctx, characterID)
}

func (s *worldServiceImpl) CreatePlace(ctx context.Context, ownerID uuid.UUID, place *models.Place) (*models.Place, error) {
	if err := s.checkOwner(ctx, ownerID, place.StoryID); err != nil {
		return nil, err
	}
	place.Name = strings.TrimSpace(place.Name)
	if place.Name == "" {
		return nil, fmt.Errorf("place name is required: %w", models.ErrInvalidInput)
	}
	if err := s.placeRepo.Create(ctx, place); err != nil {
		return nil, err
	}
	return place, nil
}

func (s *worldServiceImpl) ListPlaces(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Place, error) {
	if err := s.checkVisible(ctx, requesterID, storyID); err != nil {
		return nil, err
	}
	return s.placeRepo.ListByStory(ctx, storyID)
}

func (s *worldServiceImpl) UpdatePlace(ctx context.Context, ownerID uuid.UUID, place *models.Place) (*models.Place, error) {
	existing, err := s.placeRepo.GetByID(ctx, place.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, ownerID, existing.StoryID); err != nil {
		return nil, err
	}
	place.StoryID = existing.StoryID
	if strings.TrimSpace(place.Name) == "" {
		place.Name = existing.Name
	}
	if err := s.placeRepo.Update(ctx, place); err != nil {
		return nil, err
	}
	return s.placeRepo.GetByID(ctx, place.ID)
}

func (s *worldServiceImpl) DeletePlace(ctx context.Context, ownerID, placeID uuid.UUID) error {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(ctx, ownerID, place.StoryID); err != nil {
		return err
	}
	return s.placeRepo.Delete(ctx, placeID)
}

func (s *worldServiceImpl) checkOwner(ctx context.Context, ownerID, storyID uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID != ownerID {
		return models.ErrStoryNotFound
	}
	return nil
}

func (s *worldServiceImpl) checkVisible(ctx context.Context, requesterID, storyID uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID != requesterID && story.Status != models.StoryStatusPublished {
		return models.ErrStoryNotFound
	}
	return nil
}
