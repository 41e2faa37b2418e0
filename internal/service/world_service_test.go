package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

type worldServiceMocks struct {
	stories    *mocks.StoryRepository
	characters *mocks.CharacterRepository
	places     *mocks.PlaceRepository
}

func newWorldService(t *testing.T) (service.WorldService, *worldServiceMocks) {
	t.Helper()
	m := &worldServiceMocks{
		stories:    new(mocks.StoryRepository),
		characters: new(mocks.CharacterRepository),
		places:     new(mocks.PlaceRepository),
	}
	svc := service.NewWorldService(nil, m.stories, m.characters, m.places, zap.NewNop())
	return svc, m
}

func TestCreateCharacter(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	ownedStory := &models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}

	t.Run("Success", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()
		m.characters.On("Create", ctx, mock.MatchedBy(func(c *models.Character) bool {
			return c.Name == "Ada Gearwright"
		})).Return(nil).Once()

		_, err := svc.CreateCharacter(ctx, ownerID, &models.Character{StoryID: storyID, Name: "  Ada Gearwright  "})
		require.NoError(t, err)
		m.characters.AssertExpectations(t)
	})

	t.Run("Empty name", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()

		_, err := svc.CreateCharacter(ctx, ownerID, &models.Character{StoryID: storyID, Name: " "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		m.characters.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Foreign story", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()

		_, err := svc.CreateCharacter(ctx, uuid.New(), &models.Character{StoryID: storyID, Name: "Ada"})
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
	})
}

func TestListCharacters(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()

	t.Run("Readers browse a published world book", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}, nil).Once()
		m.characters.On("ListByStory", ctx, storyID).
			Return([]models.Character{{Name: "Ada"}, {Name: "Brass Owl"}}, nil).Once()

		chars, err := svc.ListCharacters(ctx, uuid.New(), storyID)
		require.NoError(t, err)
		assert.Len(t, chars, 2)
	})

	t.Run("Draft world book is owner-only", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}, nil).Once()

		_, err := svc.ListCharacters(ctx, uuid.New(), storyID)
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
		m.characters.AssertNotCalled(t, "ListByStory", mock.Anything, mock.Anything)
	})
}

func TestUpdateCharacter(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	characterID := uuid.New()

	existing := func() *models.Character {
		return &models.Character{ID: characterID, StoryID: storyID, Name: "Ada Gearwright"}
	}

	t.Run("Blank name keeps the old one", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.characters.On("GetByID", ctx, characterID).Return(existing(), nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()
		m.characters.On("Update", ctx, mock.MatchedBy(func(c *models.Character) bool {
			assert.Equal(t, "Ada Gearwright", c.Name)
			assert.Equal(t, storyID, c.StoryID)
			return true
		})).Return(nil).Once()
		m.characters.On("GetByID", ctx, characterID).Return(existing(), nil).Once()

		_, err := svc.UpdateCharacter(ctx, ownerID, &models.Character{ID: characterID, Description: "tinkerer"})
		require.NoError(t, err)
		m.characters.AssertExpectations(t)
	})
}

func TestDeletePlace(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	placeID := uuid.New()

	t.Run("Owner deletes", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.places.On("GetByID", ctx, placeID).
			Return(&models.Place{ID: placeID, StoryID: storyID, Name: "The Cogyard"}, nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()
		m.places.On("Delete", ctx, placeID).Return(nil).Once()

		require.NoError(t, svc.DeletePlace(ctx, ownerID, placeID))
		m.places.AssertExpectations(t)
	})

	t.Run("Stranger cannot delete", func(t *testing.T) {
		svc, m := newWorldService(t)

		m.places.On("GetByID", ctx, placeID).
			Return(&models.Place{ID: placeID, StoryID: storyID, Name: "The Cogyard"}, nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()

		err := svc.DeletePlace(ctx, uuid.New(), placeID)
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
		m.places.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
