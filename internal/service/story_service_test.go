package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

type storyServiceMocks struct {
	stories  *mocks.StoryRepository
	chapters *mocks.ChapterRepository
	likes    *mocks.LikeRepository
	events   *mocks.EventPublisher
}

func newStoryService(t *testing.T) (service.StoryService, *storyServiceMocks) {
	t.Helper()
	m := &storyServiceMocks{
		stories:  new(mocks.StoryRepository),
		chapters: new(mocks.ChapterRepository),
		likes:    new(mocks.LikeRepository),
		events:   new(mocks.EventPublisher),
	}
	svc := service.NewStoryService(nil, m.stories, m.chapters, m.likes, m.events, zap.NewNop())
	return svc, m
}

func TestCreateStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Slug derived from title", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
			assert.Equal(t, "The  Clockwork Moon!", s.Title)
			assert.Equal(t, "the-clockwork-moon", s.Slug)
			assert.Equal(t, models.StoryKindNovel, s.Kind, "kind defaults to novel")
			assert.Equal(t, models.StoryStatusDraft, s.Status)
			assert.Equal(t, ownerID, s.OwnerID)
			assert.Nil(t, s.PublishedAt)
			return true
		})).Return(nil).Once()

		_, err := svc.CreateStory(ctx, ownerID, &models.Story{Title: "  The  Clockwork Moon!  "})
		require.NoError(t, err)
		m.stories.AssertExpectations(t)
	})

	t.Run("Explicit slug is normalized", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
			return s.Slug == "moon-2"
		})).Return(nil).Once()

		_, err := svc.CreateStory(ctx, ownerID, &models.Story{Title: "Moon", Slug: "Moon (2)"})
		require.NoError(t, err)
	})

	t.Run("Empty title", func(t *testing.T) {
		svc, m := newStoryService(t)

		_, err := svc.CreateStory(ctx, ownerID, &models.Story{Title: "   "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		m.stories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Title with no slug material", func(t *testing.T) {
		svc, _ := newStoryService(t)

		_, err := svc.CreateStory(ctx, ownerID, &models.Story{Title: "!!!"})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("Unknown story kind", func(t *testing.T) {
		svc, _ := newStoryService(t)

		_, err := svc.CreateStory(ctx, ownerID, &models.Story{Title: "Moon", Kind: "haiku"})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func TestGetStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	strangerID := uuid.New()
	storyID := uuid.New()

	t.Run("Owner sees their draft", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}, nil).Once()

		story, err := svc.GetStory(ctx, ownerID, storyID)
		require.NoError(t, err)
		assert.Equal(t, storyID, story.ID)
	})

	t.Run("Stranger cannot see a draft", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}, nil).Once()

		_, err := svc.GetStory(ctx, strangerID, storyID)
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
	})

	t.Run("Stranger sees a published story", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}, nil).Once()

		_, err := svc.GetStory(ctx, strangerID, storyID)
		assert.NoError(t, err)
	})
}

func TestUpdateStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	existing := &models.Story{
		ID:      storyID,
		OwnerID: ownerID,
		Title:   "Old Title",
		Slug:    "old-title",
		Kind:    models.StoryKindNovel,
		Status:  models.StoryStatusDraft,
	}

	t.Run("Blank fields keep their old values", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(existing, nil).Once()
		m.stories.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
			assert.Equal(t, "Old Title", s.Title)
			assert.Equal(t, "old-title", s.Slug)
			assert.Equal(t, models.StoryKindNovel, s.Kind)
			return true
		})).Return(nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(existing, nil).Once()

		_, err := svc.UpdateStory(ctx, ownerID, &models.Story{ID: storyID, Summary: "new summary"})
		require.NoError(t, err)
		m.stories.AssertExpectations(t)
	})

	t.Run("Foreign story reads as not found", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(existing, nil).Once()

		_, err := svc.UpdateStory(ctx, uuid.New(), &models.Story{ID: storyID, Title: "Hijack"})
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
		m.stories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPublishStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()

	t.Run("Draft becomes published and emits an event", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Title: "Moon", Slug: "moon", Status: models.StoryStatusDraft}, nil).Once()
		m.stories.On("SetStatus", ctx, mock.Anything, storyID, models.StoryStatusPublished, mock.AnythingOfType("*time.Time")).
			Return(nil).Once()

		var published models.StoryPublishedEvent
		m.events.On("Publish", ctx, models.EventTypeStoryPublished, mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(2).(models.StoryPublishedEvent)
			}).
			Return(nil).Once()

		story, err := svc.PublishStory(ctx, ownerID, storyID)
		require.NoError(t, err)
		assert.Equal(t, models.StoryStatusPublished, story.Status)
		require.NotNil(t, story.PublishedAt)
		assert.Equal(t, storyID.String(), published.StoryID)
		assert.Equal(t, ownerID.String(), published.AuthorID)
		m.events.AssertExpectations(t)
	})

	t.Run("Already published", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}, nil).Once()

		_, err := svc.PublishStory(ctx, ownerID, storyID)
		assert.True(t, errors.Is(err, models.ErrAlreadyPublished))
		m.stories.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Event failure does not fail the publish", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}, nil).Once()
		m.stories.On("SetStatus", ctx, mock.Anything, storyID, models.StoryStatusPublished, mock.Anything).
			Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeStoryPublished, mock.Anything).
			Return(errors.New("redis down")).Once()

		_, err := svc.PublishStory(ctx, ownerID, storyID)
		assert.NoError(t, err)
	})
}

func TestUnpublishStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()

	t.Run("Published returns to draft", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}, nil).Once()
		m.stories.On("SetStatus", ctx, mock.Anything, storyID, models.StoryStatusDraft, (*time.Time)(nil)).
			Return(nil).Once()

		story, err := svc.UnpublishStory(ctx, ownerID, storyID)
		require.NoError(t, err)
		assert.Equal(t, models.StoryStatusDraft, story.Status)
	})

	t.Run("Draft cannot be unpublished", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}, nil).Once()

		_, err := svc.UnpublishStory(ctx, ownerID, storyID)
		assert.True(t, errors.Is(err, models.ErrStoryNotPublished))
	})
}

func TestPublishChapter(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	chapterID := uuid.New()

	// The service mutates the chapter it loads, so every subtest gets fresh
	// copies.
	draftChapter := func() *models.Chapter {
		return &models.Chapter{ID: chapterID, StoryID: storyID, Title: "Chapter One", Status: models.ChapterStatusDraft}
	}
	publishedStory := func() *models.Story {
		return &models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}
	}

	t.Run("Success emits chapter-published", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.chapters.On("GetByID", ctx, mock.Anything, chapterID).Return(draftChapter(), nil).Twice()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory(), nil).Twice()
		m.chapters.On("SetStatus", ctx, mock.Anything, chapterID, models.ChapterStatusPublished, mock.AnythingOfType("*time.Time")).
			Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeChapterPublished, mock.MatchedBy(func(e models.ChapterPublishedEvent) bool {
			return e.ChapterID == chapterID.String() && e.StoryID == storyID.String()
		})).Return(nil).Once()

		chapter, err := svc.PublishChapter(ctx, ownerID, chapterID)
		require.NoError(t, err)
		assert.Equal(t, models.ChapterStatusPublished, chapter.Status)
		assert.NotNil(t, chapter.PublishedAt)
		m.events.AssertExpectations(t)
	})

	t.Run("Chapter already published", func(t *testing.T) {
		svc, m := newStoryService(t)

		already := &models.Chapter{ID: chapterID, StoryID: storyID, Status: models.ChapterStatusPublished}
		m.chapters.On("GetByID", ctx, mock.Anything, chapterID).Return(already, nil).Twice()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory(), nil).Once()

		_, err := svc.PublishChapter(ctx, ownerID, chapterID)
		assert.True(t, errors.Is(err, models.ErrAlreadyPublished))
	})

	t.Run("Story still in draft", func(t *testing.T) {
		svc, m := newStoryService(t)

		draftStory := &models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusDraft}
		m.chapters.On("GetByID", ctx, mock.Anything, chapterID).Return(draftChapter(), nil).Twice()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(draftStory, nil).Twice()

		_, err := svc.PublishChapter(ctx, ownerID, chapterID)
		assert.True(t, errors.Is(err, models.ErrStoryNotPublished))
		m.chapters.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Someone else's chapter", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.chapters.On("GetByID", ctx, mock.Anything, chapterID).Return(draftChapter(), nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory(), nil).Once()

		_, err := svc.PublishChapter(ctx, uuid.New(), chapterID)
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
	})
}

func TestLikeStory(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()
	publishedStory := &models.Story{ID: storyID, OwnerID: uuid.New(), Status: models.StoryStatusPublished}

	t.Run("Like emits an event with the fresh count", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.likes.On("AddLike", ctx, userID, storyID).Return(nil).Once()
		m.likes.On("CountLikes", ctx, storyID).Return(int64(42), nil).Once()
		m.events.On("Publish", ctx, models.EventTypeStoryLiked, mock.MatchedBy(func(e models.StoryLikedEvent) bool {
			return e.LikeCount == 42 && e.UserID == userID.String()
		})).Return(nil).Once()

		require.NoError(t, svc.LikeStory(ctx, userID, storyID))
		m.events.AssertExpectations(t)
	})

	t.Run("Draft story cannot be liked", func(t *testing.T) {
		svc, m := newStoryService(t)

		draft := &models.Story{ID: storyID, OwnerID: uuid.New(), Status: models.StoryStatusDraft}
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(draft, nil).Once()

		err := svc.LikeStory(ctx, userID, storyID)
		assert.True(t, errors.Is(err, models.ErrStoryNotPublished))
		m.likes.AssertNotCalled(t, "AddLike", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Duplicate like is passed through", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.likes.On("AddLike", ctx, userID, storyID).Return(models.ErrAlreadyLiked).Once()

		err := svc.LikeStory(ctx, userID, storyID)
		assert.True(t, errors.Is(err, models.ErrAlreadyLiked))
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Count failure still likes, count falls back to zero", func(t *testing.T) {
		svc, m := newStoryService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.likes.On("AddLike", ctx, userID, storyID).Return(nil).Once()
		m.likes.On("CountLikes", ctx, storyID).Return(int64(0), errors.New("pg hiccup")).Once()
		m.events.On("Publish", ctx, models.EventTypeStoryLiked, mock.MatchedBy(func(e models.StoryLikedEvent) bool {
			return e.LikeCount == 0
		})).Return(nil).Once()

		assert.NoError(t, svc.LikeStory(ctx, userID, storyID))
	})
}

func TestUnlikeStory(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	svc, m := newStoryService(t)
	m.likes.On("RemoveLike", ctx, userID, storyID).Return(models.ErrLikeNotFound).Once()

	err := svc.UnlikeStory(ctx, userID, storyID)
	assert.True(t, errors.Is(err, models.ErrLikeNotFound))
}
