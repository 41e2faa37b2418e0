package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// StoryService manages stories, their lifecycle and likes.
//
//go:generate mockery --name StoryService --output ../mocks --outpkg mocks --case=underscore
type StoryService interface {
	// CreateStory creates a draft story for the owner. A missing slug is
	// derived from the title.
	CreateStory(ctx context.Context, ownerID uuid.UUID, story *models.Story) (*models.Story, error)

	// GetStory returns a story. Drafts and archived stories are only visible
	// to their owner; everyone else gets models.ErrStoryNotFound.
	GetStory(ctx context.Context, requesterID, storyID uuid.UUID) (*models.Story, error)

	// ListMyStories returns the owner's stories, newest first.
	ListMyStories(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Story, error)

	// UpdateStory rewrites the mutable fields of an owned story.
	UpdateStory(ctx context.Context, ownerID uuid.UUID, story *models.Story) (*models.Story, error)

	// DeleteStory removes an owned story and all its content.
	DeleteStory(ctx context.Context, ownerID, storyID uuid.UUID) error

	// PublishStory makes a story publicly visible and emits story-published.
	PublishStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error)

	// UnpublishStory returns a published story to draft.
	UnpublishStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error)

	// ArchiveStory retires a story from the feed without deleting it.
	ArchiveStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error)

	// PublishChapter publishes a chapter of an owned, published story and
	// emits chapter-published.
	PublishChapter(ctx context.Context, actorID, chapterID uuid.UUID) (*models.Chapter, error)

	// PublishChapterTx is the transactional core of PublishChapter, without
	// ownership check or event emission. The scheduler runs it inside its
	// claim transaction and emits events after commit.
	PublishChapterTx(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) (*models.Chapter, error)

	// Feed lists published stories with community counters, newest first.
	Feed(ctx context.Context, genre string, limit, offset int) ([]models.StoryWithStats, error)

	// LikeStory records a like on a published story and emits
	// social-story-liked. Returns models.ErrAlreadyLiked on duplicates.
	LikeStory(ctx context.Context, userID, storyID uuid.UUID) error

	// UnlikeStory removes a like. Returns models.ErrLikeNotFound if there was
	// none.
	UnlikeStory(ctx context.Context, userID, storyID uuid.UUID) error

	// LikedByUser reports whether the user liked the story.
	LikedByUser(ctx context.Context, userID, storyID uuid.UUID) (bool, error)
}

// Compile-time check to ensure storyServiceImpl implements StoryService
var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	db          interfaces.DBTX
	storyRepo   interfaces.StoryRepository
	chapterRepo interfaces.ChapterRepository
	likeRepo    interfaces.LikeRepository
	events      interfaces.EventPublisher
	logger      *zap.Logger
}

// NewStoryService creates a new instance of storyServiceImpl.
func NewStoryService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	chapterRepo interfaces.ChapterRepository,
	likeRepo interfaces.LikeRepository,
	events interfaces.EventPublisher,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		db:          db,
		storyRepo:   storyRepo,
		chapterRepo: chapterRepo,
		likeRepo:    likeRepo,
		events:      events,
		logger:      logger.Named("StoryService"),
	}
}

// CreateStory creates a draft story.
func (s *storyServiceImpl) CreateStory(ctx context.Context, ownerID uuid.UUID, story *models.Story) (*models.Story, error) {
	story.Title = strings.TrimSpace(story.Title)
	if story.Title == "" {
		return nil, fmt.Errorf("story title is required: %w", models.ErrInvalidInput)
	}
	if story.Kind == "" {
		story.Kind = models.StoryKindNovel
	}
	if !models.IsValidStoryKind(story.Kind) {
		return nil, fmt.Errorf("unknown story kind %q: %w", story.Kind, models.ErrInvalidInput)
	}
	if story.Slug == "" {
		story.Slug = slugify(story.Title)
	} else {
		story.Slug = slugify(story.Slug)
	}
	if story.Slug == "" {
		return nil, fmt.Errorf("story slug is required: %w", models.ErrInvalidInput)
	}

	story.OwnerID = ownerID
	story.Status = models.StoryStatusDraft
	story.PublishedAt = nil

	if err := s.storyRepo.Create(ctx, s.db, story); err != nil {
		return nil, err
	}
	s.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("ownerID", ownerID.String()),
		zap.String("slug", story.Slug))
	return story, nil
}

// GetStory returns a story visible to the requester.
func (s *storyServiceImpl) GetStory(ctx context.Context, requesterID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != requesterID && story.Status != models.StoryStatusPublished {
		// Drafts are indistinguishable from absent stories to outsiders.
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

// ListMyStories returns the owner's stories.
func (s *storyServiceImpl) ListMyStories(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Story, error) {
	limit = normalizeLimit(limit)
	return s.storyRepo.ListByOwner(ctx, s.db, ownerID, limit, offset)
}

// UpdateStory rewrites the mutable fields of an owned story.
func (s *storyServiceImpl) UpdateStory(ctx context.Context, ownerID uuid.UUID, story *models.Story) (*models.Story, error) {
	existing, err := s.getOwnedStory(ctx, ownerID, story.ID)
	if err != nil {
		return nil, err
	}

	story.Title = strings.TrimSpace(story.Title)
	if story.Title == "" {
		story.Title = existing.Title
	}
	if story.Slug == "" {
		story.Slug = existing.Slug
	} else {
		story.Slug = slugify(story.Slug)
	}
	if story.Kind == "" {
		story.Kind = existing.Kind
	}
	if !models.IsValidStoryKind(story.Kind) {
		return nil, fmt.Errorf("unknown story kind %q: %w", story.Kind, models.ErrInvalidInput)
	}

	if err := s.storyRepo.Update(ctx, s.db, story); err != nil {
		return nil, err
	}
	return s.storyRepo.GetByID(ctx, s.db, story.ID)
}

// DeleteStory removes an owned story.
func (s *storyServiceImpl) DeleteStory(ctx context.Context, ownerID, storyID uuid.UUID) error {
	if _, err := s.getOwnedStory(ctx, ownerID, storyID); err != nil {
		return err
	}
	if err := s.storyRepo.Delete(ctx, s.db, storyID); err != nil {
		return err
	}
	s.logger.Info("Story deleted", zap.String("storyID", storyID.String()), zap.String("ownerID", ownerID.String()))
	return nil
}

// PublishStory makes a story publicly visible.
func (s *storyServiceImpl) PublishStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.getOwnedStory(ctx, ownerID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Status == models.StoryStatusPublished {
		return nil, models.ErrAlreadyPublished
	}

	now := time.Now()
	if err := s.storyRepo.SetStatus(ctx, s.db, storyID, models.StoryStatusPublished, &now); err != nil {
		return nil, err
	}
	story.Status = models.StoryStatusPublished
	story.PublishedAt = &now

	s.publishEvent(ctx, models.EventTypeStoryPublished, models.StoryPublishedEvent{
		StoryID:  story.ID.String(),
		Title:    story.Title,
		Slug:     story.Slug,
		AuthorID: story.OwnerID.String(),
	})

	s.logger.Info("Story published", zap.String("storyID", storyID.String()))
	return story, nil
}

// UnpublishStory returns a published story to draft.
func (s *storyServiceImpl) UnpublishStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.getOwnedStory(ctx, ownerID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Status != models.StoryStatusPublished {
		return nil, models.ErrStoryNotPublished
	}
	if err := s.storyRepo.SetStatus(ctx, s.db, storyID, models.StoryStatusDraft, nil); err != nil {
		return nil, err
	}
	story.Status = models.StoryStatusDraft
	s.logger.Info("Story unpublished", zap.String("storyID", storyID.String()))
	return story, nil
}

// ArchiveStory retires a story from the feed.
func (s *storyServiceImpl) ArchiveStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.getOwnedStory(ctx, ownerID, storyID)
	if err != nil {
		return nil, err
	}
	if err := s.storyRepo.SetStatus(ctx, s.db, storyID, models.StoryStatusArchived, nil); err != nil {
		return nil, err
	}
	story.Status = models.StoryStatusArchived
	s.logger.Info("Story archived", zap.String("storyID", storyID.String()))
	return story, nil
}

// PublishChapter publishes a chapter of an owned story.
func (s *storyServiceImpl) PublishChapter(ctx context.Context, actorID, chapterID uuid.UUID) (*models.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, chapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getOwnedStory(ctx, actorID, chapter.StoryID); err != nil {
		return nil, err
	}

	chapter, err = s.PublishChapterTx(ctx, s.db, chapterID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.EventTypeChapterPublished, models.ChapterPublishedEvent{
		StoryID:   chapter.StoryID.String(),
		ChapterID: chapter.ID.String(),
		Title:     chapter.Title,
	})
	return chapter, nil
}

// PublishChapterTx publishes a chapter without ownership checks or events.
func (s *storyServiceImpl) PublishChapterTx(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) (*models.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, querier, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.Status == models.ChapterStatusPublished {
		return nil, models.ErrAlreadyPublished
	}

	story, err := s.storyRepo.GetByID(ctx, querier, chapter.StoryID)
	if err != nil {
		return nil, err
	}
	if story.Status != models.StoryStatusPublished {
		return nil, models.ErrStoryNotPublished
	}

	now := time.Now()
	if err := s.chapterRepo.SetStatus(ctx, querier, chapterID, models.ChapterStatusPublished, &now); err != nil {
		return nil, err
	}
	chapter.Status = models.ChapterStatusPublished
	chapter.PublishedAt = &now

	s.logger.Info("Chapter published",
		zap.String("chapterID", chapterID.String()),
		zap.String("storyID", chapter.StoryID.String()))
	return chapter, nil
}

// Feed lists published stories with community counters.
func (s *storyServiceImpl) Feed(ctx context.Context, genre string, limit, offset int) ([]models.StoryWithStats, error) {
	limit = normalizeLimit(limit)
	return s.storyRepo.ListPublished(ctx, s.db, genre, limit, offset)
}

// LikeStory records a like on a published story.
func (s *storyServiceImpl) LikeStory(ctx context.Context, userID, storyID uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return err
	}
	if story.Status != models.StoryStatusPublished {
		return models.ErrStoryNotPublished
	}

	if err := s.likeRepo.AddLike(ctx, userID, storyID); err != nil {
		return err
	}

	count, err := s.likeRepo.CountLikes(ctx, storyID)
	if err != nil {
		s.logger.Warn("Failed to count likes after liking", zap.Error(err), zap.String("storyID", storyID.String()))
		count = 0
	}
	s.publishEvent(ctx, models.EventTypeStoryLiked, models.StoryLikedEvent{
		StoryID:   storyID.String(),
		UserID:    userID.String(),
		LikeCount: int(count),
	})
	return nil
}

// UnlikeStory removes a like.
func (s *storyServiceImpl) UnlikeStory(ctx context.Context, userID, storyID uuid.UUID) error {
	return s.likeRepo.RemoveLike(ctx, userID, storyID)
}

// LikedByUser reports whether the user liked the story.
func (s *storyServiceImpl) LikedByUser(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	return s.likeRepo.CheckLike(ctx, userID, storyID)
}

// getOwnedStory loads a story and enforces ownership. Foreign stories come
// back as not found so existence is not leaked.
func (s *storyServiceImpl) getOwnedStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != ownerID {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

func (s *storyServiceImpl) publishEvent(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("Failed to publish event", zap.Error(err), zap.String("eventType", eventType))
	}
}

// slugify lowercases the input and collapses non-alphanumeric runs into
// single hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// normalizeLimit clamps paging limits to a sane default range.
func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
