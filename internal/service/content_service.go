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

// ContentService manages the structural content of a story: parts, chapters
// and scenes. Owners see everything; other users only see published content.
//
//go:generate mockery --name ContentService --output ../mocks --outpkg mocks --case=underscore
type ContentService interface {
	CreatePart(ctx context.Context, ownerID uuid.UUID, part *models.StoryPart) (*models.StoryPart, error)
	ListParts(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.StoryPart, error)
	UpdatePart(ctx context.Context, ownerID uuid.UUID, part *models.StoryPart) (*models.StoryPart, error)
	DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error

	CreateChapter(ctx context.Context, ownerID uuid.UUID, chapter *models.Chapter) (*models.Chapter, error)
	GetChapter(ctx context.Context, requesterID, chapterID uuid.UUID) (*models.Chapter, error)
	ListChapters(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Chapter, error)
	UpdateChapter(ctx context.Context, ownerID uuid.UUID, chapter *models.Chapter) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, ownerID, chapterID uuid.UUID) error

	CreateScene(ctx context.Context, ownerID uuid.UUID, scene *models.Scene) (*models.Scene, error)
	GetScene(ctx context.Context, requesterID, sceneID uuid.UUID) (*models.Scene, error)
	ListScenes(ctx context.Context, requesterID, chapterID uuid.UUID) ([]models.Scene, error)
	UpdateScene(ctx context.Context, ownerID uuid.UUID, scene *models.Scene) (*models.Scene, error)
	DeleteScene(ctx context.Context, ownerID, sceneID uuid.UUID) error
}

// Compile-time check to ensure contentServiceImpl implements ContentService
var _ ContentService = (*contentServiceImpl)(nil)

type contentServiceImpl struct {
	db          interfaces.DBTX
	storyRepo   interfaces.StoryRepository
	partRepo    interfaces.PartRepository
	chapterRepo interfaces.ChapterRepository
	sceneRepo   interfaces.SceneRepository
	logger      *zap.Logger
}

// NewContentService creates a new instance of contentServiceImpl.
func NewContentService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	partRepo interfaces.PartRepository,
	chapterRepo interfaces.ChapterRepository,
	sceneRepo interfaces.SceneRepository,
	logger *zap.Logger,
) ContentService {
	return &contentServiceImpl{
		db:          db,
		storyRepo:   storyRepo,
		partRepo:    partRepo,
		chapterRepo: chapterRepo,
		sceneRepo:   sceneRepo,
		logger:      logger.Named("ContentService"),
	}
}

// --- Parts ---

func (s *contentServiceImpl) CreatePart(ctx context.Context, ownerID uuid.UUID, part *models.StoryPart) (*models.StoryPart, error) {
	if _, err := s.requireOwnedStory(ctx, ownerID, part.StoryID); err != nil {
		return nil, err
	}
	part.Title = strings.TrimSpace(part.Title)
	if part.Title == "" {
		return nil, fmt.Errorf("part title is required: %w", models.ErrInvalidInput)
	}
	if err := s.partRepo.Create(ctx, s.db, part); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *contentServiceImpl) ListParts(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.StoryPart, error) {
	if _, err := s.requireVisibleStory(ctx, requesterID, storyID); err != nil {
		return nil, err
	}
	return s.partRepo.ListByStory(ctx, s.db, storyID)
}

func (s *contentServiceImpl) UpdatePart(ctx context.Context, ownerID uuid.UUID, part *models.StoryPart) (*models.StoryPart, error) {
	existing, err := s.partRepo.GetByID(ctx, s.db, part.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, existing.StoryID); err != nil {
		return nil, err
	}
	part.StoryID = existing.StoryID
	if strings.TrimSpace(part.Title) == "" {
		part.Title = existing.Title
	}
	if part.Position == 0 {
		part.Position = existing.Position
	}
	if err := s.partRepo.Update(ctx, s.db, part); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *contentServiceImpl) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	part, err := s.partRepo.GetByID(ctx, s.db, partID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, part.StoryID); err != nil {
		return err
	}
	return s.partRepo.Delete(ctx, s.db, partID)
}

// --- Chapters ---

func (s *contentServiceImpl) CreateChapter(ctx context.Context, ownerID uuid.UUID, chapter *models.Chapter) (*models.Chapter, error) {
	if _, err := s.requireOwnedStory(ctx, ownerID, chapter.StoryID); err != nil {
		return nil, err
	}
	chapter.Title = strings.TrimSpace(chapter.Title)
	if chapter.Title == "" {
		return nil, fmt.Errorf("chapter title is required: %w", models.ErrInvalidInput)
	}
	if chapter.PartID != nil {
		part, err := s.partRepo.GetByID(ctx, s.db, *chapter.PartID)
		if err != nil {
			return nil, err
		}
		if part.StoryID != chapter.StoryID {
			return nil, fmt.Errorf("part belongs to a different story: %w", models.ErrInvalidInput)
		}
	}
	chapter.Status = models.ChapterStatusDraft
	chapter.PublishedAt = nil
	if err := s.chapterRepo.Create(ctx, s.db, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *contentServiceImpl) GetChapter(ctx context.Context, requesterID, chapterID uuid.UUID) (*models.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, chapterID)
	if err != nil {
		return nil, err
	}
	story, err := s.storyRepo.GetByID(ctx, s.db, chapter.StoryID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID == requesterID {
		return chapter, nil
	}
	if story.Status != models.StoryStatusPublished || chapter.Status != models.ChapterStatusPublished {
		return nil, models.ErrChapterNotFound
	}
	return chapter, nil
}

func (s *contentServiceImpl) ListChapters(ctx context.Context, requesterID, storyID uuid.UUID) ([]models.Chapter, error) {
	story, err := s.requireVisibleStory(ctx, requesterID, storyID)
	if err != nil {
		return nil, err
	}
	chapters, err := s.chapterRepo.ListByStory(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID == requesterID {
		return chapters, nil
	}
	// Outsiders only see published chapters.
	published := chapters[:0]
	for _, ch := range chapters {
		if ch.Status == models.ChapterStatusPublished {
			published = append(published, ch)
		}
	}
	return published, nil
}

func (s *contentServiceImpl) UpdateChapter(ctx context.Context, ownerID uuid.UUID, chapter *models.Chapter) (*models.Chapter, error) {
	existing, err := s.chapterRepo.GetByID(ctx, s.db, chapter.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, existing.StoryID); err != nil {
		return nil, err
	}
	chapter.StoryID = existing.StoryID
	if strings.TrimSpace(chapter.Title) == "" {
		chapter.Title = existing.Title
	}
	if chapter.Position == 0 {
		chapter.Position = existing.Position
	}
	if chapter.PartID != nil {
		part, err := s.partRepo.GetByID(ctx, s.db, *chapter.PartID)
		if err != nil {
			return nil, err
		}
		if part.StoryID != existing.StoryID {
			return nil, fmt.Errorf("part belongs to a different story: %w", models.ErrInvalidInput)
		}
	}
	if err := s.chapterRepo.Update(ctx, s.db, chapter); err != nil {
		return nil, err
	}
	return s.chapterRepo.GetByID(ctx, s.db, chapter.ID)
}

func (s *contentServiceImpl) DeleteChapter(ctx context.Context, ownerID, chapterID uuid.UUID) error {
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, chapterID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, chapter.StoryID); err != nil {
		return err
	}
	return s.chapterRepo.Delete(ctx, s.db, chapterID)
}

// --- Scenes ---

func (s *contentServiceImpl) CreateScene(ctx context.Context, ownerID uuid.UUID, scene *models.Scene) (*models.Scene, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, scene.ChapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, chapter.StoryID); err != nil {
		return nil, err
	}
	if err := s.sceneRepo.Create(ctx, s.db, scene); err != nil {
		return nil, err
	}
	return scene, nil
}

func (s *contentServiceImpl) GetScene(ctx context.Context, requesterID, sceneID uuid.UUID) (*models.Scene, error) {
	scene, err := s.sceneRepo.GetByID(ctx, s.db, sceneID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetChapter(ctx, requesterID, scene.ChapterID); err != nil {
		// Scene visibility follows its chapter's.
		return nil, models.ErrSceneNotFound
	}
	return scene, nil
}

func (s *contentServiceImpl) ListScenes(ctx context.Context, requesterID, chapterID uuid.UUID) ([]models.Scene, error) {
	if _, err := s.GetChapter(ctx, requesterID, chapterID); err != nil {
		return nil, err
	}
	return s.sceneRepo.ListByChapter(ctx, s.db, chapterID)
}

func (s *contentServiceImpl) UpdateScene(ctx context.Context, ownerID uuid.UUID, scene *models.Scene) (*models.Scene, error) {
	existing, err := s.sceneRepo.GetByID(ctx, s.db, scene.ID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, existing.ChapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, chapter.StoryID); err != nil {
		return nil, err
	}
	scene.ChapterID = existing.ChapterID
	if scene.Position == 0 {
		scene.Position = existing.Position
	}
	if err := s.sceneRepo.Update(ctx, s.db, scene); err != nil {
		return nil, err
	}
	return s.sceneRepo.GetByID(ctx, s.db, scene.ID)
}

func (s *contentServiceImpl) DeleteScene(ctx context.Context, ownerID, sceneID uuid.UUID) error {
	scene, err := s.sceneRepo.GetByID(ctx, s.db, sceneID)
	if err != nil {
		return err
	}
	chapter, err := s.chapterRepo.GetByID(ctx, s.db, scene.ChapterID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwnedStory(ctx, ownerID, chapter.StoryID); err != nil {
		return err
	}
	return s.sceneRepo.Delete(ctx, s.db, sceneID)
}

// --- Helpers ---

func (s *contentServiceImpl) requireOwnedStory(ctx context.Context, ownerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != ownerID {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

func (s *contentServiceImpl) requireVisibleStory(ctx context.Context, requesterID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != requesterID && story.Status != models.StoryStatusPublished {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}
