// Package mocks holds hand-maintained testify mocks for the repository,
// publisher and client interfaces used across the service tests.
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error {
	args := m.Called(ctx, userID, displayName, email)
	return args.Error(0)
}

func (m *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash, passwordSalt string) error {
	args := m.Called(ctx, userID, passwordHash, passwordSalt)
	return args.Error(0)
}

func (m *UserRepository) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error {
	args := m.Called(ctx, userID, preferences)
	return args.Error(0)
}

func (m *UserRepository) SetUserBanStatus(ctx context.Context, userID uuid.UUID, isBanned bool) error {
	args := m.Called(ctx, userID, isBanned)
	return args.Error(0)
}

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

var _ interfaces.TokenRepository = (*TokenRepository)(nil)

func (m *TokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}

func (m *TokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *TokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *TokenRepository) DeleteRefreshUUID(ctx context.Context, userID uuid.UUID, refreshUUID string) error {
	args := m.Called(ctx, userID, refreshUUID)
	return args.Error(0)
}

func (m *TokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

var _ interfaces.StoryRepository = (*StoryRepository)(nil)

func (m *StoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}

func (m *StoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	var story *models.Story
	if v := args.Get(0); v != nil {
		story = v.(*models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepository) GetBySlug(ctx context.Context, querier interfaces.DBTX, ownerID uuid.UUID, slug string) (*models.Story, error) {
	args := m.Called(ctx, querier, ownerID, slug)
	var story *models.Story
	if v := args.Get(0); v != nil {
		story = v.(*models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepository) ListByOwner(ctx context.Context, querier interfaces.DBTX, ownerID uuid.UUID, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, querier, ownerID, limit, offset)
	var stories []models.Story
	if v := args.Get(0); v != nil {
		stories = v.([]models.Story)
	}
	return stories, args.Error(1)
}

func (m *StoryRepository) ListPublished(ctx context.Context, querier interfaces.DBTX, genre string, limit, offset int) ([]models.StoryWithStats, error) {
	args := m.Called(ctx, querier, genre, limit, offset)
	var stories []models.StoryWithStats
	if v := args.Get(0); v != nil {
		stories = v.([]models.StoryWithStats)
	}
	return stories, args.Error(1)
}

func (m *StoryRepository) Update(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}

func (m *StoryRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.StoryStatus, publishedAt *time.Time) error {
	args := m.Called(ctx, querier, id, status, publishedAt)
	return args.Error(0)
}

func (m *StoryRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock PartRepository
type PartRepository struct {
	mock.Mock
}

var _ interfaces.PartRepository = (*PartRepository)(nil)

func (m *PartRepository) Create(ctx context.Context, querier interfaces.DBTX, part *models.StoryPart) error {
	args := m.Called(ctx, querier, part)
	return args.Error(0)
}

func (m *PartRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.StoryPart, error) {
	args := m.Called(ctx, querier, id)
	var part *models.StoryPart
	if v := args.Get(0); v != nil {
		part = v.(*models.StoryPart)
	}
	return part, args.Error(1)
}

func (m *PartRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) ([]models.StoryPart, error) {
	args := m.Called(ctx, querier, storyID)
	var parts []models.StoryPart
	if v := args.Get(0); v != nil {
		parts = v.([]models.StoryPart)
	}
	return parts, args.Error(1)
}

func (m *PartRepository) Update(ctx context.Context, querier interfaces.DBTX, part *models.StoryPart) error {
	args := m.Called(ctx, querier, part)
	return args.Error(0)
}

func (m *PartRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock ChapterRepository
type ChapterRepository struct {
	mock.Mock
}

var _ interfaces.ChapterRepository = (*ChapterRepository)(nil)

func (m *ChapterRepository) Create(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	args := m.Called(ctx, querier, chapter)
	return args.Error(0)
}

func (m *ChapterRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, querier, id)
	var chapter *models.Chapter
	if v := args.Get(0); v != nil {
		chapter = v.(*models.Chapter)
	}
	return chapter, args.Error(1)
}

func (m *ChapterRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) ([]models.Chapter, error) {
	args := m.Called(ctx, querier, storyID)
	var chapters []models.Chapter
	if v := args.Get(0); v != nil {
		chapters = v.([]models.Chapter)
	}
	return chapters, args.Error(1)
}

func (m *ChapterRepository) Update(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	args := m.Called(ctx, querier, chapter)
	return args.Error(0)
}

func (m *ChapterRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ChapterStatus, publishedAt *time.Time) error {
	args := m.Called(ctx, querier, id, status, publishedAt)
	return args.Error(0)
}

func (m *ChapterRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock SceneRepository
type SceneRepository struct {
	mock.Mock
}

var _ interfaces.SceneRepository = (*SceneRepository)(nil)

func (m *SceneRepository) Create(ctx context.Context, querier interfaces.DBTX, scene *models.Scene) error {
	args := m.Called(ctx, querier, scene)
	return args.Error(0)
}

func (m *SceneRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, querier, id)
	var scene *models.Scene
	if v := args.Get(0); v != nil {
		scene = v.(*models.Scene)
	}
	return scene, args.Error(1)
}

func (m *SceneRepository) ListByChapter(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) ([]models.Scene, error) {
	args := m.Called(ctx, querier, chapterID)
	var scenes []models.Scene
	if v := args.Get(0); v != nil {
		scenes = v.([]models.Scene)
	}
	return scenes, args.Error(1)
}

func (m *SceneRepository) Update(ctx context.Context, querier interfaces.DBTX, scene *models.Scene) error {
	args := m.Called(ctx, querier, scene)
	return args.Error(0)
}

func (m *SceneRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock CharacterRepository
type CharacterRepository struct {
	mock.Mock
}

var _ interfaces.CharacterRepository = (*CharacterRepository)(nil)

func (m *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	args := m.Called(ctx, id)
	var character *models.Character
	if v := args.Get(0); v != nil {
		character = v.(*models.Character)
	}
	return character, args.Error(1)
}

func (m *CharacterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Character, error) {
	args := m.Called(ctx, storyID)
	var characters []models.Character
	if v := args.Get(0); v != nil {
		characters = v.([]models.Character)
	}
	return characters, args.Error(1)
}

func (m *CharacterRepository) Update(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock PlaceRepository
type PlaceRepository struct {
	mock.Mock
}

var _ interfaces.PlaceRepository = (*PlaceRepository)(nil)

func (m *PlaceRepository) Create(ctx context.Context, place *models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *PlaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	args := m.Called(ctx, id)
	var place *models.Place
	if v := args.Get(0); v != nil {
		place = v.(*models.Place)
	}
	return place, args.Error(1)
}

func (m *PlaceRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Place, error) {
	args := m.Called(ctx, storyID)
	var places []models.Place
	if v := args.Get(0); v != nil {
		places = v.([]models.Place)
	}
	return places, args.Error(1)
}

func (m *PlaceRepository) Update(ctx context.Context, place *models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *PlaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock CommentRepository
type CommentRepository struct {
	mock.Mock
}

var _ interfaces.CommentRepository = (*CommentRepository)(nil)

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	args := m.Called(ctx, id)
	var comment *models.Comment
	if v := args.Get(0); v != nil {
		comment = v.(*models.Comment)
	}
	return comment, args.Error(1)
}

func (m *CommentRepository) ListThreadsByStory(ctx context.Context, storyID uuid.UUID, chapterID *uuid.UUID, limit, offset int) ([]models.CommentWithMeta, error) {
	args := m.Called(ctx, storyID, chapterID, limit, offset)
	var comments []models.CommentWithMeta
	if v := args.Get(0); v != nil {
		comments = v.([]models.CommentWithMeta)
	}
	return comments, args.Error(1)
}

func (m *CommentRepository) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]models.CommentWithMeta, error) {
	args := m.Called(ctx, parentIDs)
	var replies []models.CommentWithMeta
	if v := args.Get(0); v != nil {
		replies = v.([]models.CommentWithMeta)
	}
	return replies, args.Error(1)
}

func (m *CommentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CommentRepository) SetVote(ctx context.Context, commentID, userID uuid.UUID, vote int16) error {
	args := m.Called(ctx, commentID, userID, vote)
	return args.Error(0)
}

func (m *CommentRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, storyID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// Mock LikeRepository
type LikeRepository struct {
	mock.Mock
}

var _ interfaces.LikeRepository = (*LikeRepository)(nil)

func (m *LikeRepository) AddLike(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}

func (m *LikeRepository) RemoveLike(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}

func (m *LikeRepository) CheckLike(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, storyID)
	return args.Bool(0), args.Error(1)
}

func (m *LikeRepository) CountLikes(ctx context.Context, storyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, storyID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *LikeRepository) ListLikedStoryIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, limit, offset)
	var ids []uuid.UUID
	if v := args.Get(0); v != nil {
		ids = v.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

// Mock AnalyticsRepository
type AnalyticsRepository struct {
	mock.Mock
}

var _ interfaces.AnalyticsRepository = (*AnalyticsRepository)(nil)

func (m *AnalyticsRepository) Record(ctx context.Context, event *models.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *AnalyticsRepository) StorySummary(ctx context.Context, storyID uuid.UUID) (*models.StoryAnalyticsSummary, error) {
	args := m.Called(ctx, storyID)
	var summary *models.StoryAnalyticsSummary
	if v := args.Get(0); v != nil {
		summary = v.(*models.StoryAnalyticsSummary)
	}
	return summary, args.Error(1)
}

func (m *AnalyticsRepository) CountByDay(ctx context.Context, storyID uuid.UUID, eventType string, from, to time.Time) ([]models.EventCount, error) {
	args := m.Called(ctx, storyID, eventType, from, to)
	var counts []models.EventCount
	if v := args.Get(0); v != nil {
		counts = v.([]models.EventCount)
	}
	return counts, args.Error(1)
}

// Mock ScheduleRepository
type ScheduleRepository struct {
	mock.Mock
}

var _ interfaces.ScheduleRepository = (*ScheduleRepository)(nil)

func (m *ScheduleRepository) Create(ctx context.Context, querier interfaces.DBTX, schedule *models.PublishSchedule) error {
	args := m.Called(ctx, querier, schedule)
	return args.Error(0)
}

func (m *ScheduleRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.PublishSchedule, error) {
	args := m.Called(ctx, querier, id)
	var schedule *models.PublishSchedule
	if v := args.Get(0); v != nil {
		schedule = v.(*models.PublishSchedule)
	}
	return schedule, args.Error(1)
}

func (m *ScheduleRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]models.PublishSchedule, error) {
	args := m.Called(ctx, querier, userID, limit, offset)
	var schedules []models.PublishSchedule
	if v := args.Get(0); v != nil {
		schedules = v.([]models.PublishSchedule)
	}
	return schedules, args.Error(1)
}

func (m *ScheduleRepository) UpdatePublishAt(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, publishAt time.Time) error {
	args := m.Called(ctx, querier, id, publishAt)
	return args.Error(0)
}

func (m *ScheduleRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ScheduleStatus, failureReason string) error {
	args := m.Called(ctx, querier, id, status, failureReason)
	return args.Error(0)
}

func (m *ScheduleRepository) ClaimDue(ctx context.Context, querier interfaces.DBTX, now time.Time, limit int) ([]models.PublishSchedule, error) {
	args := m.Called(ctx, querier, now, limit)
	var schedules []models.PublishSchedule
	if v := args.Get(0); v != nil {
		schedules = v.([]models.PublishSchedule)
	}
	return schedules, args.Error(1)
}

// Mock APIKeyRepository
type APIKeyRepository struct {
	mock.Mock
}

var _ interfaces.APIKeyRepository = (*APIKeyRepository)(nil)

func (m *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *APIKeyRepository) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	args := m.Called(ctx, id)
	var key *models.APIKey
	if v := args.Get(0); v != nil {
		key = v.(*models.APIKey)
	}
	return key, args.Error(1)
}

func (m *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	args := m.Called(ctx, userID)
	var keys []models.APIKey
	if v := args.Get(0); v != nil {
		keys = v.([]models.APIKey)
	}
	return keys, args.Error(1)
}

func (m *APIKeyRepository) ListActiveByPrefix(ctx context.Context, prefix string) ([]models.APIKey, error) {
	args := m.Called(ctx, prefix)
	var keys []models.APIKey
	if v := args.Get(0); v != nil {
		keys = v.([]models.APIKey)
	}
	return keys, args.Error(1)
}

func (m *APIKeyRepository) Deactivate(ctx context.Context, userID uuid.UUID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

// Mock GenerationResultRepository
type GenerationResultRepository struct {
	mock.Mock
}

var _ interfaces.GenerationResultRepository = (*GenerationResultRepository)(nil)

func (m *GenerationResultRepository) GetByTaskID(ctx context.Context, taskID string) (*models.GenerationResult, error) {
	args := m.Called(ctx, taskID)
	var result *models.GenerationResult
	if v := args.Get(0); v != nil {
		result = v.(*models.GenerationResult)
	}
	return result, args.Error(1)
}

func (m *GenerationResultRepository) Save(ctx context.Context, result *models.GenerationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *GenerationResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	var results []models.GenerationResult
	if v := args.Get(0); v != nil {
		results = v.([]models.GenerationResult)
	}
	return results, args.Error(1)
}
