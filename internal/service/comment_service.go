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

const (
	maxCommentLength  = 10_000
	commentPreviewLen = 140
)

// CommentService manages community comments: flat threads of top-level
// comments with single-level replies, soft deletion and up/down votes.
//
//go:generate mockery --name CommentService --output ../mocks --outpkg mocks --case=underscore
type CommentService interface {
	// CreateComment posts a comment or a reply. Replying to a reply
	// re-parents the new comment onto the thread's top-level comment.
	CreateComment(ctx context.Context, authorID uuid.UUID, comment *models.Comment) (*models.Comment, error)

	// ListThreads returns a page of top-level comments, newest first, each
	// with its replies in posting order. chapterID narrows to one chapter.
	ListThreads(ctx context.Context, storyID uuid.UUID, chapterID *uuid.UUID, limit, offset int) ([]models.CommentThread, error)

	// DeleteComment soft-deletes a comment. Allowed for the comment's
	// author and for the story's owner.
	DeleteComment(ctx context.Context, requesterID, commentID uuid.UUID) error

	// VoteComment sets the user's vote on a comment: 1, -1, or 0 to clear.
	VoteComment(ctx context.Context, userID, commentID uuid.UUID, vote int16) error
}

// Compile-time check to ensure commentServiceImpl implements CommentService
var _ CommentService = (*commentServiceImpl)(nil)

type commentServiceImpl struct {
	db          interfaces.DBTX
	storyRepo   interfaces.StoryRepository
	chapterRepo interfaces.ChapterRepository
	commentRepo interfaces.CommentRepository
	events      interfaces.EventPublisher
	logger      *zap.Logger
}

// NewCommentService creates a new instance of commentServiceImpl.
func NewCommentService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	chapterRepo interfaces.ChapterRepository,
	commentRepo interfaces.CommentRepository,
	events interfaces.EventPublisher,
	logger *zap.Logger,
) CommentService {
	return &commentServiceImpl{
		db:          db,
		storyRepo:   storyRepo,
		chapterRepo: chapterRepo,
		commentRepo: commentRepo,
		events:      events,
		logger:      logger.Named("CommentService"),
	}
}

func (s *commentServiceImpl) CreateComment(ctx context.Context, authorID uuid.UUID, comment *models.Comment) (*models.Comment, error) {
	comment.Body = strings.TrimSpace(comment.Body)
	if comment.Body == "" {
		return nil, fmt.Errorf("comment body is required: %w", models.ErrInvalidInput)
	}
	if len(comment.Body) > maxCommentLength {
		return nil, fmt.Errorf("comment body exceeds %d characters: %w", maxCommentLength, models.ErrInvalidInput)
	}

	story, err := s.storyRepo.GetByID(ctx, s.db, comment.StoryID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != authorID && story.Status != models.StoryStatusPublished {
		return nil, models.ErrStoryNotFound
	}

	if comment.ChapterID != nil {
		chapter, err := s.chapterRepo.GetByID(ctx, s.db, *comment.ChapterID)
		if err != nil {
			return nil, err
		}
		if chapter.StoryID != comment.StoryID {
			return nil, fmt.Errorf("chapter belongs to a different story: %w", models.ErrInvalidInput)
		}
	}

	isReply := comment.ParentID != nil
	if isReply {
		parent, err := s.commentRepo.GetByID(ctx, *comment.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.StoryID != comment.StoryID {
			return nil, models.ErrReplyWrongStory
		}
		// Threads stay one level deep: a reply to a reply lands on the
		// thread's top-level comment.
		if parent.ParentID != nil {
			comment.ParentID = parent.ParentID
		}
	}

	comment.AuthorID = authorID
	comment.IsDeleted = false
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	eventType := models.EventTypeCommentCreated
	if isReply {
		eventType = models.EventTypeCommentReplied
	}
	payload := models.CommentCreatedEvent{
		CommentID: comment.ID.String(),
		StoryID:   comment.StoryID.String(),
		AuthorID:  authorID.String(),
		Preview:   previewOf(comment.Body),
	}
	if comment.ChapterID != nil {
		payload.ChapterID = comment.ChapterID.String()
	}
	if comment.ParentID != nil {
		payload.ParentID = comment.ParentID.String()
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("Failed to publish comment event", zap.Error(err), zap.String("commentID", comment.ID.String()))
	}

	s.logger.Info("Comment created",
		zap.String("commentID", comment.ID.String()),
		zap.String("storyID", comment.StoryID.String()),
		zap.Bool("isReply", isReply))
	return comment, nil
}

func (s *commentServiceImpl) ListThreads(ctx context.Context, storyID uuid.UUID, chapterID *uuid.UUID, limit, offset int) ([]models.CommentThread, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	tops, err := s.commentRepo.ListThreadsByStory(ctx, storyID, chapterID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(tops) == 0 {
		return []models.CommentThread{}, nil
	}

	parentIDs := make([]uuid.UUID, 0, len(tops))
	for _, top := range tops {
		parentIDs = append(parentIDs, top.ID)
	}
	replies, err := s.commentRepo.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]models.CommentWithMeta, len(tops))
	for _, reply := range replies {
		if reply.ParentID == nil {
			continue
		}
		byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
	}

	threads := make([]models.CommentThread, 0, len(tops))
	for _, top := range tops {
		thread := models.CommentThread{CommentWithMeta: top, Replies: byParent[top.ID]}
		if thread.Replies == nil {
			thread.Replies = []models.CommentWithMeta{}
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

func (s *commentServiceImpl) DeleteComment(ctx context.Context, requesterID, commentID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.IsDeleted {
		return models.ErrCommentNotFound
	}

	if comment.AuthorID != requesterID {
		story, err := s.storyRepo.GetByID(ctx, s.db, comment.StoryID)
		if err != nil {
			return err
		}
		if story.OwnerID != requesterID {
			return models.ErrForbidden
		}
	}

	if err := s.commentRepo.SoftDelete(ctx, commentID); err != nil {
		return err
	}
	s.logger.Info("Comment deleted",
		zap.String("commentID", commentID.String()),
		zap.String("requesterID", requesterID.String()))
	return nil
}

func (s *commentServiceImpl) VoteComment(ctx context.Context, userID, commentID uuid.UUID, vote int16) error {
	if vote != models.VoteUp && vote != models.VoteDown && vote != 0 {
		return fmt.Errorf("vote must be 1, -1 or 0: %w", models.ErrInvalidInput)
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.IsDeleted {
		return models.ErrCommentNotFound
	}
	return s.commentRepo.SetVote(ctx, commentID, userID, vote)
}

// previewOf trims a comment body down to the short preview carried in
// events, cutting on runes so multibyte text stays valid.
func previewOf(body string) string {
	runes := []rune(body)
	if len(runes) <= commentPreviewLen {
		return body
	}
	return string(runes[:commentPreviewLen])
}
