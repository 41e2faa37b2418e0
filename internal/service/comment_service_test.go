package service_test

import (
	"context"
	"errors"
	"strings"
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

type commentServiceMocks struct {
	stories  *mocks.StoryRepository
	chapters *mocks.ChapterRepository
	comments *mocks.CommentRepository
	events   *mocks.EventPublisher
}

func newCommentService(t *testing.T) (service.CommentService, *commentServiceMocks) {
	t.Helper()
	m := &commentServiceMocks{
		stories:  new(mocks.StoryRepository),
		chapters: new(mocks.ChapterRepository),
		comments: new(mocks.CommentRepository),
		events:   new(mocks.EventPublisher),
	}
	svc := service.NewCommentService(nil, m.stories, m.chapters, m.comments, m.events, zap.NewNop())
	return svc, m
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	storyID := uuid.New()
	publishedStory := &models.Story{ID: storyID, OwnerID: uuid.New(), Status: models.StoryStatusPublished}

	t.Run("Top-level comment emits social-comment-created", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.comments.On("Create", ctx, mock.MatchedBy(func(c *models.Comment) bool {
			assert.Equal(t, authorID, c.AuthorID)
			assert.False(t, c.IsDeleted)
			return true
		})).Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeCommentCreated, mock.MatchedBy(func(e models.CommentCreatedEvent) bool {
			return e.StoryID == storyID.String() && e.AuthorID == authorID.String()
		})).Return(nil).Once()

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, Body: "  Loved this chapter!  "})
		require.NoError(t, err)
		m.events.AssertExpectations(t)
	})

	t.Run("Reply to a reply lands on the top-level comment", func(t *testing.T) {
		svc, m := newCommentService(t)

		topID := uuid.New()
		replyID := uuid.New()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.comments.On("GetByID", ctx, replyID).
			Return(&models.Comment{ID: replyID, StoryID: storyID, ParentID: &topID}, nil).Once()
		m.comments.On("Create", ctx, mock.MatchedBy(func(c *models.Comment) bool {
			return c.ParentID != nil && *c.ParentID == topID
		})).Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeCommentReplied, mock.Anything).Return(nil).Once()

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, ParentID: &replyID, Body: "Same here."})
		require.NoError(t, err)
		m.comments.AssertExpectations(t)
	})

	t.Run("Reply across stories is rejected", func(t *testing.T) {
		svc, m := newCommentService(t)

		parentID := uuid.New()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.comments.On("GetByID", ctx, parentID).
			Return(&models.Comment{ID: parentID, StoryID: uuid.New()}, nil).Once()

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, ParentID: &parentID, Body: "Hello?"})
		assert.True(t, errors.Is(err, models.ErrReplyWrongStory))
		m.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Chapter from another story is rejected", func(t *testing.T) {
		svc, m := newCommentService(t)

		chapterID := uuid.New()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(publishedStory, nil).Once()
		m.chapters.On("GetByID", ctx, mock.Anything, chapterID).
			Return(&models.Chapter{ID: chapterID, StoryID: uuid.New()}, nil).Once()

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, ChapterID: &chapterID, Body: "Where am I?"})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("Empty body", func(t *testing.T) {
		svc, m := newCommentService(t)

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, Body: "   "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		m.stories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Body over the length cap", func(t *testing.T) {
		svc, _ := newCommentService(t)

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, Body: strings.Repeat("a", 10_001)})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("Commenting on a draft is denied for outsiders", func(t *testing.T) {
		svc, m := newCommentService(t)

		draft := &models.Story{ID: storyID, OwnerID: uuid.New(), Status: models.StoryStatusDraft}
		m.stories.On("GetByID", ctx, mock.Anything, storyID).Return(draft, nil).Once()

		_, err := svc.CreateComment(ctx, authorID, &models.Comment{StoryID: storyID, Body: "Sneak peek?"})
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
	})
}

func TestListThreads(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	t.Run("Replies are grouped under their parents", func(t *testing.T) {
		svc, m := newCommentService(t)

		topA := uuid.New()
		topB := uuid.New()
		tops := []models.CommentWithMeta{
			{Comment: models.Comment{ID: topA, StoryID: storyID, Body: "First!"}},
			{Comment: models.Comment{ID: topB, StoryID: storyID, Body: "Great pacing."}},
		}
		replies := []models.CommentWithMeta{
			{Comment: models.Comment{ID: uuid.New(), StoryID: storyID, ParentID: &topB, Body: "Agreed."}},
		}

		m.comments.On("ListThreadsByStory", ctx, storyID, (*uuid.UUID)(nil), 20, 0).Return(tops, nil).Once()
		m.comments.On("ListReplies", ctx, []uuid.UUID{topA, topB}).Return(replies, nil).Once()

		threads, err := svc.ListThreads(ctx, storyID, nil, 0, -5)
		require.NoError(t, err)
		require.Len(t, threads, 2)
		assert.Empty(t, threads[0].Replies)
		assert.NotNil(t, threads[0].Replies, "empty reply lists must not be nil")
		require.Len(t, threads[1].Replies, 1)
		assert.Equal(t, "Agreed.", threads[1].Replies[0].Body)
	})

	t.Run("No threads short-circuits the reply lookup", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("ListThreadsByStory", ctx, storyID, (*uuid.UUID)(nil), 20, 0).
			Return([]models.CommentWithMeta{}, nil).Once()

		threads, err := svc.ListThreads(ctx, storyID, nil, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, threads)
		m.comments.AssertNotCalled(t, "ListReplies", mock.Anything, mock.Anything)
	})
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	ownerID := uuid.New()
	storyID := uuid.New()
	commentID := uuid.New()

	comment := &models.Comment{ID: commentID, StoryID: storyID, AuthorID: authorID, Body: "rude remark"}

	t.Run("Author deletes their own comment", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("GetByID", ctx, commentID).Return(comment, nil).Once()
		m.comments.On("SoftDelete", ctx, commentID).Return(nil).Once()

		require.NoError(t, svc.DeleteComment(ctx, authorID, commentID))
		m.stories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Story owner moderates someone else's comment", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("GetByID", ctx, commentID).Return(comment, nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()
		m.comments.On("SoftDelete", ctx, commentID).Return(nil).Once()

		require.NoError(t, svc.DeleteComment(ctx, ownerID, commentID))
		m.comments.AssertExpectations(t)
	})

	t.Run("Unrelated user is forbidden", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("GetByID", ctx, commentID).Return(comment, nil).Once()
		m.stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()

		err := svc.DeleteComment(ctx, uuid.New(), commentID)
		assert.True(t, errors.Is(err, models.ErrForbidden))
		m.comments.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})

	t.Run("Already deleted reads as missing", func(t *testing.T) {
		svc, m := newCommentService(t)

		gone := &models.Comment{ID: commentID, StoryID: storyID, AuthorID: authorID, IsDeleted: true}
		m.comments.On("GetByID", ctx, commentID).Return(gone, nil).Once()

		err := svc.DeleteComment(ctx, authorID, commentID)
		assert.True(t, errors.Is(err, models.ErrCommentNotFound))
	})
}

func TestVoteComment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	commentID := uuid.New()
	live := &models.Comment{ID: commentID, StoryID: uuid.New(), AuthorID: uuid.New(), Body: "hot take"}

	t.Run("Upvote", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("GetByID", ctx, commentID).Return(live, nil).Once()
		m.comments.On("SetVote", ctx, commentID, userID, models.VoteUp).Return(nil).Once()

		require.NoError(t, svc.VoteComment(ctx, userID, commentID, models.VoteUp))
		m.comments.AssertExpectations(t)
	})

	t.Run("Clearing a vote", func(t *testing.T) {
		svc, m := newCommentService(t)

		m.comments.On("GetByID", ctx, commentID).Return(live, nil).Once()
		m.comments.On("SetVote", ctx, commentID, userID, int16(0)).Return(nil).Once()

		require.NoError(t, svc.VoteComment(ctx, userID, commentID, 0))
	})

	t.Run("Out-of-range vote", func(t *testing.T) {
		svc, m := newCommentService(t)

		err := svc.VoteComment(ctx, userID, commentID, 5)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		m.comments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Voting on a deleted comment", func(t *testing.T) {
		svc, m := newCommentService(t)

		gone := &models.Comment{ID: commentID, IsDeleted: true}
		m.comments.On("GetByID", ctx, commentID).Return(gone, nil).Once()

		err := svc.VoteComment(ctx, userID, commentID, models.VoteDown)
		assert.True(t, errors.Is(err, models.ErrCommentNotFound))
		m.comments.AssertNotCalled(t, "SetVote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
