package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a community comment on a story or on a specific chapter.
// Replies reference their top-level parent; threads stay one level deep.
type Comment struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	StoryID   uuid.UUID  `db:"story_id" json:"story_id"`
	ChapterID *uuid.UUID `db:"chapter_id" json:"chapter_id,omitempty"`
	AuthorID  uuid.UUID  `db:"author_id" json:"author_id"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	Body      string     `db:"body" json:"body"`
	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// CommentWithMeta decorates a comment with author info and vote tallies.
type CommentWithMeta struct {
	Comment
	AuthorName string `db:"author_name" json:"author_name"`
	Upvotes    int    `db:"upvotes" json:"upvotes"`
	Downvotes  int    `db:"downvotes" json:"downvotes"`
}

// CommentThread is a top-level comment with its replies in posting order.
type CommentThread struct {
	CommentWithMeta
	Replies []CommentWithMeta `json:"replies"`
}

// Vote values stored in comment_votes.
const (
	VoteUp   int16 = 1
	VoteDown int16 = -1
)
