package models

import "encoding/json"

// Community event types delivered over the SSE stream. The value is also the
// SSE event name clients subscribe to with addEventListener.
const (
	EventTypeStoryPublished      = "story-published"
	EventTypeChapterPublished    = "chapter-published"
	EventTypeCommentCreated      = "social-comment-created"
	EventTypeCommentReplied      = "social-comment-replied"
	EventTypeStoryLiked          = "social-story-liked"
	EventTypeGenerationCompleted = "generation-completed"
	EventTypeGenerationFailed    = "generation-failed"
)

// Redis Pub/Sub channels. Every publisher and the SSE hub agree on this
// fixed set; the channel for an event follows from its type.
const (
	ChannelStoryEvents      = "fictures:events:story"
	ChannelSocialEvents     = "fictures:events:social"
	ChannelGenerationEvents = "fictures:events:generation"
)

// Event is the envelope published to Redis. Data is kept as raw JSON so the
// SSE layer can forward it to clients byte for byte.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ChannelForEvent returns the Redis channel an event type is published on.
func ChannelForEvent(eventType string) string {
	switch eventType {
	case EventTypeStoryPublished, EventTypeChapterPublished:
		return ChannelStoryEvents
	case EventTypeGenerationCompleted, EventTypeGenerationFailed:
		return ChannelGenerationEvents
	default:
		return ChannelSocialEvents
	}
}

// AllEventChannels lists every channel the SSE hub subscribes to.
func AllEventChannels() []string {
	return []string{ChannelStoryEvents, ChannelSocialEvents, ChannelGenerationEvents}
}

// StoryPublishedEvent is the payload for story-published.
type StoryPublishedEvent struct {
	StoryID    string `json:"story_id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
}

// ChapterPublishedEvent is the payload for chapter-published.
type ChapterPublishedEvent struct {
	StoryID   string `json:"story_id"`
	ChapterID string `json:"chapter_id"`
	Title     string `json:"title"`
	Scheduled bool   `json:"scheduled,omitempty"`
}

// CommentCreatedEvent is the payload for social-comment-created and
// social-comment-replied.
type CommentCreatedEvent struct {
	CommentID string `json:"comment_id"`
	StoryID   string `json:"story_id"`
	ChapterID string `json:"chapter_id,omitempty"`
	AuthorID  string `json:"author_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Preview   string `json:"preview"`
}

// StoryLikedEvent is the payload for social-story-liked.
type StoryLikedEvent struct {
	StoryID   string `json:"story_id"`
	UserID    string `json:"user_id"`
	LikeCount int    `json:"like_count"`
}

// GenerationEvent is the payload for generation-completed and
// generation-failed.
type GenerationEvent struct {
	TaskID  string `json:"task_id"`
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	StoryID string `json:"story_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
