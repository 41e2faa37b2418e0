package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fictures_auth_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fictures_auth_logins_total",
			Help: "Total number of login attempts by status.",
		},
		[]string{"status"},
	)

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fictures_auth_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	storiesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fictures_stories_published_total",
		Help: "Total number of stories published over the API.",
	})

	chaptersPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fictures_chapters_published_total",
		Help: "Total number of chapters published directly over the API.",
	})

	commentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fictures_comments_created_total",
			Help: "Total number of comments created, split into top-level comments and replies.",
		},
		[]string{"kind"},
	)

	sseStreamsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fictures_sse_streams_total",
		Help: "Total number of SSE stream connections opened.",
	})
)
