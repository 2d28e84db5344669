package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StoreCommits counts batch writes by outcome ("ok" or "error").
	StoreCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_store_commits_total",
			Help: "Record store batch writes by result.",
		},
		[]string{"result"},
	)

	// StoreCommitDuration observes how long a batch write takes.
	StoreCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_store_commit_duration_seconds",
			Help:    "Record store batch write latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LikeToggles counts like toggles by direction ("like" or "unlike").
	LikeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_like_toggles_total",
			Help: "Like toggles by direction.",
		},
		[]string{"direction"},
	)

	// PageViews counts successful GET requests by route template.
	PageViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_page_views_total",
			Help: "Successful content reads by route.",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(StoreCommits, StoreCommitDuration, LikeToggles, PageViews)
}
