package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	FailureTransport = "transport"
	FailureParse     = "parse"
	FailureCache     = "cache"
)

var (
	ChannelFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_blend_channel_fetches_total",
		Help: "The total number of channel fetches by outcome",
	}, []string{"channel", "outcome"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_blend_source_failures_total",
		Help: "The total number of soft failures recorded in the error log",
	}, []string{"kind"})

	SourceFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rss_blend_source_fetch_duration_seconds",
		Help:    "Duration of single source requests",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms up to ~20s
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_blend_cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})
)
