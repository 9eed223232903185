package api

import (
	"github.com/lysyi3m/rss-blend/app/aggregator"
	"github.com/lysyi3m/rss-blend/app/feed"
	"github.com/lysyi3m/rss-blend/app/tasks"
)

type GeneratorInterface interface {
	Run(channel string, items []feed.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// ChannelClient is what the handlers need from the aggregation client.
type ChannelClient interface {
	aggregator.Fetcher
	Feeds(channel string) ([]string, bool)
	Channels() []string
	SetFeeds(channel string, urls []string)
}

var (
	_ ChannelClient = (*aggregator.Client)(nil)
	_ ChannelClient = (*aggregator.CachedClient)(nil)
)

type Handler struct {
	registry  *feed.ChannelRegistry
	client    ChannelClient
	generator GeneratorInterface
	filterer  *feed.Filterer
	scheduler tasks.TaskSchedulerInterface
}

type ChannelInfo struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
	Enabled bool     `json:"enabled"`
	Limit   int      `json:"limit"`
	Warm    bool     `json:"warm"`
	Filters int      `json:"filters"`
	Nodes   int      `json:"nodes"`
}

type ChannelResponse struct {
	Channel string      `json:"channel"`
	Items   []feed.Item `json:"items"`
	Count   int         `json:"count"`
	Found   bool        `json:"found"`
}

type ErrorsResponse struct {
	Errors    []string `json:"errors"`
	HasErrors bool     `json:"has_errors"`
}
