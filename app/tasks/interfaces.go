package tasks

import (
	"context"

	"github.com/lysyi3m/rss-blend/app/aggregator"
	"github.com/lysyi3m/rss-blend/app/feed"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(registry, client)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewWarmChannelTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// ChannelClient is the part of the aggregation client the tasks drive.
type ChannelClient interface {
	Fetch(ctx context.Context, channel string, limit int) (aggregator.Result, error)
	SetFeeds(channel string, urls []string)
}

// ChannelSource resolves channel configurations.
type ChannelSource interface {
	LoadConfig(channelName string) (*feed.ChannelConfig, error)
	GetEnabledConfigs() map[string]*feed.ChannelConfig
}

var (
	_ ChannelClient = (*aggregator.Client)(nil)
	_ ChannelClient = (*aggregator.CachedClient)(nil)
	_ ChannelSource = (*feed.ChannelRegistry)(nil)
)
