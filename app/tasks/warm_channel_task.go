package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-blend/app/feed"
)

// WarmChannelTask fetches a channel through the client so its cache entry is
// populated before the first request for it.
type WarmChannelTask struct {
	Task
	ChannelConfig *feed.ChannelConfig
	client        ChannelClient
}

func NewWarmChannelTask(channelName string, channelConfig *feed.ChannelConfig, client ChannelClient) *WarmChannelTask {
	return &WarmChannelTask{
		Task:          NewTask(TaskTypeWarmChannel, channelName),
		ChannelConfig: channelConfig,
		client:        client,
	}
}

func (t *WarmChannelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ChannelConfig.Settings.IsEnabled() {
		slog.Debug("Channel disabled, skipping", "channel", t.ChannelName)
		return nil
	}

	result, err := t.client.Fetch(ctx, t.ChannelName, t.ChannelConfig.Settings.Limit)
	if err != nil {
		return fmt.Errorf("failed to fetch channel: %w", err)
	}

	if !result.Found {
		return fmt.Errorf("no items fetched for channel %s", t.ChannelName)
	}

	slog.Info("Task completed",
		"type", "WarmChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"items", len(result.Items))

	return nil
}
