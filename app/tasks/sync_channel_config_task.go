package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// SyncChannelConfigTask reloads a channel file and hands the new source list
// to the client.
type SyncChannelConfigTask struct {
	Task
	source ChannelSource
	client ChannelClient
}

func NewSyncChannelConfigTask(channelName string, source ChannelSource, client ChannelClient) *SyncChannelConfigTask {
	return &SyncChannelConfigTask{
		Task:   NewTask(TaskTypeSyncChannelConfig, channelName),
		source: source,
		client: client,
	}
}

func (t *SyncChannelConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	channelConfig, err := t.source.LoadConfig(t.ChannelName)
	if err != nil {
		return fmt.Errorf("failed to reload channel config: %w", err)
	}

	sources := channelConfig.Sources
	if !channelConfig.Settings.IsEnabled() {
		sources = []string{}
	}
	t.client.SetFeeds(t.ChannelName, sources)

	slog.Info("Task completed",
		"type", "SyncChannelConfig",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"sources", len(sources))

	return nil
}
