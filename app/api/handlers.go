package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-blend/app/aggregator"
	"github.com/lysyi3m/rss-blend/app/cfg"
	"github.com/lysyi3m/rss-blend/app/feed"
	"github.com/lysyi3m/rss-blend/app/tasks"
)

func NewHandler(registry *feed.ChannelRegistry, client ChannelClient, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		registry:  registry,
		client:    client,
		generator: feed.NewGenerator(),
		filterer:  filterer,
		scheduler: scheduler,
	}
}

func (h *Handler) ListChannels(c *gin.Context) {
	names := h.client.Channels()
	configs := h.registry.GetConfigs()

	channels := make([]ChannelInfo, 0, len(names))
	for _, name := range names {
		sources, _ := h.client.Feeds(name)

		info := ChannelInfo{
			Name:    name,
			Sources: sources,
			Enabled: true,
			Limit:   cfg.Get().DefaultLimit,
			Nodes:   h.client.CountNodes(name),
		}

		if channelConfig, ok := configs[name]; ok {
			info.Enabled = channelConfig.Settings.IsEnabled()
			info.Limit = channelConfig.Settings.Limit
			info.Warm = channelConfig.Settings.Warm
			info.Filters = len(channelConfig.Filters)
		}

		channels = append(channels, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"total":    len(channels),
	})
}

func (h *Handler) GetChannel(c *gin.Context) {
	name := c.Param("name")

	items, result, ok := h.fetchChannel(c, name)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ChannelResponse{
		Channel: name,
		Items:   items,
		Count:   len(items),
		Found:   result.Found,
	})
}

func (h *Handler) GetChannelRSS(c *gin.Context) {
	name := c.Param("name")

	items, _, ok := h.fetchChannel(c, name)
	if !ok {
		return
	}

	rss, err := h.generator.Run(name, items)
	if err != nil {
		slog.Error("RSS generation error", "channel", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Channel-Items", strconv.Itoa(len(items)))
	c.Header("X-Channel-Name", name)

	c.String(http.StatusOK, rss)
}

// fetchChannel resolves the request limit, fetches the channel and applies its
// filters. It writes the error response itself and reports false on failure.
func (h *Handler) fetchChannel(c *gin.Context, name string) ([]feed.Item, aggregator.Result, bool) {
	if _, ok := h.client.Feeds(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return nil, aggregator.Result{}, false
	}

	// The default channel may have no file of its own.
	channelConfig, _ := h.registry.GetConfig(name)

	limit := cfg.Get().DefaultLimit
	if channelConfig != nil && channelConfig.Settings.Limit > 0 {
		limit = channelConfig.Settings.Limit
	}

	if value, ok := c.GetQuery("limit"); ok {
		var err error
		limit, err = aggregator.ParseLimit(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, aggregator.Result{}, false
		}
	}

	result, err := h.client.Fetch(c.Request.Context(), name, limit)
	if err != nil {
		if errors.Is(err, aggregator.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, aggregator.Result{}, false
		}

		slog.Error("Channel fetch failed", "channel", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch channel"})
		return nil, aggregator.Result{}, false
	}

	if !result.Found {
		return []feed.Item{}, result, true
	}

	return h.filterer.Run(result.Items, channelConfig), result, true
}

func (h *Handler) GetErrors(c *gin.Context) {
	c.JSON(http.StatusOK, ErrorsResponse{
		Errors:    h.client.Errors(),
		HasErrors: h.client.HasErrors(),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"channels":              len(h.client.Channels()),
		"loaded_configurations": h.registry.GetConfigCount(),
		"has_errors":            h.client.HasErrors(),
	})
}

func (h *Handler) APIReloadChannel(c *gin.Context) {
	name := c.Param("name")

	syncTask := tasks.NewSyncChannelConfigTask(name, h.registry, h.client)
	if err := syncTask.Execute(c.Request.Context()); err != nil {
		slog.Error("Error reloading configuration", "channel", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	channelConfig, err := h.registry.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"success": true,
		"message": "Configuration reloaded successfully",
		"channel": gin.H{
			"name":    name,
			"sources": channelConfig.Sources,
			"enabled": channelConfig.Settings.IsEnabled(),
		},
	}

	if channelConfig.Settings.IsEnabled() && channelConfig.Settings.Warm {
		warmTask := tasks.NewWarmChannelTask(name, channelConfig, h.client)
		if err := h.scheduler.EnqueueTask(warmTask); err != nil {
			slog.Error("Error enqueueing warm task", "channel", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue warm task",
				"details": err.Error(),
			})
			return
		}
		response["tasks"] = []gin.H{{"id": warmTask.ID, "type": warmTask.Type}}
	}

	c.JSON(http.StatusOK, response)
}
