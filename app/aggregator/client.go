package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/rss-blend/app/feed"
	"github.com/lysyi3m/rss-blend/app/metrics"
	"github.com/lysyi3m/rss-blend/app/transport"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCacheNotSet     = errors.New("cache not set")
)

// Result is the outcome of a channel fetch. Found is false when no source
// produced any item, which is distinct from a fetch that returned items.
type Result struct {
	Items []feed.Item `json:"items"`
	Found bool        `json:"found"`
}

// Fetcher is the operation shared by Client and CachedClient.
type Fetcher interface {
	Fetch(ctx context.Context, channel string, limit int) (Result, error)
	Errors() []string
	HasErrors() bool
	CountNodes(channel string) int
}

var (
	_ Fetcher = (*Client)(nil)
	_ Fetcher = (*CachedClient)(nil)
)

// Client fetches every source of a channel, merges their items and orders them
// by timestamp, newest first. Per-source failures are recorded in the error log
// and never abort a fetch.
type Client struct {
	transport transport.Transport
	parser    *feed.Parser

	feeds       map[string][]string
	counts      map[string]int
	headers     map[string]string
	concurrency int
	mu          sync.RWMutex

	errors []string
	errMu  sync.Mutex
}

func NewClient(tr transport.Transport, sanitizer feed.Sanitizer) *Client {
	return &Client{
		transport:   tr,
		parser:      feed.NewParser(sanitizer),
		concurrency: 1,
		feeds:       map[string][]string{feed.DefaultChannel: {}},
		counts:      make(map[string]int),
	}
}

// SetFeeds registers (or replaces) the ordered source list of a channel.
func (c *Client) SetFeeds(channel string, urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds[channel] = append([]string{}, urls...)
}

// SetChannels replaces every registered channel. The default channel stays
// registered even when the map does not mention it.
func (c *Client) SetChannels(channels map[string][]string) {
	feeds := make(map[string][]string, len(channels)+1)
	feeds[feed.DefaultChannel] = []string{}
	for channel, urls := range channels {
		feeds[channel] = append([]string{}, urls...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds = feeds
}

// Feeds returns a copy of the source list of a channel and whether it is registered.
func (c *Client) Feeds(channel string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls, ok := c.feeds[channel]
	if !ok {
		return nil, false
	}
	return append([]string{}, urls...), true
}

// Channels returns the registered channel names in sorted order.
func (c *Client) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.feeds))
	for name := range c.feeds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetConcurrency bounds how many sources of one channel are fetched at once.
func (c *Client) SetConcurrency(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.concurrency = max(n, 1)
}

// SetHeaders sets extra request headers passed to the transport on every fetch.
// They override the transport's defaults, such as User-Agent.
func (c *Client) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = maps.Clone(headers)
}

type sourceResult struct {
	items []feed.Item
	errs  []sourceError
}

type sourceError struct {
	kind string
	err  error
}

func (c *Client) Fetch(ctx context.Context, channel string, limit int) (Result, error) {
	sources, err := c.validate(channel, limit)
	if err != nil {
		return Result{}, err
	}

	c.mu.RLock()
	headers, concurrency := c.headers, c.concurrency
	c.mu.RUnlock()

	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, source := range sources {
		g.Go(func() error {
			results[i] = c.fetchSource(ctx, source, headers)
			return nil
		})
	}
	g.Wait()

	// Merge in configured order so items and error log match a sequential run.
	var items []feed.Item
	for i, result := range results {
		for _, sourceErr := range result.errs {
			c.addError(sourceErr.kind, sourceErr.err)
			slog.Warn("Source failed", "channel", channel, "url", sources[i], "kind", sourceErr.kind, "error", sourceErr.err)
		}
		items = append(items, result.items...)
	}

	slices.SortStableFunc(items, func(a, b feed.Item) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	c.mu.Lock()
	c.counts[channel] = len(items)
	c.mu.Unlock()

	if len(items) == 0 {
		c.addError("", fmt.Errorf("no nodes found in channel %s", channel))
		metrics.ChannelFetches.WithLabelValues(channel, "empty").Inc()
		return Result{Found: false}, nil
	}

	metrics.ChannelFetches.WithLabelValues(channel, "found").Inc()
	slog.Debug("Channel fetched", "channel", channel, "sources", len(sources), "items", len(items), "limit", limit)

	return Result{
		Items: slices.Clone(items[:min(limit, len(items))]),
		Found: true,
	}, nil
}

func (c *Client) validate(channel string, limit int) ([]string, error) {
	sources, ok := c.Feeds(channel)
	if !ok {
		return nil, fmt.Errorf("%w: channel not valid (%s)", ErrInvalidArgument, channel)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit not valid (%d)", ErrInvalidArgument, limit)
	}
	return sources, nil
}

func (c *Client) fetchSource(ctx context.Context, url string, headers map[string]string) sourceResult {
	if err := ctx.Err(); err != nil {
		return sourceResult{errs: []sourceError{{metrics.FailureTransport, fmt.Errorf("failed to fetch %s: %w", url, err)}}}
	}

	start := time.Now()
	body, err := c.transport.Get(ctx, url, headers)
	metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return sourceResult{errs: []sourceError{{metrics.FailureTransport, fmt.Errorf("failed to fetch %s: %w", url, err)}}}
	}

	items, parseErrs := c.parser.Run(body)

	result := sourceResult{items: items}
	for _, parseErr := range parseErrs {
		result.errs = append(result.errs, sourceError{metrics.FailureParse, fmt.Errorf("%s: %w", url, parseErr)})
	}
	return result
}

func (c *Client) addError(kind string, err error) {
	if kind != "" {
		metrics.SourceFailures.WithLabelValues(kind).Inc()
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.errors = append(c.errors, err.Error())
}

// Errors returns a copy of every soft failure recorded since the client was created.
func (c *Client) Errors() []string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return append([]string{}, c.errors...)
}

func (c *Client) HasErrors() bool {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return len(c.errors) > 0
}

// CountNodes returns how many items the last fetch of the channel accumulated
// before truncation, or zero if it was never fetched.
func (c *Client) CountNodes(channel string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[channel]
}

// ParseLimit coerces a request value into a fetch limit.
func ParseLimit(value string) (int, error) {
	limit, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: limit not valid (%s)", ErrInvalidArgument, value)
	}
	return limit, nil
}
