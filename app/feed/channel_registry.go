package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const DefaultChannelLimit = 20

// ChannelRegistry loads channel definitions from <channelsDir>/<name>.yml.
type ChannelRegistry struct {
	channelsDir string
	cache       map[string]*ChannelConfig
	mu          sync.RWMutex
}

func NewChannelRegistry(channelsDir string) *ChannelRegistry {
	return &ChannelRegistry{
		channelsDir: channelsDir,
		cache:       make(map[string]*ChannelConfig),
	}
}

func (cr *ChannelRegistry) Run() error {
	if _, err := os.Stat(cr.channelsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cr.channelsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		channelName := strings.TrimSuffix(filepath.Base(file), ".yml")

		channelConfig, err := cr.LoadConfig(channelName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Channel configuration loaded", "channel", channelName, "sources", len(channelConfig.Sources), "enabled", channelConfig.Settings.IsEnabled())
	}

	return nil
}

func (cr *ChannelRegistry) LoadConfig(channelName string) (*ChannelConfig, error) {
	configFile := cr.getConfigFilePath(channelName)
	channelConfig, err := cr.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	channelConfig.Name = channelName

	if err := cr.validateConfig(channelConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.cache[channelConfig.Name] = channelConfig

	return channelConfig, nil
}

func (cr *ChannelRegistry) GetConfig(channelName string) (*ChannelConfig, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	channelConfig, ok := cr.cache[channelName]
	if !ok {
		return nil, fmt.Errorf("channel config with name '%s' not found", channelName)
	}
	return channelConfig, nil
}

func (cr *ChannelRegistry) GetConfigs() map[string]*ChannelConfig {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	configsCopy := make(map[string]*ChannelConfig, len(cr.cache))
	for k, v := range cr.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cr *ChannelRegistry) GetEnabledConfigs() map[string]*ChannelConfig {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	return lo.PickBy(cr.cache, func(_ string, v *ChannelConfig) bool {
		return v.Settings.IsEnabled()
	})
}

func (cr *ChannelRegistry) GetConfigCount() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return len(cr.cache)
}

// Sources returns the source lists of all enabled channels. The default channel
// is always present, with no sources unless a default.yml defines them.
func (cr *ChannelRegistry) Sources() map[string][]string {
	enabled := cr.GetEnabledConfigs()

	sources := make(map[string][]string, len(enabled)+1)
	sources[DefaultChannel] = []string{}
	for name, channelConfig := range enabled {
		sources[name] = append([]string(nil), channelConfig.Sources...)
	}
	return sources
}

// Names returns the names of all loaded channels in sorted order.
func (cr *ChannelRegistry) Names() []string {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	names := lo.Keys(cr.cache)
	sort.Strings(names)
	return names
}

func (cr *ChannelRegistry) parseConfig(configFile string) (*ChannelConfig, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var channelConfig ChannelConfig
	if err := yaml.Unmarshal(data, &channelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if channelConfig.Settings.Limit == 0 {
		channelConfig.Settings.Limit = DefaultChannelLimit
	}

	return &channelConfig, nil
}

func (cr *ChannelRegistry) validateConfig(channelConfig *ChannelConfig) error {
	if channelConfig == nil {
		return fmt.Errorf("channelConfig is nil")
	}

	if channelConfig.Name == "" {
		return fmt.Errorf("channel name is required")
	}

	if channelConfig.Settings.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	for i, source := range channelConfig.Sources {
		u, err := url.Parse(source)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid source URL at index %d: %s", i, source)
		}
	}

	validFields := map[string]bool{
		"title":       true,
		"description": true,
		"author":      true,
		"link":        true,
		"categories":  true,
	}

	for i, filter := range channelConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

func (cr *ChannelRegistry) getConfigFilePath(channelName string) string {
	return filepath.Join(cr.channelsDir, channelName+".yml")
}
