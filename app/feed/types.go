package feed

import (
	"time"
)

// Feed processing types

// Item is one normalized <item> entry. All text fields hold sanitized values and
// default to "" when the element is absent.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Categories  []string  `json:"categories"`
	Comments    string    `json:"comments"`
	Enclosure   string    `json:"enclosure"` // enclosure url attribute
	GUID        string    `json:"guid"`
	PubDate     string    `json:"pub_date"` // raw pubDate text
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"` // zero when pubDate is missing or unparsable
}

// HasTimestamp reports whether the item carried a usable pubDate.
func (i Item) HasTimestamp() bool {
	return !i.Timestamp.IsZero()
}

// Configuration types

const DefaultChannel = "default"

type ChannelConfig struct {
	Name     string          // Derived from filename (without .yml extension)
	Sources  []string        `yaml:"sources"`
	Settings ChannelSettings `yaml:"settings"`
	Filters  []ConfigFilter  `yaml:"filters"`
}

type ChannelSettings struct {
	Enabled *bool `yaml:"enabled"` // defaults to true when not set
	Limit   int   `yaml:"limit"`   // default item limit for API requests
	Warm    bool  `yaml:"warm"`    // keep the cache warm in the background
}

// IsEnabled returns true unless the channel is explicitly disabled.
func (s ChannelSettings) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
