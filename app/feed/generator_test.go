package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-blend/app/cfg"
)

func setupTestConfig(t *testing.T, baseUrl string) {
	t.Helper()
	cfg.Set(&cfg.Cfg{
		Port:    "8080",
		BaseUrl: baseUrl,
		Version: "test",
	})
	t.Cleanup(func() { cfg.Set(nil) })
}

func TestGenerateRSS(t *testing.T) {
	setupTestConfig(t, "")
	generator := NewGenerator()

	publishedTime := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)

	items := []Item{
		{
			GUID:        "item-1",
			Title:       "Test Item 1",
			Link:        "https://example.com/item1",
			Description: "Test Item 1 Description",
			Author:      "test@example.com (Test Author)",
			Categories:  []string{"Technology", "Programming"},
			Comments:    "https://example.com/item1#comments",
			Enclosure:   "https://example.com/item1.mp3",
			Source:      "Example Org",
			PubDate:     "Mon, 03 Jul 2023 10:00:00 GMT",
			Timestamp:   publishedTime,
		},
		{
			GUID:        "https://example.com/item2",
			Title:       "Test Item 2",
			Link:        "https://example.com/item2",
			Description: "Test Item 2 Description",
			PubDate:     "not a date",
		},
	}

	rss, err := generator.Run("tech", items)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0"`,
		`xmlns:atom="http://www.w3.org/2005/Atom"`,
		"<title>RSS Blend: tech</title>",
		"<link>http://localhost:8080/channels/tech</link>",
		`<atom:link href="http://localhost:8080/channels/tech/rss" rel="self" type="application/rss+xml" />`,
		"<generator>RSS-Blend/test</generator>",
		"<lastBuildDate>" + publishedTime.In(time.Local).Format(time.RFC1123Z) + "</lastBuildDate>",
		"<title>Test Item 1</title>",
		"<link>https://example.com/item1</link>",
		`<guid isPermaLink="false">item-1</guid>`,
		"<description>Test Item 1 Description</description>",
		"<author>test@example.com (Test Author)</author>",
		"<category>Technology</category>",
		"<category>Programming</category>",
		"<comments>https://example.com/item1#comments</comments>",
		`<enclosure url="https://example.com/item1.mp3" length="0" type="audio/mpeg" />`,
		"<source>Example Org</source>",
		"<pubDate>" + publishedTime.In(time.Local).Format(time.RFC1123Z) + "</pubDate>",
		`<guid isPermaLink="true">https://example.com/item2</guid>`,
		"<pubDate>not a date</pubDate>",
		"</channel>",
		"</rss>",
	}

	for _, fragment := range expected {
		if !strings.Contains(rss, fragment) {
			t.Errorf("RSS should contain %s", fragment)
		}
	}

	if strings.Index(rss, "Test Item 1") > strings.Index(rss, "Test Item 2") {
		t.Error("Items should keep their order")
	}
}

func TestGenerateWithBaseUrl(t *testing.T) {
	setupTestConfig(t, "https://feeds.example.com/")
	generator := NewGenerator()

	rss, err := generator.Run("news", []Item{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<atom:link href="https://feeds.example.com/channels/news/rss" rel="self" type="application/rss+xml" />`) {
		t.Error("RSS should use the configured base URL for atom:link")
	}
}

func TestGenerateWithSpecialCharacters(t *testing.T) {
	setupTestConfig(t, "")
	generator := NewGenerator()

	items := []Item{
		{
			GUID:        "special-item",
			Title:       "Item with <tags> & \"quotes\"",
			Description: "Description with <em>emphasis</em>",
			Author:      "Author with <brackets>",
			Categories:  []string{"Category & Ampersand"},
			Enclosure:   "https://example.com/a.mp3?x=1&y=2",
		},
	}

	rss, err := generator.Run("special", items)
	if err != nil {
		t.Fatalf("Expected no error with special characters, got: %v", err)
	}

	for _, fragment := range []string{
		"Item with &lt;tags&gt; &amp; &#34;quotes&#34;",
		"Description with &lt;em&gt;emphasis&lt;/em&gt;",
		"Author with &lt;brackets&gt;",
		"Category &amp; Ampersand",
		`url="https://example.com/a.mp3?x=1&amp;y=2"`,
	} {
		if !strings.Contains(rss, fragment) {
			t.Errorf("RSS should contain escaped %s", fragment)
		}
	}
}

func TestGenerateWithEmptyItems(t *testing.T) {
	setupTestConfig(t, "")
	generator := NewGenerator()

	rss, err := generator.Run("empty", nil)
	if err != nil {
		t.Fatalf("Expected no error with empty items, got: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Empty items RSS should not contain any items")
	}
	if !strings.Contains(rss, "<title>RSS Blend: empty</title>") {
		t.Error("Empty items RSS should contain channel title")
	}
}

func TestGenerateMinimalItem(t *testing.T) {
	setupTestConfig(t, "")
	generator := NewGenerator()

	rss, err := generator.Run("minimal", []Item{{Title: "Minimal Item"}})
	if err != nil {
		t.Fatalf("Expected no error with minimal data, got: %v", err)
	}

	itemSection := rss[strings.Index(rss, "<item>"):]
	for _, tag := range []string{"<guid", "<link>", "<pubDate>", "<enclosure", "<author>"} {
		if strings.Contains(itemSection, tag) {
			t.Errorf("Minimal item should not contain %s", tag)
		}
	}
}

func TestIsURLMethod(t *testing.T) {
	generator := NewGenerator()

	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"http://example.com", true},
		{"https://example.com", true},
		{"ftp://example.com", false},
		{"not-a-url", false},
		{"http://", false},
		{"https://", false},
		{"mailto:test@example.com", false},
	}

	for _, test := range tests {
		result := generator.isURL(test.input)
		if result != test.expected {
			t.Errorf("For input '%s', expected %v, got %v", test.input, test.expected, result)
		}
	}
}

func TestEnclosureType(t *testing.T) {
	generator := NewGenerator()

	tests := map[string]string{
		"https://example.com/a.mp3":      "audio/mpeg",
		"https://example.com/A.MP4?t=1":  "video/mp4",
		"https://example.com/cover.jpeg": "image/jpeg",
		"https://example.com/download":   "application/octet-stream",
	}

	for url, expected := range tests {
		if result := generator.enclosureType(url); result != expected {
			t.Errorf("For '%s', expected %s, got %s", url, expected, result)
		}
	}
}
