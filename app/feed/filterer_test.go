package feed

import (
	"strings"
	"testing"
)

func TestFiltererNoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Test Item 1", Description: "Test description"},
		{Title: "Test Item 2", Description: "Another description"},
	}

	result := filterer.Run(items, &ChannelConfig{Filters: []ConfigFilter{}})
	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}

	result = filterer.Run(items, nil)
	if len(result) != 2 {
		t.Errorf("Expected 2 items without channel config, got %d", len(result))
	}
}

func TestFiltererTitleInclude(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Breaking News: Important Update"},
		{Title: "Sports Update"},
		{Title: "Weather Report"},
	}

	channelConfig := &ChannelConfig{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"news", "update"}},
		},
	}

	result := filterer.Run(items, channelConfig)
	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if result[0].Title != "Breaking News: Important Update" || result[1].Title != "Sports Update" {
		t.Errorf("Expected matching items in original order, got %v", result)
	}
}

func TestFiltererExcludeWins(t *testing.T) {
	filterer := NewFilterer()

	filters := []ConfigFilter{
		{Field: "title", Includes: []string{"golang"}, Excludes: []string{"sponsored"}},
	}

	isFiltered, reason := filterer.Check(Item{Title: "Golang tips (Sponsored)"}, filters)
	if !isFiltered {
		t.Error("Expected item to be filtered by exclude rule")
	}
	if !strings.Contains(reason, "sponsored") {
		t.Errorf("Expected reason to name the exclude term, got: %s", reason)
	}

	isFiltered, reason = filterer.Check(Item{Title: "Golang tips"}, filters)
	if isFiltered {
		t.Errorf("Expected item to pass, got reason: %s", reason)
	}
}

func TestFiltererFields(t *testing.T) {
	filterer := NewFilterer()

	item := Item{
		Title:       "Title",
		Description: "A long description",
		Author:      "Jane Doe",
		Link:        "https://example.com/post",
		Categories:  []string{"Go", "Databases"},
	}

	tests := []struct {
		field   string
		pattern string
	}{
		{"title", "title"},
		{"description", "long"},
		{"author", "jane"},
		{"link", "example.com"},
		{"categories", "databases"},
	}

	for _, tt := range tests {
		filters := []ConfigFilter{{Field: tt.field, Includes: []string{tt.pattern}}}
		if isFiltered, reason := filterer.Check(item, filters); isFiltered {
			t.Errorf("Expected %s include '%s' to match, got: %s", tt.field, tt.pattern, reason)
		}

		filters = []ConfigFilter{{Field: tt.field, Excludes: []string{tt.pattern}}}
		if isFiltered, _ := filterer.Check(item, filters); !isFiltered {
			t.Errorf("Expected %s exclude '%s' to reject the item", tt.field, tt.pattern)
		}
	}
}

func TestFiltererMultipleFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Go release", Author: "team"},
		{Title: "Go release", Author: "spammer"},
		{Title: "Rust release", Author: "team"},
	}

	channelConfig := &ChannelConfig{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"go"}},
			{Field: "author", Excludes: []string{"spam"}},
		},
	}

	result := filterer.Run(items, channelConfig)
	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Author != "team" || result[0].Title != "Go release" {
		t.Errorf("Unexpected item kept: %+v", result[0])
	}
}
