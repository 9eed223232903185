package cache

import (
	"context"

	"github.com/lysyi3m/rss-blend/app/feed"
)

var _ Store = NopStore{}

// NopStore never holds anything; every lookup is a miss.
type NopStore struct{}

func (NopStore) Has(context.Context, string) (bool, error) {
	return false, nil
}

func (NopStore) Get(context.Context, string) ([]feed.Item, bool, error) {
	return nil, false, nil
}

func (NopStore) Set(context.Context, string, []feed.Item) error {
	return nil
}

func (NopStore) Close() error {
	return nil
}
