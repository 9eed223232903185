package aggregator

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/lysyi3m/rss-blend/app/transport"
)

// fakeTransport serves fixed bodies per URL and counts requests.
type fakeTransport struct {
	bodies  map[string]string
	errs    map[string]error
	calls   map[string]int
	headers map[string]map[string]string // last headers seen per URL
	gate    chan struct{}                // when set, every Get waits for it to close
	mu      sync.Mutex
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		bodies:  make(map[string]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		headers: make(map[string]map[string]string),
	}
}

func (f *fakeTransport) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	f.headers[url] = maps.Clone(headers)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, &transport.StatusError{URL: url, StatusCode: 404}
	}
	return []byte(body), nil
}

func (f *fakeTransport) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type testItem struct {
	title   string
	pubDate string
}

func rssDoc(items ...testItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for _, item := range items {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title>", item.title)
		if item.pubDate != "" {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", item.pubDate)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

func titles(result Result) []string {
	out := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		out = append(out, item.Title)
	}
	return out
}
