package feed

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
)

var errEnclosureURL = errors.New("enclosure has no url attribute")

type Parser struct {
	rssParser *rss.Parser
	sanitizer Sanitizer
}

func NewParser(sanitizer Sanitizer) *Parser {
	if sanitizer == nil {
		sanitizer = NewHTMLSanitizer()
	}

	return &Parser{
		rssParser: &rss.Parser{},
		sanitizer: sanitizer,
	}
}

// Run maps every <item> of an RSS document to an Item, in document order.
// A document that cannot be parsed yields no items and a single error; a
// property that cannot be read yields an error and an empty value while the
// item itself is still produced. When an element is repeated inside an item,
// its first occurrence wins.
func (p *Parser) Run(data []byte) ([]Item, []error) {
	doc, err := p.rssParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, []error{fmt.Errorf("failed to parse feed: %w", err)}
	}

	repeated, err := scanRepeatedElements(data)
	if err != nil || len(repeated) != len(doc.Items) {
		repeated = nil
	}

	var errs []error
	items := make([]Item, 0, len(doc.Items))
	for i, raw := range doc.Items {
		if raw == nil {
			continue
		}

		var itemRepeated repeatedElements
		if repeated != nil {
			itemRepeated = repeated[i]
		}

		item, itemErrs := p.normalizeItem(raw, itemRepeated)
		for _, itemErr := range itemErrs {
			errs = append(errs, fmt.Errorf("item %d: %w", i, itemErr))
		}
		items = append(items, item)
	}

	return items, errs
}

type itemProperty struct {
	name  string
	read  func(*rss.Item) (string, error)
	store func(*Item, string)
}

var itemProperties = []itemProperty{
	{"title", func(r *rss.Item) (string, error) { return r.Title, nil }, func(i *Item, v string) { i.Title = v }},
	{"link", func(r *rss.Item) (string, error) { return r.Link, nil }, func(i *Item, v string) { i.Link = v }},
	{"description", func(r *rss.Item) (string, error) { return r.Description, nil }, func(i *Item, v string) { i.Description = v }},
	{"author", readAuthor, func(i *Item, v string) { i.Author = v }},
	{"comments", func(r *rss.Item) (string, error) { return r.Comments, nil }, func(i *Item, v string) { i.Comments = v }},
	{"enclosure", readEnclosure, func(i *Item, v string) { i.Enclosure = v }},
	{"guid", readGUID, func(i *Item, v string) { i.GUID = v }},
	{"pubDate", func(r *rss.Item) (string, error) { return r.PubDate, nil }, func(i *Item, v string) { i.PubDate = v }},
	{"source", readSource, func(i *Item, v string) { i.Source = v }},
}

func (p *Parser) normalizeItem(raw *rss.Item, repeated repeatedElements) (Item, []error) {
	var errs []error
	item := Item{
		Categories: make([]string, 0, len(raw.Categories)),
	}

	for _, prop := range itemProperties {
		source := raw
		if repeated.has(prop.name) {
			source = &repeated.first
		}

		value, err := prop.read(source)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", prop.name, err))
			value = ""
		}
		prop.store(&item, p.sanitizer.Clean(value))
	}

	for _, category := range raw.Categories {
		if category == nil {
			continue
		}
		item.Categories = append(item.Categories, p.sanitizer.Clean(category.Value))
	}

	pubDateParsed := raw.PubDateParsed
	if repeated.has("pubDate") {
		pubDateParsed = p.parseDate(repeated.first.PubDate)
	}
	if pubDateParsed != nil {
		item.Timestamp = *pubDateParsed
	}

	return item, errs
}

func readAuthor(r *rss.Item) (string, error) {
	if r.Author != "" {
		return r.Author, nil
	}
	if r.DublinCoreExt != nil && len(r.DublinCoreExt.Creator) > 0 {
		return r.DublinCoreExt.Creator[0], nil
	}
	return "", nil
}

func readEnclosure(r *rss.Item) (string, error) {
	enclosure := r.Enclosure
	if len(r.Enclosures) > 0 {
		enclosure = r.Enclosures[0]
	}

	if enclosure == nil {
		return "", nil
	}
	if enclosure.URL == "" {
		return "", errEnclosureURL
	}
	return enclosure.URL, nil
}

func readGUID(r *rss.Item) (string, error) {
	if r.GUID == nil {
		return "", nil
	}
	return r.GUID.Value, nil
}

func readSource(r *rss.Item) (string, error) {
	if r.Source == nil {
		return "", nil
	}
	return r.Source.Title, nil
}

// parseDate runs a single pubDate value through the RSS parser, which keeps its
// date layouts unexported.
func (p *Parser) parseDate(value string) *time.Time {
	doc := "<rss version=\"2.0\"><channel><item><pubDate>" + html.EscapeString(value) + "</pubDate></item></channel></rss>"

	parsed, err := p.rssParser.Parse(strings.NewReader(doc))
	if err != nil || len(parsed.Items) == 0 {
		return nil
	}
	return parsed.Items[0].PubDateParsed
}
