package feed

import (
	"bytes"
	"errors"
	"html"
	"strings"

	"github.com/mmcdole/gofeed/rss"
	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

const (
	cdataStart = "<![CDATA["
	cdataEnd   = "]]>"
)

// repeatedElements holds, for one <item>, the first occurrence of every
// single-value element that appears more than once. gofeed keeps the last one.
type repeatedElements struct {
	first rss.Item
	tags  map[string]bool
}

func (r repeatedElements) has(tag string) bool {
	return r.tags[strings.ToLower(tag)]
}

// scanRepeatedElements walks the document with the pull parser gofeed is built
// on and returns one entry per <item>, in document order.
func scanRepeatedElements(data []byte) ([]repeatedElements, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), false, charset.NewReaderLabel)

	var items []repeatedElements
	for {
		event, err := p.Next()
		if err != nil {
			return nil, err
		}

		switch {
		case event == xpp.EndDocument:
			return items, nil
		case event == xpp.StartTag && strings.ToLower(p.Name) == "item":
			item, err := scanItem(p)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
}

func scanItem(p *xpp.XMLPullParser) (repeatedElements, error) {
	itemSpace := p.Space
	seen := make(map[string]int)
	result := repeatedElements{tags: make(map[string]bool)}

	for {
		event, err := p.Next()
		if err != nil {
			return result, err
		}

		switch event {
		case xpp.EndDocument:
			return result, errors.New("unexpected end of document inside item")
		case xpp.EndTag:
			return result, nil
		case xpp.StartTag:
			tag := strings.ToLower(p.Name)

			// Namespaced elements are extensions, not item properties.
			if p.Space != "" && p.Space != itemSpace {
				if err := p.Skip(); err != nil {
					return result, err
				}
				continue
			}

			switch tag {
			case "title", "link", "description", "author", "comments", "guid", "pubdate", "source":
			default:
				if err := p.Skip(); err != nil {
					return result, err
				}
				continue
			}

			sourceURL := p.Attribute("url")
			text, err := readElementText(p)
			if err != nil {
				return result, err
			}

			seen[tag]++
			if seen[tag] > 1 {
				result.tags[tag] = true
				continue
			}
			setFirst(&result.first, tag, text, sourceURL)
		}
	}
}

func setFirst(item *rss.Item, tag, text, sourceURL string) {
	switch tag {
	case "title":
		item.Title = text
	case "link":
		item.Link = text
	case "description":
		item.Description = text
	case "author":
		item.Author = text
	case "comments":
		item.Comments = text
	case "guid":
		item.GUID = &rss.GUID{Value: text}
	case "pubdate":
		item.PubDate = text
	case "source":
		item.Source = &rss.Source{URL: sourceURL, Title: text}
	}
}

// readElementText decodes an element the way gofeed reads text properties:
// inner XML, trimmed, with CDATA sections unwrapped and entities decoded.
func readElementText(p *xpp.XMLPullParser) (string, error) {
	var text struct {
		InnerXML string `xml:",innerxml"`
	}
	if err := p.DecodeElement(&text); err != nil {
		return "", err
	}

	result := strings.TrimSpace(text.InnerXML)
	if !strings.Contains(result, cdataStart) {
		return html.UnescapeString(result), nil
	}

	var b strings.Builder
	for result != "" {
		start := strings.Index(result, cdataStart)
		if start == -1 {
			b.WriteString(html.UnescapeString(result))
			break
		}
		b.WriteString(html.UnescapeString(result[:start]))
		result = result[start+len(cdataStart):]

		end := strings.Index(result, cdataEnd)
		if end == -1 {
			b.WriteString(result)
			break
		}
		b.WriteString(result[:end])
		result = result[end+len(cdataEnd):]
	}
	return b.String(), nil
}
