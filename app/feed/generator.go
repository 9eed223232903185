package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-blend/app/cfg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the merged items of a channel as an RSS 2.0 document.
func (g *Generator) Run(channel string, items []Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	selfLink := g.channelURL(channel)

	g.writeElement(&buf, "title", fmt.Sprintf("RSS Blend: %s", channel), 4)
	g.writeElement(&buf, "link", selfLink, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Items aggregated from the sources of channel %s", channel), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s/rss\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 && items[0].HasTimestamp() {
		lastBuildDate = items[0].Timestamp.In(time.Local)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Blend/%s", cfg.Get().Version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) channelURL(channel string) string {
	if cfg.Get().BaseUrl != "" {
		return fmt.Sprintf("%s/channels/%s", strings.TrimRight(cfg.Get().BaseUrl, "/"), channel)
	}
	return fmt.Sprintf("http://localhost:%s/channels/%s", cfg.Get().Port, channel)
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", item.Description, 6)

	if item.HasTimestamp() {
		g.writeElement(buf, "pubDate", item.Timestamp.In(time.Local).Format(time.RFC1123Z), 6)
	} else {
		g.writeElement(buf, "pubDate", item.PubDate, 6)
	}

	g.writeElement(buf, "author", item.Author, 6)
	g.writeElement(buf, "comments", item.Comments, 6)

	for _, category := range item.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	if item.Enclosure != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.Enclosure),
			html.EscapeString(g.enclosureType(item.Enclosure))))
	}

	g.writeElement(buf, "source", item.Source, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}

// enclosureType guesses the MIME type from the URL extension, since only the
// url attribute is kept on Item.
func (g *Generator) enclosureType(url string) string {
	path := strings.ToLower(url)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasSuffix(path, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(path, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(path, ".ogg"):
		return "audio/ogg"
	case strings.HasSuffix(path, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
