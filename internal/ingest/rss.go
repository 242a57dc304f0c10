package ingest

import (
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// FeedEntry is one normalized item from an RSS or Atom feed
type FeedEntry struct {
	Title   string
	Link    string
	Summary string
}

// rssDocument covers RSS 2.0
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

// atomDocument covers Atom 1.0
type atomDocument struct {
	XMLName xml.Name `xml:"feed"`
	Title   string   `xml:"title"`
	Entries []struct {
		Title   string `xml:"title"`
		Links   []atomLink
		Summary string `xml:"summary"`
		Content string `xml:"content"`
	} `xml:"entry"`
}

type atomLink struct {
	XMLName xml.Name `xml:"link"`
	Rel     string   `xml:"rel,attr"`
	Href    string   `xml:"href,attr"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ParseFeed parses RSS 2.0 or Atom XML into normalized entries, returning the
// feed title as well. At most maxEntries items are returned.
func ParseFeed(data []byte, maxEntries int) (string, []FeedEntry, error) {
	if maxEntries <= 0 {
		maxEntries = 10
	}

	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil && rss.XMLName.Local == "rss" {
		entries := make([]FeedEntry, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			entries = append(entries, FeedEntry{
				Title:   strings.TrimSpace(item.Title),
				Link:    strings.TrimSpace(item.Link),
				Summary: stripMarkup(item.Description),
			})
			if len(entries) >= maxEntries {
				break
			}
		}
		return strings.TrimSpace(rss.Channel.Title), entries, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(data, &atom); err == nil && atom.XMLName.Local == "feed" {
		entries := make([]FeedEntry, 0, len(atom.Entries))
		for _, entry := range atom.Entries {
			summary := entry.Summary
			if summary == "" {
				summary = entry.Content
			}
			entries = append(entries, FeedEntry{
				Title:   strings.TrimSpace(entry.Title),
				Link:    pickAtomLink(entry.Links),
				Summary: stripMarkup(summary),
			})
			if len(entries) >= maxEntries {
				break
			}
		}
		return strings.TrimSpace(atom.Title), entries, nil
	}

	return "", nil, fmt.Errorf("unrecognized feed format")
}

// pickAtomLink prefers the alternate link, falling back to the first
func pickAtomLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

// stripMarkup removes HTML tags and entities from feed summaries
func stripMarkup(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
