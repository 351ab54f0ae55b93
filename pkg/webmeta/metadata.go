package webmeta

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata holds what the page describes about itself. Fields are
// filled layer by layer; an earlier layer always wins.
type Metadata struct {
	Title           string   `json:"title,omitempty"`
	Description     string   `json:"description,omitempty"`
	PreviewImageURL string   `json:"previewImageUrl,omitempty"`
	Author          string   `json:"author,omitempty"`
	SiteName        string   `json:"siteName,omitempty"`
	PublishedTime   string   `json:"publishedTime,omitempty"`
	ModifiedTime    string   `json:"modifiedTime,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// merge fills empty fields of m from other.
func (m *Metadata) merge(other Metadata) {
	if m.Title == "" {
		m.Title = other.Title
	}
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.PreviewImageURL == "" {
		m.PreviewImageURL = other.PreviewImageURL
	}
	if m.Author == "" {
		m.Author = other.Author
	}
	if m.SiteName == "" {
		m.SiteName = other.SiteName
	}
	if m.PublishedTime == "" {
		m.PublishedTime = other.PublishedTime
	}
	if m.ModifiedTime == "" {
		m.ModifiedTime = other.ModifiedTime
	}
	if len(m.Tags) == 0 {
		m.Tags = other.Tags
	}
}

// ParseHTML extracts metadata from an HTML document, merging four
// layers in priority order: Open Graph, Twitter Card, JSON-LD, then
// standard meta tags and the title element.
func ParseHTML(doc *goquery.Document) Metadata {
	var m Metadata
	m.merge(openGraph(doc))
	m.merge(twitterCard(doc))
	m.merge(jsonLD(doc))
	m.merge(standardMeta(doc))
	return m
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func openGraph(doc *goquery.Document) Metadata {
	m := Metadata{
		Title:           metaContent(doc, `meta[property="og:title"]`),
		Description:     metaContent(doc, `meta[property="og:description"]`),
		PreviewImageURL: metaContent(doc, `meta[property="og:image"]`),
		SiteName:        metaContent(doc, `meta[property="og:site_name"]`),
		PublishedTime:   metaContent(doc, `meta[property="article:published_time"]`),
		ModifiedTime:    metaContent(doc, `meta[property="article:modified_time"]`),
		Author:          metaContent(doc, `meta[property="article:author"]`),
	}
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		if tag, _ := s.Attr("content"); strings.TrimSpace(tag) != "" {
			m.Tags = append(m.Tags, strings.TrimSpace(tag))
		}
	})
	return m
}

func twitterCard(doc *goquery.Document) Metadata {
	return Metadata{
		Title:           metaContent(doc, `meta[name="twitter:title"]`),
		Description:     metaContent(doc, `meta[name="twitter:description"]`),
		PreviewImageURL: metaContent(doc, `meta[name="twitter:image"]`),
		Author:          metaContent(doc, `meta[name="twitter:creator"]`),
	}
}

func standardMeta(doc *goquery.Document) Metadata {
	m := Metadata{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: metaContent(doc, `meta[name="description"]`),
		Author:      metaContent(doc, `meta[name="author"]`),
	}
	if keywords := metaContent(doc, `meta[name="keywords"]`); keywords != "" {
		for _, k := range strings.Split(keywords, ",") {
			if k = strings.TrimSpace(k); k != "" {
				m.Tags = append(m.Tags, k)
			}
		}
	}
	return m
}
