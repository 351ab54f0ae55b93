package webmeta

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLD scans ld+json script blocks for Article-style structured data.
// Blocks can hold a single object, an array, or an @graph; the first
// node that yields a headline or description wins.
func jsonLD(doc *goquery.Document) Metadata {
	var m Metadata
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		for _, node := range flattenLD(raw) {
			candidate := metadataFromLD(node)
			if candidate.Title != "" || candidate.Description != "" {
				m = candidate
				return false
			}
		}
		return true
	})
	return m
}

func flattenLD(raw any) []map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			return flattenLD(graph)
		}
		return []map[string]any{v}
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, flattenLD(item)...)
		}
		return out
	}
	return nil
}

func metadataFromLD(node map[string]any) Metadata {
	m := Metadata{
		Title:         ldString(node["headline"]),
		Description:   ldString(node["description"]),
		PublishedTime: ldString(node["datePublished"]),
		ModifiedTime:  ldString(node["dateModified"]),
	}
	if m.Title == "" {
		m.Title = ldString(node["name"])
	}

	switch kw := node["keywords"].(type) {
	case string:
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				m.Tags = append(m.Tags, k)
			}
		}
	case []any:
		for _, item := range kw {
			if k := ldString(item); k != "" {
				m.Tags = append(m.Tags, k)
			}
		}
	}

	switch img := node["image"].(type) {
	case string:
		m.PreviewImageURL = img
	case map[string]any:
		m.PreviewImageURL = ldString(img["url"])
	case []any:
		if len(img) > 0 {
			m.PreviewImageURL = ldString(img[0])
		}
	}

	switch author := node["author"].(type) {
	case string:
		m.Author = author
	case map[string]any:
		m.Author = ldString(author["name"])
	case []any:
		if len(author) > 0 {
			if first, ok := author[0].(map[string]any); ok {
				m.Author = ldString(first["name"])
			}
		}
	}

	if pub, ok := node["publisher"].(map[string]any); ok {
		m.SiteName = ldString(pub["name"])
	}
	return m
}

func ldString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
