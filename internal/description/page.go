package description

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ytalbum/internal/services"
)

// maxPageBytes bounds how much of a watch page is read.
const maxPageBytes = 8 << 20

// legacyDescriptionID is the element id that holds the description in the
// server-rendered watch page.
const legacyDescriptionID = "eow-description"

// shortDescriptionPattern finds the description string embedded in the
// player response JSON of current watch pages.
var shortDescriptionPattern = regexp.MustCompile(`"shortDescription":("(?:[^"\\]|\\.)*")`)

// PageSource scrapes the description from the public watch page.
type PageSource struct {
	HTTPClient *http.Client
	UserAgent  string
}

// NewPageSource returns a page source with the given timeout and user agent.
func NewPageSource(timeout time.Duration, userAgent string) PageSource {
	return PageSource{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}
}

func (s PageSource) Name() string { return "page" }

// Fetch downloads the page, following redirects, and extracts the description.
func (s PageSource) Fetch(ctx context.Context, url string) (Description, error) {
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Description{}, services.Wrap(services.ErrValidation, "description", "page", "build request", err)
	}
	if ua := strings.TrimSpace(s.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := client.Do(req)
	if err != nil {
		return Description{}, services.Wrap(services.ErrTransient, "description", "page", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return Description{}, services.Wrap(marker, "description", "page", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Description{}, services.Wrap(services.ErrTransient, "description", "page", "parse html", err)
	}
	desc := ExtractPage(doc)
	desc.Source = s.Name()
	return desc, nil
}

// ExtractPage pulls the description and title out of a parsed watch page.
// The legacy description element wins, then the player response JSON, then
// the description meta tags.
func ExtractPage(doc *html.Node) Description {
	var desc Description
	if node := findByID(doc, legacyDescriptionID); node != nil {
		var b strings.Builder
		writeText(&b, node)
		desc.Text = b.String()
	}
	if desc.Empty() {
		desc.Text = scriptDescription(doc)
	}
	metas := collectMeta(doc)
	if desc.Empty() {
		desc.Text = firstNonEmpty(metas["og:description"], metas["description"])
	}
	desc.Title = firstNonEmpty(metas["og:title"], metas["title"], documentTitle(doc))
	return desc
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// writeText renders element content as plain text. Line breaks become
// newlines and links are unwrapped to their text.
func writeText(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			if c.DataAtom == atom.Br {
				b.WriteByte('\n')
				continue
			}
			writeText(b, c)
		}
	}
}

func scriptDescription(doc *html.Node) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && n.FirstChild != nil {
			if m := shortDescriptionPattern.FindStringSubmatch(n.FirstChild.Data); m != nil {
				var text string
				if err := json.Unmarshal([]byte(m[1]), &text); err == nil {
					found = text
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

func collectMeta(doc *html.Node) map[string]string {
	metas := map[string]string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			key := attr(n, "property")
			if key == "" {
				key = attr(n, "name")
			}
			if key != "" {
				if _, ok := metas[key]; !ok {
					metas[key] = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return metas
}

func documentTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
