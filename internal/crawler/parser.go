package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parser extracts anchor links from listing pages.
// Only href values of <a> elements matter; the rest of the DOM is ignored.
type Parser struct {
	// baseURL is the final URL of the page, used to resolve relative hrefs.
	baseURL *url.URL
}

// NewParser creates a Parser that resolves links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Parser{baseURL: u}, nil
}

// Links returns the absolute URL of every <a href> in document order.
// Duplicates are kept; hrefs that cannot be parsed are dropped.
func (p *Parser) Links(content io.Reader) ([]string, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	links := make([]string, 0)
	goquery.NewDocumentFromNode(root).Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := p.resolveURL(href); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

// resolveURL resolves href against the base URL.
// Escapes already present in href are kept as written. Characters that are
// not valid in a URL path, such as spaces, come back percent-encoded.
// Empty and unparsable hrefs resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}
