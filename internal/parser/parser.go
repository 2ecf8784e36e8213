package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts anchor links from HTML content and filters them to a domain.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. It follows the HTML5 parsing algorithm browsers use
//  3. It is a standard library extension and well-maintained
type Parser struct {
	// domain is the host links must belong to.
	domain string
}

// NewParser creates a Parser for the given target domain.
func NewParser(domain string) *Parser {
	return &Parser{domain: domain}
}

// Domain returns the domain links are filtered against.
func (p *Parser) Domain() string {
	return p.domain
}

// Parse parses HTML text and returns the same-domain paths it links to.
// Malformed markup never fails: the HTML5 algorithm recovers from it and at
// worst no links are found.
func (p *Parser) Parse(text string) ([]string, error) {
	hrefs, err := ExtractHrefs(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return FilterLinks(hrefs, p.domain), nil
}

// ExtractHrefs returns the raw href attribute of every <a> element in
// document order. Values are trimmed of surrounding whitespace.
func ExtractHrefs(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	hrefs := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				hrefs = append(hrefs, strings.TrimSpace(href))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hrefs, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
