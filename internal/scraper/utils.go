package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"cartelera-bot/pkg/httpclient"
)

// fetchDocument 从URL获取并解析HTML文档
func fetchDocument(ctx context.Context, client *httpclient.Client, pageURL string) (*goquery.Document, error) {
	body, err := client.GetBytes(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// joinedText trims every text node under sel and joins the non-empty ones with a
// single space, so "<span>Hoy,</span>\n<span>Viernes</span>" reads "Hoy, Viernes".
func joinedText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// resolveURL resolves href against base; unparsable hrefs are returned unchanged.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// takeUntil returns the leading nodes for which stop is false.
func takeUntil(nodes *goquery.Selection, stop func(*goquery.Selection) bool) []*goquery.Selection {
	var group []*goquery.Selection
	nodes.EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if stop(node) {
			return false
		}
		group = append(group, node)
		return true
	})
	return group
}
