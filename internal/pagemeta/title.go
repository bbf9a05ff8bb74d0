// Package pagemeta fetches a web page and extracts the title to bookmark it under.
package pagemeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// maxPageBytes bounds how much of a page is read looking for a title.
const maxPageBytes = 1 << 20

var ErrNoTitle = errors.New("page has no title")

// FetchTitle downloads pageURL and returns its title.
func FetchTitle(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}

	return ParseTitle(io.LimitReader(resp.Body, maxPageBytes))
}

// ParseTitle returns the og:title meta property if present, else the
// <title> element, with whitespace collapsed.
func ParseTitle(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var title, ogTitle string
	var processNode func(*html.Node)
	processNode = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = textContent(n)
				}
			case "meta":
				if ogTitle == "" && attr(n, "property") == "og:title" {
					ogTitle = attr(n, "content")
				}
			case "svg":
				// <title> inside inline SVG is not the page title.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			processNode(c)
		}
	}
	processNode(doc)

	for _, t := range []string{ogTitle, title} {
		if t = strings.Join(strings.Fields(t), " "); t != "" {
			return t, nil
		}
	}
	return "", ErrNoTitle
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
