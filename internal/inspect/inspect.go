// Package inspect produces human-readable summaries of raw responses for the CLI.
// It never alters what the transport client returns.
package inspect

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spexpress/spexpress-go/pkg/httpclient"
)

const (
	maxSnippetBytes  = 512
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// Class buckets a status code.
type Class string

const (
	ClassInformational Class = "informational"
	ClassSuccess       Class = "success"
	ClassRedirect      Class = "redirect"
	ClassClientError   Class = "client_error"
	ClassServerError   Class = "server_error"
	ClassUnknown       Class = "unknown"
)

// Summary describes a response at a glance.
type Summary struct {
	StatusCode int    `json:"status_code"`
	Class      Class  `json:"class"`
	Title      string `json:"title,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
}

// Summarize classifies resp and, for HTML bodies, extracts the page title.
func Summarize(resp httpclient.Response) Summary {
	if resp == nil {
		return Summary{Class: ClassUnknown}
	}
	body := resp.Body()
	s := Summary{
		StatusCode: resp.StatusCode(),
		Class:      Classify(resp.StatusCode()),
		Snippet:    snippet(body),
	}
	if looksLikeHTML(body) {
		s.Title = htmlTitle(body)
	}
	return s
}

// Classify maps a status code to its class.
func Classify(status int) Class {
	switch {
	case status >= 100 && status < 200:
		return ClassInformational
	case status >= 200 && status < 300:
		return ClassSuccess
	case status >= 300 && status < 400:
		return ClassRedirect
	case status >= 400 && status < 500:
		return ClassClientError
	case status >= 500 && status < 600:
		return ClassServerError
	default:
		return ClassUnknown
	}
}

func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<head"))
}

func htmlTitle(body []byte) string {
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if node := doc.Find(`meta[property="og:title"]`).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	return s
}
