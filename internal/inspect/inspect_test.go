package inspect

import (
	"strings"
	"testing"
)

type stubResponse struct {
	status int
	body   []byte
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }

func TestSummarizeHTMLErrorPage(t *testing.T) {
	html := `<!DOCTYPE html>
<html><head><title> 502 Bad Gateway </title></head><body>nginx</body></html>`
	s := Summarize(stubResponse{status: 502, body: []byte(html)})
	if s.Class != ClassServerError {
		t.Fatalf("class = %s", s.Class)
	}
	if s.Title != "502 Bad Gateway" {
		t.Fatalf("title = %q", s.Title)
	}
}

func TestSummarizePrefersOGTitle(t *testing.T) {
	html := `<html><head><title>Fallback</title><meta property="og:title" content="OG Title"></head></html>`
	if got := Summarize(stubResponse{status: 200, body: []byte(html)}).Title; got != "OG Title" {
		t.Fatalf("title = %q", got)
	}
}

func TestSummarizeJSONHasNoTitle(t *testing.T) {
	s := Summarize(stubResponse{status: 404, body: []byte(`{"error":"not found"}`)})
	if s.Title != "" || s.Class != ClassClientError || s.Snippet != `{"error":"not found"}` {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestSnippetTruncates(t *testing.T) {
	got := snippet([]byte(strings.Repeat("a", 600)))
	if len(got) != maxSnippetBytes+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected snippet length %d", len(got))
	}
}

func TestClassify(t *testing.T) {
	cases := map[int]Class{
		100: ClassInformational, 204: ClassSuccess, 302: ClassRedirect,
		418: ClassClientError, 503: ClassServerError, 0: ClassUnknown, 700: ClassUnknown,
	}
	for status, want := range cases {
		if got := Classify(status); got != want {
			t.Fatalf("Classify(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestSummarizeNil(t *testing.T) {
	if got := Summarize(nil); got.Class != ClassUnknown {
		t.Fatalf("nil summary = %+v", got)
	}
}
