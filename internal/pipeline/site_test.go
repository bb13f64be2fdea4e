package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// catalogSite serves a two-page catalog: book_1 and book_2 are valid,
// secret_3 is disallowed by robots.txt, and book_4 has no title.
type catalogSite struct {
	server      *httptest.Server
	failPage2   atomic.Bool
	detailHits  atomic.Int32
	robotsAgent atomic.Value
}

func newCatalogSite(t *testing.T) *catalogSite {
	t.Helper()
	site := &catalogSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		site.robotsAgent.Store(r.UserAgent())
		fmt.Fprint(w, "User-agent: *\nDisallow: /catalogue/secret_3/\n")
	})
	mux.HandleFunc("/catalogue/page-1.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listing([]string{"book_1/index.html", "book_2/index.html", "secret_3/index.html"}, "page-2.html"))
	})
	mux.HandleFunc("/catalogue/page-2.html", func(w http.ResponseWriter, _ *http.Request) {
		if site.failPage2.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, listing([]string{"book_4/index.html", "book_1/index.html"}, ""))
	})
	mux.HandleFunc("/catalogue/", func(w http.ResponseWriter, r *http.Request) {
		site.detailHits.Add(1)
		switch r.URL.Path {
		case "/catalogue/book_1/index.html":
			fmt.Fprint(w, detail("Book One", "First book."))
		case "/catalogue/book_2/index.html":
			fmt.Fprint(w, detail("Book Two", ""))
		case "/catalogue/book_4/index.html":
			fmt.Fprint(w, detail("", "No title here."))
		default:
			http.NotFound(w, r)
		}
	})
	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *catalogSite) url(path string) string {
	return s.server.URL + path
}

func listing(hrefs []string, next string) string {
	var b strings.Builder
	b.WriteString("<html><body><ol>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<li><article class="product_pod"><h3><a href="%s">x</a></h3></article></li>`, href)
	}
	b.WriteString("</ol><ul class=\"pager\">")
	if next != "" {
		fmt.Fprintf(&b, `<li class="next"><a href="%s">next</a></li>`, next)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func detail(title, description string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="product_main">`)
	if title != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", title)
	}
	b.WriteString(`</div>`)
	if description != "" {
		fmt.Fprintf(&b, `<div id="product_description"><h2>Product Description</h2></div><p>%s</p>`, description)
	}
	b.WriteString("</body></html>")
	return b.String()
}
