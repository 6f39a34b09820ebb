package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/rdfpreview/internal/cache"
	"github.com/aleksaelezovic/rdfpreview/internal/config"
	"github.com/aleksaelezovic/rdfpreview/internal/fetch"
)

const fourTriples = `@prefix ex: <http://example.org/> .
ex:s1 ex:p1 ex:o1 , ex:o2 ;
      ex:p2 ex:o3 .
ex:s2 ex:p1 ex:o4 .
`

const fourTriplesText = "@prefix ex: <http://example.org/> .\n" +
	"\n" +
	"ex:s1 ex:p1 ex:o1 ,\n" +
	"            ex:o2 ;\n" +
	"      ex:p2 ex:o3 .\n" +
	"\n" +
	"ex:s2 ex:p1 ex:o4 .\n"

// upstream serves documents by path and counts the requests it gets
type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		switch r.URL.Path {
		case "/data.ttl":
			w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
			w.Header().Set("Cache-Control", "max-age=60")
			io.WriteString(w, fourTriples)
		case "/broken.ttl":
			w.Header().Set("Content-Type", "text/turtle")
			io.WriteString(w, "@prefix ex: <http://example.org/> .\nex:s1 ex:p1 .\n")
		case "/plain.txt":
			w.Header().Set("Content-Type", "text/plain")
			io.WriteString(w, fourTriples)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(config.Default(), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, target string, accept string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func previewURL(srv *httptest.Server, target string) string {
	return srv.URL + "/preview?url=" + url.QueryEscape(target)
}

func decodeError(t *testing.T, body string) (int, string) {
	t.Helper()
	var out struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out.Error.Code, out.Error.Message
}

func TestPreview_HTMLPage(t *testing.T) {
	up := newUpstream(t)
	srv := newTestServer(t)
	target := up.URL + "/data.ttl"

	resp, body := get(t, previewURL(srv, target), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<title>"+target+"</title>")
	assert.Contains(t, body, `<div class="prefixes">`)
	assert.Contains(t, body, `<span class="subject"><a href="http://example.org/s1" id="n1">ex:s1</a></span>`)
	assert.Equal(t, 2, strings.Count(body, `<p class="triple">`))

	_, err := uuid.Parse(resp.Header.Get("X-Request-Id"))
	assert.NoError(t, err)
}

func TestPreview_Text(t *testing.T) {
	up := newUpstream(t)
	srv := newTestServer(t)

	resp, body := get(t, previewURL(srv, up.URL+"/data.ttl"), "text/plain")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, fourTriplesText, body)
}

func TestPreview_FormatOverride(t *testing.T) {
	up := newUpstream(t)
	srv := newTestServer(t)

	// served as text/plain, decoded as Turtle
	resp, body := get(t, previewURL(srv, up.URL+"/plain.txt")+"&format=turtle", "text/plain")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, fourTriplesText, body)
}

func TestPreview_Cache(t *testing.T) {
	c, err := cache.Open("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	up := newUpstream(t)
	srv := newTestServer(t, WithCache(c))
	target := previewURL(srv, up.URL+"/data.ttl")

	resp, first := get(t, target, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	resp, second := get(t, target, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), up.hits.Load())

	// text renderings are cached separately
	resp, _ = get(t, target, "text/plain")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestPreview_NoCacheRefreshes(t *testing.T) {
	c, err := cache.Open("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	var object atomic.Value
	object.Store("first")
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Header().Set("Cache-Control", "max-age=60")
		io.WriteString(w, `<http://example.org/s> <http://example.org/p> "`+object.Load().(string)+`" .`)
	}))
	t.Cleanup(up.Close)

	srv := newTestServer(t, WithCache(c))
	target := previewURL(srv, up.URL+"/doc.ttl")

	resp, body := get(t, target, "text/plain")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"first"`)
	resp, _ = get(t, target, "")
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	object.Store("second")
	for _, header := range [][2]string{{"Cache-Control", "no-cache"}, {"Pragma", "no-cache"}} {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		require.NoError(t, err)
		req.Header.Set("Accept", "text/plain")
		req.Header.Set(header[0], header[1])
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, "MISS", resp.Header.Get("X-Cache"), header[0])
		assert.Contains(t, string(b), `"second"`, header[0])
	}

	// the fresh text rendering was stored, the stale HTML one purged
	resp, body = get(t, target, "text/plain")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, `"second"`)
	resp, body = get(t, target, "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, "second")
}

func TestBypassCache(t *testing.T) {
	tests := []struct {
		header, value string
		want          bool
	}{
		{"Cache-Control", "no-cache", true},
		{"Cache-Control", "max-age=0, no-store", true},
		{"Cache-Control", "max-age=60", false},
		{"Pragma", "no-cache", true},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/preview", nil)
		if tt.header != "" {
			r.Header.Set(tt.header, tt.value)
		}
		assert.Equal(t, tt.want, bypassCache(r), "%s: %s", tt.header, tt.value)
	}
}

func TestPreview_Errors(t *testing.T) {
	up := newUpstream(t)
	srv := newTestServer(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing url", srv.URL + "/preview", http.StatusBadRequest},
		{"upstream 404", previewURL(srv, up.URL+"/missing"), http.StatusBadGateway},
		{"unsupported type", previewURL(srv, up.URL+"/page.html"), http.StatusUnsupportedMediaType},
		{"parse error", previewURL(srv, up.URL+"/broken.ttl"), http.StatusUnprocessableEntity},
		{"unknown encoding", previewURL(srv, up.URL+"/data.ttl") + "&encoding=klingon", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, tt.target, "")
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			code, message := decodeError(t, body)
			assert.Equal(t, tt.want, code)
			assert.NotEmpty(t, message)
		})
	}
}

func post(t *testing.T, target, contentType, accept, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(out)
}

func TestRender_Fragment(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv.URL+"/render", "text/turtle", "", fourTriples)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, `<div class="prefixes">`), body)
	assert.NotContains(t, body, "<html>")

	resp, body = post(t, srv.URL+"/render", "text/turtle; charset=utf-8", "text/plain, text/html;q=0.5", fourTriples)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, fourTriplesText, body)
}

func TestRender_Latin1Body(t *testing.T) {
	srv := newTestServer(t)

	doc := "<http://example.org/s> <http://example.org/p> \"caf\xe9\" .\n"
	resp, body := post(t, srv.URL+"/render", "application/n-triples; charset=iso-8859-1", "text/plain", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"café"`)
}

func TestRender_BaseIRI(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv.URL+"/render?base="+url.QueryEscape("http://example.org/dir/"),
		"text/turtle", "text/plain", "<a> <b> <c> .\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "<http://example.org/dir/a> <http://example.org/dir/b> <http://example.org/dir/c> .\n", body)
}

func TestRender_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.MaxBytes = 64
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)

	resp, body := post(t, srv.URL+"/render", "text/csv", "", "a,b,c")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode, body)

	resp, body = post(t, srv.URL+"/render", "text/turtle", "", "<a> <b> .")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)

	resp, body = post(t, srv.URL+"/render", "text/turtle", "", strings.Repeat("# comment\n", 20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, body)

	resp, body = post(t, srv.URL+"/render", "", "", fourTriples)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, _ = get(t, srv.URL+"/render", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFormats(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/formats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Formats []struct {
			Name      string `json:"name"`
			MediaType string `json:"mediaType"`
		} `json:"formats"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Len(t, out.Formats, 7)
	assert.Contains(t, body, `{"name":"turtle","mediaType":"text/turtle"}`)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	post(t, srv.URL+"/render", "text/turtle", "", fourTriples)

	resp, body = get(t, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `rdfpreview_ingest_triples_total{format="turtle"} 4`)
	assert.Contains(t, body, "rdfpreview_ingest_duration_seconds")
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<form action="/preview"`)
	// html/template escapes the plus sign in text
	assert.Contains(t, body, "application/ld&#43;json")
	assert.Contains(t, body, "text/turtle")

	resp, _ = get(t, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWantsText(t *testing.T) {
	assert.True(t, wantsText("text/plain"))
	assert.True(t, wantsText("text/plain, text/html;q=0.5"))
	assert.False(t, wantsText("text/html, text/plain;q=0.5"))
	assert.False(t, wantsText("*/*"))
	assert.False(t, wantsText(""))
}

func TestPreview_BodyLimit(t *testing.T) {
	up := newUpstream(t)
	cfg := config.Default().Fetch
	cfg.MaxBytes = 16
	srv := newTestServer(t, WithFetcher(fetch.New(cfg)))

	resp, body := get(t, previewURL(srv, up.URL+"/data.ttl"), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, body)
}
