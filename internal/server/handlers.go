package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"

	"github.com/aleksaelezovic/rdfpreview/internal/cache"
	"github.com/aleksaelezovic/rdfpreview/internal/fetch"
	"github.com/aleksaelezovic/rdfpreview/pkg/ingest"
	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
	"github.com/aleksaelezovic/rdfpreview/pkg/render"
)

// handleRoot serves a form for entering a document URL
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(w, rdf.SupportedMediaTypes())
}

// handlePreview fetches ?url=, optionally overriding the format and the
// character encoding, and serves the rendered document as a page
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed. Use GET")
		return
	}
	q := r.URL.Query()
	target := q.Get("url")
	if target == "" {
		s.writeError(w, r, http.StatusBadRequest, "Missing 'url' parameter")
		return
	}

	asText := wantsText(r.Header.Get("Accept"))
	table, contentType := cache.TableHTML, "text/html; charset=utf-8"
	if asText {
		table, contentType = cache.TableText, "text/plain; charset=utf-8"
	}
	key := cache.Key{URL: target, Format: q.Get("format"), Encoding: q.Get("encoding")}
	log := s.requestLogger(r).WithField("url", target)

	if s.cache != nil && bypassCache(r) {
		// drop every rendering of the document; the fresh one is stored below
		if err := s.cache.Delete(key); err != nil {
			log.WithError(err).Warn("cache purge failed")
		}
	} else if s.cache != nil {
		page, err := s.cache.Get(table, key)
		s.metrics.cacheHit(err == nil)
		if err == nil {
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(page)
			return
		}
		if !errors.Is(err, cache.ErrNotFound) {
			log.WithError(err).Warn("cache lookup failed")
		}
	}

	res, err := s.fetcher.Fetch(r.Context(), target, fetch.Overrides{Format: key.Format, Encoding: key.Encoding})
	if err != nil {
		s.writeError(w, r, statusFor(err), err.Error())
		return
	}
	defer res.Body.Close()

	doc, triples, err := s.pipeline(log, res.Body, res.Encoding, res.MediaType, target)
	if err != nil {
		if errors.Is(err, errRead) && statusFor(err) == http.StatusInternalServerError {
			err = errors.Wrapf(fetch.ErrFetchFailed, "%v", err)
		}
		s.writeError(w, r, statusFor(err), err.Error())
		return
	}

	var out bytes.Buffer
	if asText {
		err = doc.WriteText(&out, s.textOptions()...)
	} else {
		err = s.writePage(&out, doc, target, triples)
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(table, key, out.Bytes(), res.TTL); err != nil {
			log.WithError(err).Warn("cache store failed")
		}
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(out.Bytes())
}

// handleRender renders a POSTed document. Content-Type selects the format
// and its charset parameter the encoding. The result is an HTML fragment,
// or text when Accept asks for text/plain.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed. Use POST")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		s.writeError(w, r, http.StatusBadRequest, "Missing Content-Type header")
		return
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid Content-Type header")
		return
	}
	var enc encoding.Encoding
	if charset := params["charset"]; charset != "" {
		if enc, err = fetch.Encoding(charset); err != nil {
			s.writeError(w, r, statusFor(err), err.Error())
			return
		}
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.Fetch.MaxBytes)
	doc, _, err := s.pipeline(s.requestLogger(r), body, enc, mediaType, r.URL.Query().Get("base"))
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, errRead) && status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.writeError(w, r, status, err.Error())
		return
	}

	var out bytes.Buffer
	if wantsText(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = doc.WriteText(&out, s.textOptions()...)
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = doc.WriteHTML(&out)
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	_, _ = w.Write(out.Bytes())
}

// handleFormats lists the accepted media types with their format names
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	type format struct {
		Name      string `json:"name"`
		MediaType string `json:"mediaType"`
	}
	var formats []format
	for _, mt := range rdf.SupportedMediaTypes() {
		f, _ := rdf.FormatForMediaType(mt)
		formats = append(formats, format{Name: string(f), MediaType: mt})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"formats": formats})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// errRead marks failures reading the document body, as opposed to
// decoding it
var errRead = errors.New("reading document")

// pipeline ingests body and renders the resulting store. base resolves
// relative IRIs.
func (s *Server) pipeline(log *logrus.Entry, body io.Reader, enc encoding.Encoding, mediaType, base string) (*render.Document, int, error) {
	start := time.Now()
	coordinator := ingest.New(
		ingest.WithLogger(log.WithField("component", "ingest")),
		ingest.WithObserver(s.metrics),
		ingest.WithAdapterOptions(rdf.WithBaseIRI(base)),
	)
	stream := ingest.NewReaderStream(body, 0)
	ts, err := coordinator.Ingest(stream, enc, mediaType)
	if readErr := stream.Err(); readErr != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(readErr, &tooLarge) {
			return nil, 0, tooLarge
		}
		return nil, 0, errors.Wrapf(errRead, "%v", readErr)
	}
	if err != nil {
		return nil, 0, err
	}

	doc, err := s.renderer.Render(ts)
	if err != nil {
		return nil, 0, err
	}
	log.WithFields(logrus.Fields{
		"format":   mediaType,
		"triples":  ts.Len(),
		"duration": time.Since(start),
	}).Info("document rendered")
	return doc, ts.Len(), nil
}

func (s *Server) textOptions() []render.TextOption {
	if s.cfg.Render.Indent == "nbsp" {
		return []render.TextOption{render.WithNonBreakingIndent(), render.WithColor(false)}
	}
	return []render.TextOption{render.WithColor(false)}
}

func (s *Server) writePage(w io.Writer, doc *render.Document, target string, triples int) error {
	var fragment bytes.Buffer
	if err := doc.WriteHTML(&fragment); err != nil {
		return err
	}
	return previewPage.Execute(w, pageData{
		Title: target,
		URL:   target,
		// rendered by x/net/html, which escapes every text node and attribute
		Fragment: template.HTML(fragment.String()), // #nosec G203
		Triples:  triples,
	})
}
