package fetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/cachecontrol"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/aleksaelezovic/rdfpreview/internal/config"
	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
)

var (
	// ErrFetchFailed wraps transport failures and non-2xx responses
	ErrFetchFailed = errors.New("fetch failed")
	// ErrUnknownEncoding is returned for charset labels htmlindex does not know
	ErrUnknownEncoding = errors.New("unknown character encoding")
)

// Overrides replace what the response headers say
type Overrides struct {
	Format   string // format name or media type
	Encoding string // charset label
}

// Resource is a fetched RDF document whose body has not been read yet
type Resource struct {
	URL       string
	MediaType string
	Charset   string
	Encoding  encoding.Encoding
	// Body is capped at the configured maximum; reading past it fails
	Body io.ReadCloser
	// TTL is how long a rendering of the resource may be cached, zero when
	// the response forbids caching
	TTL time.Duration
}

// Fetcher downloads RDF documents over HTTP
type Fetcher struct {
	client     *http.Client
	accept     string
	userAgent  string
	maxBytes   int64
	defaultTTL time.Duration
	logger     *logrus.Entry
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDefaultTTL sets the TTL of responses without caching headers
func WithDefaultTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.defaultTTL = ttl
	}
}

func New(cfg config.FetchConfig, opts ...Option) *Fetcher {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	f := &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		accept:    cfg.Accept,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		logger:    logrus.NewEntry(discard),
	}
	if f.accept == "" {
		f.accept = config.DefaultAccept()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests rawURL and resolves the media type and character encoding
// of the response. The caller must close the returned body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, o Overrides) (*Resource, error) {
	// resolve overrides before touching the network
	var mediaType string
	if o.Format != "" {
		format, err := rdf.ParseFormat(o.Format)
		if err != nil {
			return nil, err
		}
		mediaType = format.MediaType()
	}
	var enc encoding.Encoding
	charset := o.Encoding
	if charset != "" {
		var err error
		if enc, err = Encoding(charset); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "invalid url %q: %v", rawURL, err)
	}
	req.Header.Set("Accept", f.accept)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "%v", err)
	}
	log := f.logger.WithFields(logrus.Fields{
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Debug("fetch rejected")
		return nil, errors.Wrapf(ErrFetchFailed, "%s: %s", rawURL, resp.Status)
	}

	if mediaType == "" || charset == "" {
		mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if err != nil && mediaType == "" {
			resp.Body.Close()
			return nil, errors.Wrapf(rdf.ErrUnsupportedFormat, "content type %q", resp.Header.Get("Content-Type"))
		}
		if mediaType == "" {
			mediaType = mt
		}
		if charset == "" && params["charset"] != "" {
			charset = params["charset"]
			if enc, err = Encoding(charset); err != nil {
				resp.Body.Close()
				return nil, err
			}
		}
	}
	if _, err := rdf.FormatForMediaType(mediaType); err != nil {
		resp.Body.Close()
		return nil, err
	}

	res := &Resource{
		URL:       rawURL,
		MediaType: mediaType,
		Charset:   charset,
		Encoding:  enc,
		Body:      http.MaxBytesReader(nil, resp.Body, f.maxBytes),
		TTL:       f.ttl(req, resp),
	}
	log.WithFields(logrus.Fields{
		"media_type": mediaType,
		"charset":    charset,
		"ttl":        res.TTL,
	}).Debug("fetched")
	return res, nil
}

// ttl derives the cache lifetime from Cache-Control and Expires
func (f *Fetcher) ttl(req *http.Request, resp *http.Response) time.Duration {
	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{})
	if err != nil || len(reasons) > 0 {
		return 0
	}
	if expires.IsZero() {
		return f.defaultTTL
	}
	if ttl := time.Until(expires); ttl > 0 {
		return ttl
	}
	return 0
}

// Encoding resolves a charset label the way browsers do. UTF-8 resolves to
// nil, meaning no decoding is needed.
func Encoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownEncoding, "%q", label)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}
