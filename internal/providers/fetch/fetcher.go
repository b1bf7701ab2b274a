package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 1 << 20
	DefaultGateway  = "https://ipfs.io/ipfs/"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Config configures a Fetcher
type Config struct {
	Timeout     time.Duration
	MaxBytes    int64
	IPFSGateway string
}

// Fetcher retrieves JSON documents from http(s), ipfs and data URIs
type Fetcher struct {
	http     *resty.Client
	timeout  time.Duration
	maxBytes int64
	gateway  string
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a fetcher
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.IPFSGateway == "" {
		cfg.IPFSGateway = DefaultGateway
	}
	if !strings.HasSuffix(cfg.IPFSGateway, "/") {
		cfg.IPFSGateway += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pooled transport only; fetches are never retried.
	transport := retryablehttp.NewClient().HTTPClient.Transport

	client := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "AgentRegistry-Gateway/1.0")

	return &Fetcher{
		http:     client,
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
		gateway:  cfg.IPFSGateway,
		logger:   logger,
	}
}

// WithMetrics attaches a metrics collector
func (f *Fetcher) WithMetrics(metrics *monitoring.Metrics) *Fetcher {
	f.metrics = metrics
	return f
}

// Fetch retrieves and decodes the JSON document at uri
func (f *Fetcher) Fetch(ctx context.Context, uri string) (jsonv.Value, error) {
	timer := monitoring.NewTimer()

	body, declared, err := f.read(ctx, strings.TrimSpace(uri))
	if err != nil {
		timer.ObserveFetch(f.metrics, string(apperr.CategoryOf(err)))
		return jsonv.Value{}, err
	}

	doc, err := decode(toUTF8(body, declared))
	if err != nil {
		timer.ObserveFetch(f.metrics, string(apperr.CategoryOf(err)))
		return jsonv.Value{}, err
	}

	timer.ObserveFetch(f.metrics, "ok")
	return doc, nil
}

// read returns the raw document and the charset it declares, if any
func (f *Fetcher) read(ctx context.Context, uri string) ([]byte, string, error) {
	if uri == "" {
		return nil, "", apperr.Validation("a source URL is required")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", apperr.Validation("invalid source URL: %v", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return nil, "", apperr.Validation("source URL has no host: %q", uri)
		}
		return f.get(ctx, uri)
	case "ipfs":
		return f.get(ctx, f.gatewayURL(u))
	case "data":
		return decodeDataURI(uri, f.maxBytes)
	default:
		return nil, "", apperr.Validation("unsupported source URL scheme %q", u.Scheme)
	}
}

// gatewayURL rewrites ipfs://<cid>/<path> to the configured gateway
func (f *Fetcher) gatewayURL(u *url.URL) string {
	path := strings.TrimPrefix(u.Host+u.Path, "ipfs/")
	return f.gateway + strings.TrimPrefix(path, "/")
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		if isTimeout(err) {
			return nil, "", apperr.Wrap(apperr.CategoryUpstreamTimeout,
				fmt.Sprintf("fetching %s timed out after %s", target, f.timeout), err)
		}
		return nil, "", apperr.Wrap(apperr.CategoryUpstreamFetch, fmt.Sprintf("fetching %s failed", target), err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		f.logger.Debug("Upstream returned error status",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, "", apperr.Newf(apperr.CategoryUpstreamFetch, "fetching %s returned status %d", target, resp.StatusCode())
	}

	body, err := io.ReadAll(io.LimitReader(raw, f.maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, "", apperr.Wrap(apperr.CategoryUpstreamTimeout,
				fmt.Sprintf("reading %s timed out after %s", target, f.timeout), err)
		}
		return nil, "", apperr.Wrap(apperr.CategoryUpstreamFetch, fmt.Sprintf("reading %s failed", target), err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", apperr.Newf(apperr.CategoryUpstreamFetch, "document at %s exceeds %d bytes", target, f.maxBytes)
	}
	return body, charsetParam(resp.Header().Get("Content-Type")), nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<payload>
func decodeDataURI(uri string, maxBytes int64) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri[len("data"):], ":"), ",")
	if !ok {
		return nil, "", apperr.Validation("malformed data URI")
	}

	params := strings.Split(header, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType != "" && mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") && mediaType != "text/plain" {
		return nil, "", apperr.Newf(apperr.CategoryUnsupportedMedia, "data URI media type %q is not JSON", mediaType)
	}

	isBase64 := false
	declared := ""
	for _, p := range params[1:] {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "base64") {
			isBase64 = true
		}
		if k, v, ok := strings.Cut(p, "="); ok && strings.EqualFold(k, "charset") {
			declared = strings.Trim(v, `"`)
		}
	}

	var body []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, "", apperr.Validation("data URI is not valid base64: %v", err)
		}
		body = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", apperr.Validation("data URI is not valid percent-encoding: %v", err)
		}
		body = []byte(unescaped)
	}

	if int64(len(body)) > maxBytes {
		return nil, "", apperr.Newf(apperr.CategoryValidation, "data URI payload exceeds %d bytes", maxBytes)
	}
	return body, declared, nil
}

// charsetParam returns the charset parameter of a Content-Type value
func charsetParam(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// toUTF8 transcodes body from its declared charset. Undeclared bodies that
// are not valid UTF-8 get their charset detected. Bodies that cannot be
// transcoded are returned unchanged and fail JSON decoding.
func toUTF8(body []byte, declared string) []byte {
	label := strings.ToLower(strings.TrimSpace(declared))
	if label == "utf-8" || label == "utf8" {
		label = ""
	}
	if label == "" {
		if utf8.Valid(body) {
			return body
		}
		result, err := chardet.NewTextDetector().DetectBest(body)
		if err != nil || result == nil {
			return body
		}
		label = result.Charset
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

// decode parses body as JSON, reporting the detected media type when it is
// something else
func decode(body []byte) (jsonv.Value, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	doc, err := jsonv.Parse(body)
	if err == nil {
		return doc, nil
	}

	detected := mimetype.Detect(body)
	return jsonv.Value{}, apperr.Wrap(apperr.CategoryUnsupportedMedia,
		fmt.Sprintf("expected a JSON document, got %s", detected.String()), err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
