// Package client talks to the Eventify REST API. Each call takes a
// context and, for privileged routes, the caller's *Session explicitly.
// Responses must use the {"item"}, {"items","count"} or {"message"}
// envelope; anything else is ErrMalformedResponse.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/logging"
)

const (
	apiPrefix      = "/api"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout bounds every request. A timeout is reported as ErrNetwork.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// New returns a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	sess   *Session
	body   any
}

// do sends one request and returns the raw body of a 2xx reply. Non-2xx
// replies become *APIError, transport failures ErrNetwork.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	target := c.baseURL + apiPrefix + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cid := logging.CorrelationIDFromContext(ctx)
	req.Header.Set(logging.CorrelationHeader, cid)
	if r.sess != nil {
		req.Header.Set("Authorization", "Bearer "+r.sess.Token)
	}

	log := c.log.WithFields(logrus.Fields{
		"correlation_id": cid,
		"method":         r.method,
		"path":           r.path,
	})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

// authorized rejects a missing or expired session before anything is
// sent.
func authorized(sess *Session) error {
	if !sess.Valid(time.Now()) {
		return ErrUnauthorized
	}
	return nil
}

type itemEnvelope[T any] struct {
	Item *T `json:"item"`
}

type listEnvelope[T any] struct {
	Items *[]T `json:"items"`
	Count *int `json:"count"`
}

type messageEnvelope struct {
	Message *string `json:"message"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func decodeItem[T any](raw []byte) (T, error) {
	var zero T
	var env itemEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, malformed("%v", err)
	}
	if env.Item == nil {
		return zero, malformed("missing item")
	}
	return *env.Item, nil
}

func decodeItems[T any](raw []byte) ([]T, error) {
	var env listEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed("%v", err)
	}
	if env.Items == nil || env.Count == nil {
		return nil, malformed("missing items or count")
	}
	if *env.Count != len(*env.Items) {
		return nil, malformed("count %d does not match %d items", *env.Count, len(*env.Items))
	}
	return *env.Items, nil
}

func decodeMessage(raw []byte) (string, error) {
	var env messageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", malformed("%v", err)
	}
	if env.Message == nil {
		return "", malformed("missing message")
	}
	return *env.Message, nil
}

func getItem[T any](ctx context.Context, c *Client, r request) (T, error) {
	raw, err := c.do(ctx, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeItem[T](raw)
}

func getItems[T any](ctx context.Context, c *Client, r request) ([]T, error) {
	raw, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decodeItems[T](raw)
}

func getMessage(ctx context.Context, c *Client, r request) (string, error) {
	raw, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	return decodeMessage(raw)
}

func idPath(format string, id uint64) string {
	return fmt.Sprintf(format, id)
}
