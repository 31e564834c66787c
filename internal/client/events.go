package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/eventify/ticketing/internal/model"
)

// ListEvents returns the catalog, narrowed by the optional filter.
func (c *Client) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	q := url.Values{}
	if s := strings.TrimSpace(f.Query); s != "" {
		q.Set("q", s)
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		q.Set("category", s)
	}
	list, err := getItems[model.Event](ctx, c, request{method: http.MethodGet, path: "/events", query: q})
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i], err = normalizeEvent(list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetEvent returns one event or ErrNotFound.
func (c *Client) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	e, err := getItem[model.Event](ctx, c, request{method: http.MethodGet, path: idPath("/events/%d", id)})
	if err != nil {
		return model.Event{}, err
	}
	return normalizeEvent(e)
}
