// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// resource is the CRUD surface shared by every admin endpoint. T is the
// entity, In the create/update payload.
type resource[T any, In any] struct {
	client *Client
	path   string
}

func (r resource[T, In]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r resource[T, In]) list(ctx context.Context) ([]T, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, r.path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func (r resource[T, In]) get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodGet, r.itemPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T, In]) create(ctx context.Context, in *In) (*T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodPost, r.path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T, In]) update(ctx context.Context, id string, in *In) (*T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodPut, r.itemPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T, In]) remove(ctx context.Context, id string) error {
	return r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
}

// listEnvelope covers list responses wrapped in an object: {"data": [...]}
// or a paged {"content": [...]}.
type listEnvelope[T any] struct {
	Data    []T `json:"data"`
	Content []T `json:"content"`
	Items   []T `json:"items"`
}

// decodeList accepts a bare JSON array or a wrapped list.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}
	var env listEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	switch {
	case env.Data != nil:
		return env.Data, nil
	case env.Content != nil:
		return env.Content, nil
	case env.Items != nil:
		return env.Items, nil
	default:
		return []T{}, nil
	}
}
