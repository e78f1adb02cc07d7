package repository

import (
	"context"
	"net/url"
)

// upstreamClient is the subset of pkg/upstream used by the remote repositories.
type upstreamClient interface {
	Do(ctx context.Context, method, path, token string, query url.Values, in, out interface{}) error
}

func pathOf(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = url.PathEscape(part)
	}
	path := ""
	for _, part := range escaped {
		path += "/" + part
	}
	return path
}

// pick returns the first non-empty list; the backend uses either a named key or "data".
func pick[T any](lists ...[]T) []T {
	for _, list := range lists {
		if len(list) > 0 {
			return list
		}
	}
	return nil
}

// pickOne returns the first non-nil item.
func pickOne[T any](items ...*T) *T {
	for _, item := range items {
		if item != nil {
			return item
		}
	}
	return nil
}
