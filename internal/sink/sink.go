// Package sink persists extraction results to blob or key-value storage.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/reportgest/internal/sections"
)

// ErrNotFound is returned by Get when no result is stored under the key.
var ErrNotFound = errors.New("result not found")

// Sink stores and retrieves serialized results by key.
type Sink interface {
	Name() string
	Put(ctx context.Context, key string, result sections.Result) error
	Get(ctx context.Context, key string) (json.RawMessage, error)
}

// ValidateKey rejects keys that would escape the sink's namespace.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("key is required")
	}
	if len(key) > 200 {
		return errors.New("key is too long")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	return nil
}

// Nop discards results.
type Nop struct{}

func (Nop) Name() string { return "none" }

func (Nop) Put(ctx context.Context, key string, result sections.Result) error {
	return ValidateKey(key)
}

func (Nop) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return nil, ErrNotFound
}
