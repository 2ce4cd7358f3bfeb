package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/reportgest/internal/pathstore"
	"github.com/dgallion1/reportgest/internal/sections"
)

// Pathstore writes each result as a node value under prefix/key.
type Pathstore struct {
	client *pathstore.Client
	prefix string
}

func NewPathstore(client *pathstore.Client, prefix string) *Pathstore {
	if prefix == "" {
		prefix = "reports"
	}
	return &Pathstore{client: client, prefix: prefix}
}

func (p *Pathstore) Name() string { return "pathstore" }

func (p *Pathstore) Put(ctx context.Context, key string, result sections.Result) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := p.client.PutNode(ctx, p.prefix+"/"+key, pathstore.NodeRequest{
		Value:  result,
		Source: "reportgest",
	})
	if err != nil {
		return fmt.Errorf("pathstore put %s: %w", key, err)
	}
	return nil
}

func (p *Pathstore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	node, err := p.client.GetNode(ctx, p.prefix+"/"+key)
	if err != nil {
		return nil, fmt.Errorf("pathstore get %s: %w", key, err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	return node.Value, nil
}
