package sink

import (
	"context"
	"fmt"

	"github.com/dgallion1/reportgest/internal/config"
	"github.com/dgallion1/reportgest/internal/pathstore"
)

// Open builds the sink selected by cfg.Sink. The returned close func
// releases any client connections and is never nil.
func Open(ctx context.Context, cfg config.Config) (Sink, func(), error) {
	switch cfg.Sink {
	case config.SinkNone, "":
		return Nop{}, func() {}, nil
	case config.SinkPathstore:
		client := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		return NewPathstore(client, ""), client.Close, nil
	case config.SinkS3:
		client, err := NewS3Client(ctx, S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PathStyle:       cfg.S3PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewS3(client, cfg.S3Bucket, cfg.S3Prefix), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}
