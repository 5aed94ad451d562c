package driven

import "context"

// AssetStore publishes page images so that citations can link to them.
type AssetStore interface {
	// Put stores the local file under key and returns the location to
	// record on the embedding record.
	Put(ctx context.Context, key, localPath string) (string, error)

	// Name identifies the backend in logs.
	Name() string
}
