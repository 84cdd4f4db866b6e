package scene

import "context"

// Loader reads a scene file.
type Loader interface {
	Load(ctx context.Context, path string) (*Scene, error)
}
