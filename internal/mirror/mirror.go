// Package mirror keeps optional copies of the published artifact in Redis and Postgres.
package mirror

import (
	"context"

	"github.com/amishk599/hiddenjobs/internal/publish"
)

// Mirror receives every successfully published artifact.
type Mirror interface {
	Name() string
	Store(ctx context.Context, a publish.Artifact) error
	Close() error
}
