// Package store persists workflow session snapshots so a session survives
// process restarts and Lambda container recycling.
//
// A snapshot is the full workflow State plus the uploaded reference files,
// serialized as JSON and compressed with zstd. Two backends are provided:
// FileStore for the local server and DynamoStore for the Lambda
// deployment. DynamoDB records share the single-table layout
// (PK SESSION#{id}) and carry a TTL attribute (expiresAt) so abandoned
// sessions are removed after SessionTTL.
package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

// SessionTTL is how long an untouched session is kept.
const SessionTTL = 24 * time.Hour

// ErrInvalidID is returned for session IDs that are not safe to use as
// keys or file names.
var ErrInvalidID = errors.New("invalid session id")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID checks that id is a usable session ID.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// Snapshot is one persisted session.
type Snapshot struct {
	ID        string         `json:"id"`
	State     workflow.State `json:"state"`
	Files     []source.File  `json:"files,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SnapshotStore persists snapshots. Implementations are safe for
// concurrent use. Get returns (nil, nil) when no snapshot exists.
type SnapshotStore interface {
	Put(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}
