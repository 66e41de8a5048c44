package session

import "context"

// Store is durable storage for the one persisted session record.
//
// Contract:
//   - Load returns (nil, nil) when no record is stored; a missing record is
//     not an error.
//   - Save and Clear replace or remove the whole record atomically: a reader
//     never observes a token without its user or vice versa.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
