// Package lock defines named, time-bounded locks shared across service instances.
package lock

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a crashed holder can block others.
const DefaultTTL = 30 * time.Second

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks. Obtain blocks (with retries) up to the
// implementation's limit and then fails with apperror.CodeLockNotObtained.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Nop is a Locker that always succeeds immediately. Used when no Redis is configured.
type Nop struct{}

// Obtain returns a lease whose Release does nothing.
func (Nop) Obtain(context.Context, string, time.Duration) (Lease, error) {
	return nopLease{}, nil
}

type nopLease struct{}

func (nopLease) Release(context.Context) error { return nil }

// PartyKey is the lock name serializing ledger writes of one party.
func PartyKey(partyID string) string {
	return "ledger:party:" + partyID
}
