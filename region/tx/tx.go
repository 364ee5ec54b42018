// Package tx coordinates ordered header flushes for region files.
//
// Region files have no sequence numbers or journal, so crash safety comes
// purely from write ordering. A header update is only written after every
// data sector it may point at is durable:
//
//  1. Flush data sectors written since the last commit
//  2. Write the dirty header pages
//  3. Sync the header according to the FlushMode
//
// A crash before step 2 leaves the previous header on disk. Runs freed or
// rewritten in place since the last commit may already hold new data, so
// the previous header is only guaranteed to describe chunks that were not
// touched since it was written.
package tx

import (
	"context"
	"fmt"

	"github.com/joshuapare/regionkit/region/dirty"
)

// FlushableTracker is the subset of *dirty.Tracker the manager drives.
type FlushableTracker interface {
	FlushDataOnly(ctx context.Context) error
	WriteHeader(ctx context.Context, hdr []byte) error
	FlushHeaderAndMeta(ctx context.Context, mode dirty.FlushMode) error
	HeaderDirty() bool
	DataDirty() bool
}

// Manager runs the ordered flush protocol.
//
// The manager is NOT thread-safe. Only one goroutine should use it at a time.
type Manager struct {
	dt      FlushableTracker
	mode    dirty.FlushMode
	commits int
}

// NewManager creates a manager that commits through dt with the given mode.
func NewManager(dt FlushableTracker, mode dirty.FlushMode) *Manager {
	return &Manager{dt: dt, mode: mode}
}

// Mode returns the flush mode used by Commit.
func (m *Manager) Mode() dirty.FlushMode { return m.mode }

// Pending reports whether a commit would do any work.
func (m *Manager) Pending() bool {
	return m.dt.HeaderDirty() || m.dt.DataDirty()
}

// Commit makes the current in-memory header durable. hdr is the full encoded
// header; only its dirty pages are written. Commit is a no-op when nothing
// changed since the last commit.
//
// The context is checked between steps. A cancelled commit may have synced
// data without writing the header, which is safe; the header stays dirty and
// the next Commit retries.
func (m *Manager) Commit(ctx context.Context, hdr []byte) error {
	if !m.Pending() {
		return nil
	}

	// Step 1: data sectors first
	if err := m.dt.FlushDataOnly(ctx); err != nil {
		return fmt.Errorf("flush data sectors: %w", err)
	}

	if !m.dt.HeaderDirty() {
		m.commits++
		return nil
	}

	// Step 2: header pages
	if err := m.dt.WriteHeader(ctx, hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Step 3: header durability
	if err := m.dt.FlushHeaderAndMeta(ctx, m.mode); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}

	m.commits++
	return nil
}

// Commits returns how many commits completed.
func (m *Manager) Commits() int { return m.commits }
