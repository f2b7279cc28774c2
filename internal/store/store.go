// Package store is the document-store seam of the todo backend. It
// defines the Store interface the HTTP layer programs against and ships
// three implementations: MongoDB (the native document store), a GORM
// backend over SQLite or PostgreSQL, and an in-memory map used in tests
// and local development.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no todo matches the requested id.
// Callers check for it with errors.Is to distinguish absence from
// backend failures.
//
//	todo, err := s.FindByID(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    handle missing todo
//	}
var ErrNotFound = errors.New("todo not found")

// Store is the contract every backend satisfies. Implementations assign
// the ID on Insert and treat each single-document operation as atomic;
// no multi-document transaction is ever required by callers.
type Store interface {
	// Ping verifies the backend connection is alive.
	Ping(ctx context.Context) error

	// Close releases the underlying connection. Safe to call once
	// after a successful open.
	Close(ctx context.Context) error

	// FindAll returns every todo in the backend's natural iteration
	// order. No sort is guaranteed.
	FindAll(ctx context.Context) ([]Todo, error)

	// FindByID returns the todo with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Todo, error)

	// Insert persists a new todo, assigns its ID, and returns the
	// stored document.
	Insert(ctx context.Context, todo Todo) (*Todo, error)

	// Update replaces the document with the given id and returns the
	// updated document, or ErrNotFound if no document matched.
	Update(ctx context.Context, id string, todo Todo) (*Todo, error)

	// Delete removes the document with the given id. Returns
	// ErrNotFound if no document matched.
	Delete(ctx context.Context, id string) error
}
