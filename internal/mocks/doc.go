// Package mocks provides test doubles shared across packages.
//
// The store fakes (MockUserStore, MockProjectStore, MockTaskStore) sit on a
// single MemoryDB so that cross-entity behavior matches Postgres: soft
// deletes hide rows, a deleted project hides its tasks, a reorder batch is
// all-or-nothing. Each fake also exposes function fields that override the
// in-memory behavior for error-path tests:
//
//	db := mocks.NewMemoryDB()
//	users, projects, tasks := db.Stores()
//	tasks.UpdatePositionsFn = func(context.Context, uuid.UUID, []store.PositionMove) ([]*domain.Task, error) {
//	    return nil, errors.New("boom")
//	}
package mocks
