// Package store defines the persistence interfaces for users, projects and
// tasks, the query types used to filter them, and the error values every
// implementation returns. Soft-deleted records are hidden unless a caller
// asks for them with IncludeDeleted.
package store
