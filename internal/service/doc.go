// Package service contains the taskboard use cases. Each operation follows the
// same shape: load the records it needs, check the access policy against the
// explicit domain.Actor, compute positions through the ordering engine, persist
// through the store interfaces, broadcast the change to subscribers of the
// affected project and return a projection built for the API.
//
// Services depend on store interfaces and never on a concrete database. Read
// operations never broadcast; every successful task or project mutation
// broadcasts exactly once.
package service
