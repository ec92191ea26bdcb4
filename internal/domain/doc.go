// Package domain contains the core business entities of the task board:
// users, projects and tasks, plus the Actor value that carries the
// authenticated caller through every use case. It has no dependencies on
// storage or transport.
package domain
