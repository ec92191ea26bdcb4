// Package api exposes the task board over HTTP. Handlers decode and validate
// requests, resolve the authenticated actor, call the service layer and
// write the JSON envelope. Service errors are mapped to status codes and
// sanitized messages in errors.go.
package api
