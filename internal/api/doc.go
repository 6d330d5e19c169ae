// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting for the task resource. It acts as an adapter
// between HTTP clients and the task service.
package api
