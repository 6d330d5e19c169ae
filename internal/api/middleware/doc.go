// Package middleware contains the HTTP middleware wrapped around the task
// API: API key authentication, security headers, request screening, rate
// limiting, tracing, request logging and metrics.
package middleware
