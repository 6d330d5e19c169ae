// Package board keeps the client-side view of the task list: a cache
// mirroring the server, pure filtering and grouping for rendering, and a
// Coordinator that applies user intents optimistically and reconciles the
// cache with the outcome of each remote call.
package board
