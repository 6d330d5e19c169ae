// Package events lets the task service announce changes without knowing who
// listens. The read cache registers a handler here to drop stale listings
// whenever a task is created, changed or removed.
package events
