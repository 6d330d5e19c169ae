// Package cache provides a Redis read-through cache in front of the task
// store. Listing pages and statistics are cached under a generation number
// that is bumped whenever a task changes, so a single INCR makes every cached
// entry stale without scanning keys.
package cache
