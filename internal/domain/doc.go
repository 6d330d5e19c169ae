// Package domain contains the core task board entities and value objects:
// tasks, their closed status and priority enumerations, calendar dates and
// the validation rules every boundary applies before a task is accepted.
// It has no knowledge of storage or transport.
package domain
