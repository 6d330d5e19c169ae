// Package postgres provides the PostgreSQL implementation of the task store
// defined in internal/store. It handles database connections, query
// execution, schema migrations and the mapping between domain tasks and rows.
package postgres
