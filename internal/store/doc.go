// Package store defines interfaces for task persistence. The interfaces
// abstract the underlying data storage mechanism from the service layer,
// keeping business rules independent of the database technology.
package store
