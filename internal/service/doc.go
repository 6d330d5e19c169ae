// Package service implements the task board's application logic. It
// validates input, coordinates store calls and transactions, and announces
// committed changes through the events package.
package service
