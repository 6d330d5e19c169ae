// Package client talks to the taskboard REST API.
//
// Every request carries the X-API-KEY header taken from a KeySource, so a
// key replaced at runtime (login, logout) is picked up by the next call.
// Failures are reported as *Error values classified by Kind; callers branch
// on the kind and never need to inspect status codes.
package client
