// Package api is the thin HTTP surface over the billing domain: chi
// routing, bearer-token authentication, JSON envelopes, and the mapping
// from domain sentinel errors to HTTP statuses.
package api
