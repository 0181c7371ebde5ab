// Package pg provides PostgreSQL connection pooling, healthchecks and schema
// migrations for the smart-subscription stores.
package pg
