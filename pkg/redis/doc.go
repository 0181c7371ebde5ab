// Package redis provides helpers for connecting to the Redis server backing
// the smart-subscription notification and event channels.
package redis
