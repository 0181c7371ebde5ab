// Package notification carries the side channels of the billing domain: a
// fire-and-forget Publisher port with a bounded-queue Dispatcher decorator,
// a redis-streams transport, and the inbox Consumer that persists incoming
// messages and fans them out to email and SMS.
package notification
