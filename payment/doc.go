// Package payment implements the charge and refund sagas. A charge creates
// a durable PENDING payment before the provider call and always records the
// true provider outcome; the paired subscription transition is a
// best-effort compensating action behind the subscription.Transitioner
// port. Refunds retain a fixed 1% platform fee.
package payment
