// Package subscription implements the subscription side of the billing
// domain: the plan catalog, subscription lifecycle (subscribe, cancel,
// pause, resume, plan change), the pure state-transition functions shared
// with the payment saga, and a background scheduler for renewals and trial
// expiry.
//
// Lifecycle transitions driven by charges and refunds are exposed through
// the narrow Transitioner port so the payment package never depends on the
// full Store.
package subscription
