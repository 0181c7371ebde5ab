// Package jwt implements HMAC-SHA256 access tokens and the HTTP middleware
// that resolves the authenticated caller for the smart-subscription API.
//
// Identity management itself (registration, login) lives in a separate
// service; this package only issues and verifies the tokens that carry the
// user ID between them.
package jwt
