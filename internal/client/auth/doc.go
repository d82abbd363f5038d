// Package auth holds the client's view of the hosted auth service.
//
// The hosted service hands the client access tokens: after a password
// sign-in, on refresh, or inside a deep link opened from an email (signup
// confirmation, magic link, password recovery). Hub verifies those tokens,
// keeps the single current Session, persists it in the local metadata store
// and broadcasts SessionEvents. The rest of the client only sees the Service
// interface.
package auth
