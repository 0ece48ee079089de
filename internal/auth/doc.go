// Package auth provides JWT-based authentication for the HTTP API.
//
// Tokens are HS256-signed with the username in the "sub" claim. The HTTP
// middleware validates the bearer token and attaches an Identity to the
// request context; handlers read it back with FromContext. Everything past
// the middleware trusts the identity without re-verifying credentials.
package auth
