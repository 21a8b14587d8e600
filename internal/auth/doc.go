// Package auth issues and validates the bearer tokens that guard the
// cache inspection API. Tokens are HMAC-SHA256 signed JWTs whose subject
// names the operator or job they were issued to.
package auth
