package auth

import "errors"

// Common authentication errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWeakSecret indicates the signing secret is shorter than MinSecretLength
	ErrWeakSecret = errors.New("jwt secret must be at least 32 characters")
)
