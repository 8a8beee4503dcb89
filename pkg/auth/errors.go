package auth

import "errors"

var (
	ErrMissingToken   = errors.New("auth: missing token")
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrExpiredToken   = errors.New("auth: token expired")
)
