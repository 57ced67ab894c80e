package errors

import "errors"

var (
	ErrInvalidTokenInput = errors.New("reviewer token input is invalid")
	ErrTokenNotFound     = errors.New("reviewer token not found")
	ErrForbidden         = errors.New("caller is not allowed to perform this token operation")
	ErrTokenConsumed     = errors.New("reviewer token already activated")
	ErrTokenRevoked      = errors.New("reviewer token is revoked")
	ErrTokenExpired      = errors.New("reviewer token is expired")
	ErrClassNotEligible  = errors.New("caller class is not eligible for this token")
	ErrSecretTaken       = errors.New("token secret already exists")
	ErrUserNotFound      = errors.New("user not found")
)
