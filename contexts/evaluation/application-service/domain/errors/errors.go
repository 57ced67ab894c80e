package errors

import "errors"

var (
	ErrInvalidApplicationInput = errors.New("application input is invalid")
	ErrApplicationNotFound     = errors.New("application not found")
	ErrForbidden               = errors.New("caller is not allowed to access this application")
	ErrStatusNotEditable       = errors.New("application status does not allow this change")
	ErrVersionConflict         = errors.New("application version conflict")
)
