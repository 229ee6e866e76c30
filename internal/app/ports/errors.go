package ports

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLockedFlag          = errors.New("feature flag is locked")
	ErrConfigNotFound      = errors.New("config not found")
	ErrModelUnavailable    = errors.New("model backend unavailable")
	ErrSagaFailed          = errors.New("entity creation saga failed")
)
