package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrPremiumFeature  = errors.New("premium feature")
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrProviderFailure = errors.New("provider failure")
)
