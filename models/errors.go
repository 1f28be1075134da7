package models

import "errors"

// Domain errors returned by services and mapped to HTTP statuses by the api package
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid fiscal period")
	ErrInvalidFeeConfig = errors.New("invalid fee config")
	ErrRecordFinalized  = errors.New("billing record is finalized")
	ErrInvalidState     = errors.New("invalid state transition")
)
