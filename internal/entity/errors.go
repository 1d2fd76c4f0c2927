package entity

import "errors"

// Domain errors
var (
	// Catalog errors
	ErrEmptyCatalog    = errors.New("question catalog is empty")
	ErrDuplicateID     = errors.New("duplicate question id")
	ErrInvalidQuestion = errors.New("invalid question definition")
	ErrMissingQuestion = errors.New("catalog lacks a required question")
	ErrUnknownQuestion = errors.New("unknown question")

	// Flow errors
	ErrInvalidOption  = errors.New("answer is not one of the allowed options")
	ErrStepIncomplete = errors.New("current step has no valid answer")
	ErrFlowBusy       = errors.New("analysis in progress")
	ErrFlowFinished   = errors.New("flow already has a result")
	ErrFlowClosed     = errors.New("flow is closed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNoResult        = errors.New("session result not available")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
