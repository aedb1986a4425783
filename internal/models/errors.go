package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound          = errors.New("resource not found") // General not found
	ErrCharacterNotFound = errors.New("character not found")
	ErrContentNotFound   = errors.New("content not found")
	ErrSaveNotFound      = errors.New("save slot not found")
	ErrAccountNotFound   = errors.New("gem account not found")

	// Validation Errors (caught before any mutation)
	ErrInvalidInput    = errors.New("invalid input data")
	ErrInvalidAmount   = errors.New("gem amount must be positive")
	ErrInvalidSlot     = errors.New("save slot index out of range")
	ErrCorruptSaveData = errors.New("conversation payload is malformed")

	// Precondition/Conflict Errors
	ErrInsufficientGems = errors.New("insufficient gem balance")
	ErrAlreadyUnlocked  = errors.New("content already unlocked")

	// External collaborator failures
	ErrGenerationFailed = errors.New("text generation failed")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
)
