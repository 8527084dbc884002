package models

import "errors"

// Application-wide standard errors
var (
	// Authoring errors
	ErrPermissionDenied = errors.New("only the author can create stories")
	ErrCharacterLimit   = errors.New("character limit reached for this draft")
	ErrNoDraft          = errors.New("no story draft in progress")

	// Resource errors
	ErrStoryNotFound = errors.New("story not found")

	// Token errors (inter-service transport auth)
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
)
