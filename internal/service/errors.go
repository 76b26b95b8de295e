package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccount   = errors.New("email or username already registered")
	ErrSuperadminExists   = errors.New("only one superadmin is allowed")
	ErrForbiddenTarget    = errors.New("account cannot be managed by this role")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
	ErrInvalidRole        = errors.New("role must be user or admin")
	ErrLookupKeyRequired  = errors.New("user_id or username is required")

	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrTokenRevoked       = errors.New("access token revoked")

	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
	ErrResetTokenUsed    = errors.New("reset token already used")
	ErrMailDelivery      = errors.New("mail delivery failed")

	ErrGameNotFound     = errors.New("game not found")
	ErrInvalidImagePath = errors.New("image path must be relative to the upload directory")
)
