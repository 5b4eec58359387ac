package service

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMissingName     = errors.New("missing name")
	ErrInvalidType     = errors.New("missing type")
	ErrMissingData     = errors.New("missing data")
	ErrInvalidData     = errors.New("data is not valid base64")
	ErrParentNotFound  = errors.New("parent not found")
	ErrInvalidParentID = errors.New("invalid parent id")
	ErrInvalidSize     = errors.New("size must be one of 500, 250, 100")
	ErrNotFound        = errors.New("not found")
	ErrFolderContent   = errors.New("a folder doesn't have content")
)
