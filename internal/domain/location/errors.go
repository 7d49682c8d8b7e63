package location

import "errors"

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrLocationCodeExists = errors.New("location code already exists in this workspace")
)
