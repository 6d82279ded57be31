package documents

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrDuplicateToken  = errors.New("share token already exists")
	ErrDuplicateID     = errors.New("document id already exists")
)
