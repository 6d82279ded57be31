package documents

import "docqa-backend/internal/shared/apperr"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is one window of an owner's documents.
type Page struct {
	Items      []Document
	Total      int
	NextOffset *int
}

// NextOffset returns offset+limit when rows exist past the window, else nil.
func NextOffset(offset, limit, total int) *int {
	if offset+limit < total {
		next := offset + limit
		return &next
	}
	return nil
}

// validatePage applies the default limit and rejects out-of-range values.
func validatePage(offset, limit int) (int, *apperr.Error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	var fields []apperr.FieldError
	if limit < 1 || limit > MaxPageLimit {
		fields = append(fields, apperr.FieldError{Field: "limit", Message: "must be between 1 and 100"})
	}
	if offset < 0 {
		fields = append(fields, apperr.FieldError{Field: "offset", Message: "must be at least 0"})
	}
	if len(fields) > 0 {
		return 0, apperr.Validation("invalid pagination", fields...)
	}
	return limit, nil
}
