package services

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

// ErrorKind classifies the failures a service can report to its caller.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConflict
	KindForbidden
	KindValidation
)

// Error is a domain failure with a message that is safe to show to clients.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func notFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func forbidden(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// IsKind reports whether err is a service Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}

// isDuplicate maps a translated unique-constraint violation.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// BulkFailure is one item of a batch that could not be processed.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult collects the per-item outcome of a batch operation.
type BulkResult[T any] struct {
	Success []T           `json:"success"`
	Failed  []BulkFailure `json:"failed"`
}

func newBulkResult[T any]() *BulkResult[T] {
	return &BulkResult[T]{Success: []T{}, Failed: []BulkFailure{}}
}

func (r *BulkResult[T]) fail(id string, err error) {
	r.Failed = append(r.Failed, BulkFailure{ID: id, Error: err.Error()})
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// normalizePage clamps paging input to sane defaults.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
