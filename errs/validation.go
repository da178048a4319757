package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Publishing workflow validation errors. Every one of these is recoverable:
// the request is rejected as a whole and nothing is persisted.
var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrExtensionMismatch  = errors.New("file extension does not match declared media type")
	ErrInvalidImage       = errors.New("file is not a decodable image")
	ErrMediaLimitExceeded = errors.New("media limit exceeded")
	ErrSlugCollision      = errors.New("slug already in use")
)

func NewFileTooLargeError(filename string, size, limit int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrFileTooLarge,
		Details:    fmt.Sprintf("%s is %d bytes, limit is %d", filename, size, limit),
		Field:      filename,
	}
}

func NewExtensionMismatchError(filename, declared string, allowed []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrExtensionMismatch,
		Details:    fmt.Sprintf("%s is not a valid %s file. Allowed: %s", filename, declared, strings.Join(allowed, ", ")),
		Field:      filename,
	}
}

func NewInvalidImageError(filename string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidImage,
		Details:    fmt.Sprintf("%s could not be decoded as an image", filename),
		Cause:      cause,
		Field:      filename,
	}
}

func NewMediaLimitExceededError(projected, limit int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMediaLimitExceeded,
		Details:    fmt.Sprintf("project would have %d media items, limit is %d", projected, limit),
		Field:      "media",
	}
}

func NewSlugCollisionError(slug string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrSlugCollision,
		Details:    fmt.Sprintf("slug %q is already taken", slug),
		Field:      "slug",
	}
}

func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsExtensionMismatch(err error) bool {
	return errors.Is(err, ErrExtensionMismatch)
}

func IsInvalidImage(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}

func IsMediaLimitExceeded(err error) bool {
	return errors.Is(err, ErrMediaLimitExceeded)
}

func IsSlugCollision(err error) bool {
	return errors.Is(err, ErrSlugCollision)
}

// ValidationErrors collects every validation failure from a single save
// attempt so the caller can fix all problems in one round trip.
type ValidationErrors struct {
	Errors []*ApiErr
}

func (v *ValidationErrors) Add(err *ApiErr) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v.Errors), strings.Join(msgs, "; "))
}

// Is reports a match when any collected error matches target, so
// errors.Is(validationErrs, ErrFileTooLarge) works on the aggregate.
func (v *ValidationErrors) Is(target error) bool {
	for _, e := range v.Errors {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

// StatusCode returns the status of the first collected error, or 400.
func (v *ValidationErrors) StatusCode() int {
	if len(v.Errors) > 0 {
		return v.Errors[0].StatusCode
	}
	return http.StatusBadRequest
}
