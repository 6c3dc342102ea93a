// Package apperror defines the error taxonomy shared by the assessment services.
// Handlers map a Kind onto an HTTP status; the Code travels to clients unchanged.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindDomainRule
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindDomainRule:
		return "domain_rule"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is matches errors carrying the same Code, so wrapped copies still compare equal
// to the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// ─── Sentinels ──────────────────────────────────────────────────────────────

var (
	ErrSessionNotActive     = &Error{Kind: KindDomainRule, Code: "SESSION_NOT_ACTIVE", Message: "session is not currently active"}
	ErrClassInactive        = &Error{Kind: KindDomainRule, Code: "CLASS_INACTIVE", Message: "class is not active"}
	ErrExamHasNoQuestions   = &Error{Kind: KindDomainRule, Code: "NO_QUESTIONS", Message: "exam has no questions"}
	ErrAttemptLimitExceeded = &Error{Kind: KindConflict, Code: "ATTEMPT_LIMIT_EXCEEDED", Message: "maximum number of attempts reached"}
	ErrAlreadySubmitted     = &Error{Kind: KindConflict, Code: "ALREADY_SUBMITTED", Message: "attempt is no longer in progress"}
	ErrStartConflict        = &Error{Kind: KindConflict, Code: "START_CONFLICT", Message: "concurrent attempt start, retry the request"}
	ErrSessionHasAttempts   = &Error{Kind: KindConflict, Code: "SESSION_HAS_ATTEMPTS", Message: "session already has attempts"}
	ErrNotAttemptOwner      = &Error{Kind: KindForbidden, Code: "NOT_ATTEMPT_OWNER", Message: "attempt belongs to another student"}
	ErrNotEnrolled          = &Error{Kind: KindForbidden, Code: "NOT_ENROLLED", Message: "student is not enrolled in this class"}
	ErrNotClassTeacher      = &Error{Kind: KindForbidden, Code: "NOT_CLASS_TEACHER", Message: "only the class teacher may manage this session"}
	ErrStudentAccessOnly    = &Error{Kind: KindForbidden, Code: "STUDENT_ACCESS_ONLY", Message: "only students have enrolled sessions"}
)

// ─── Constructors ───────────────────────────────────────────────────────────

// NotFound reports a missing entity, e.g. NotFound("session", id).
func NotFound(entity string, id fmt.Stringer) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(entity) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// Validation reports invalid input with optional per-field details.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Fields: fields}
}

// Forbidden reports a caller without rights over a resource.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
