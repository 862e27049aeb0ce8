package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorState        ErrorCode = "state"
)

// Domain reasons carried by ServiceError. They double as i18n keys ("err.<reason>").
const (
	ReasonValidation         = "validation"
	ReasonInvalidBody        = "invalid_body"
	ReasonInvalidQuestion    = "invalid_question_type"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonUnauthenticated    = "unauthenticated"
	ReasonForbidden          = "forbidden"
	ReasonEmailExists        = "email_exists"

	ReasonSurveyNotFound   = "survey_not_found"
	ReasonQuestionNotFound = "question_not_found"
	ReasonDraftNotFound    = "draft_not_found"
	ReasonUserNotFound     = "user_not_found"

	ReasonSurveyArchived = "survey_archived"
	ReasonNotArchived    = "survey_not_archived"
	ReasonInvalidState   = "invalid_state"

	ReasonSurveyExpired      = "survey_expired"
	ReasonSurveyNotActive    = "survey_not_yet_active"
	ReasonSurveyNotPublished = "survey_not_published"
	ReasonResponseLimit      = "response_limit_reached"
	ReasonInvalidInvite      = "invalid_invite_token"
	ReasonInviteMismatch     = "invite_mismatch"
	ReasonInviteExpired      = "invite_expired"
	ReasonInviteExhausted    = "invite_exhausted"
	ReasonInviteRequired     = "invite_required"
	ReasonAuthorCannotAnswer = "author_cannot_respond"
	ReasonSingleResponse     = "single_response_violation"
	ReasonDuplicateAnonymous = "duplicate_anonymous_response"
)

type ServiceError struct {
	Code    ErrorCode
	Reason  string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error {
	return &ServiceError{Code: ErrorInvalid, Reason: ReasonValidation, Message: msg}
}
func NewForbiddenError(msg string) error {
	return &ServiceError{Code: ErrorForbidden, Reason: ReasonForbidden, Message: msg}
}
func NewNotFoundError(reason, msg string) error {
	return &ServiceError{Code: ErrorNotFound, Reason: reason, Message: msg}
}
func NewConflictError(reason, msg string) error {
	return &ServiceError{Code: ErrorConflict, Reason: reason, Message: msg}
}
func NewUnauthorizedError(reason, msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Reason: reason, Message: msg}
}

// NewStateError reports a rule violation against the current survey or invite state.
func NewStateError(reason, msg string) error {
	return &ServiceError{Code: ErrorState, Reason: reason, Message: msg}
}

// newError builds an error with an explicit code and reason.
func newError(code ErrorCode, reason, msg string) error {
	return &ServiceError{Code: code, Reason: reason, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ReasonOf returns the domain reason of err, or "" for foreign errors.
func ReasonOf(err error) string {
	if se, ok := AsServiceError(err); ok {
		return se.Reason
	}
	return ""
}

var errSurveyNotFound = NewNotFoundError(ReasonSurveyNotFound, "survey not found")
