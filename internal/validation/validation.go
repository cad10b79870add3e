// Package validation checks a mashup request before any external call is made.
package validation

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/makeasinger/mashup/internal/model"
)

// EmailTag is the validator tag bound to the delivery address pattern.
const EmailTag = "mashupemail"

// User-facing rejection messages
const (
	MsgMissingFields  = "Please provide both an artist and an email address."
	MsgInvalidEmail   = "That email format doesn't look right."
	MsgClipCount      = "Clips count must be at least 11."
	MsgClipDuration   = "Clip length must be at least 21 seconds."
	MsgInvalidJobID   = "Job ID must be a UUID."
	msgInvalidRequest = "Invalid request."
)

// Word characters are letters, digits and underscore in any script.
var emailPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// Error is returned when a request is rejected.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// IsValidEmail reports whether s looks like local-part@domain.tld.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// New returns a validator with the mashup tags registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(EmailTag, func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}

// ValidateRequest rejects a request with the message the user should see.
// Missing fields are reported ahead of a malformed address.
func ValidateRequest(v *validator.Validate, req *model.MashupRequest) error {
	if req.Artist == "" || req.Email == "" {
		return &Error{Message: MsgMissingFields, Fields: missingFields(req)}
	}

	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Message: msgInvalidRequest}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}

	// The first failing field decides the message, in form order
	switch {
	case fields["Email"] != "":
		return &Error{Message: MsgInvalidEmail, Fields: fields}
	case fields["ClipCount"] != "":
		return &Error{Message: MsgClipCount, Fields: fields}
	case fields["ClipDuration"] != "":
		return &Error{Message: MsgClipDuration, Fields: fields}
	case fields["JobID"] != "":
		return &Error{Message: MsgInvalidJobID, Fields: fields}
	}
	return &Error{Message: msgInvalidRequest, Fields: fields}
}

func missingFields(req *model.MashupRequest) map[string]string {
	fields := make(map[string]string)
	if req.Artist == "" {
		fields["Artist"] = "required"
	}
	if req.Email == "" {
		fields["Email"] = "required"
	}
	return fields
}
