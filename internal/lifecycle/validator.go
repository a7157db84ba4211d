package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/models"
)

// CompleteJobRequest is the body of a job completion request.
type CompleteJobRequest struct {
	SignatureURL  string                 `json:"signature_url" validate:"required,url"`
	Checklist     []models.ChecklistItem `json:"checklist,omitempty" validate:"omitempty,dive"`
	PartsUsed     []models.PartUsed      `json:"parts_used,omitempty" validate:"omitempty,dive"`
	EngineerNotes *string                `json:"engineer_notes,omitempty" validate:"omitempty,max=5000"`
}

// TransitionRequest is the body of a status change request.
type TransitionRequest struct {
	Status models.JobStatus `json:"status" validate:"required"`
	Notes  *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "is required",
	"url":      "must be a valid URL",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"max":      "must be at most %s characters",
}

// CheckCompletable rejects completion of a job in a terminal status.
func CheckCompletable(status models.JobStatus) error {
	switch status {
	case models.JobStatusCompleted:
		return apperr.Conflict("Job is already completed").
			WithDetails(map[string]interface{}{"current_status": string(status)})
	case models.JobStatusCancelled:
		return apperr.Conflict("Cannot complete a cancelled job").
			WithDetails(map[string]interface{}{"current_status": string(status)})
	}
	return nil
}

// CheckChecklist rejects a checklist with incomplete items. A missing
// checklist has nothing to block on.
func CheckChecklist(items []models.ChecklistItem) error {
	var incomplete []string
	for _, item := range items {
		if !item.Completed {
			incomplete = append(incomplete, item.Item)
		}
	}
	if len(incomplete) == 0 {
		return nil
	}
	return apperr.Validation(fmt.Sprintf("%d checklist item(s) are incomplete", len(incomplete))).
		WithDetails(map[string]interface{}{
			"field":            "checklist",
			"incomplete_count": len(incomplete),
			"incomplete_items": incomplete,
		})
}

// validateStruct runs the schema tags of req and converts failures into a
// Validation error keyed by json field path.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, err, "Request validation failed")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	first := fieldPath(verrs[0])
	message := "Request validation failed"
	if first == "signature_url" {
		message = "signature_url must be a valid URL to the stored client signature"
	}
	return apperr.Validation(message).WithDetails(map[string]interface{}{
		"field":  first,
		"fields": fields,
	})
}

// fieldPath strips the struct name from the validator namespace,
// e.g. "CompleteJobRequest.parts_used[0].quantity" -> "parts_used[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

// validateCompletion checks the payload schema and the signature reference.
func (s *Service) validateCompletion(req *CompleteJobRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if s.signatures == nil {
		return nil
	}
	if err := s.signatures.Validate(req.SignatureURL); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "signature_url must be a valid URL to the stored client signature").
			WithDetails(map[string]interface{}{"field": "signature_url"})
	}
	return nil
}
