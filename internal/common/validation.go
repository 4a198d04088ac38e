package common

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns the combined errors wrapped around ErrValidation.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// AllowedFilename rejects names whose extension is not accepted for upload.
func AllowedFilename(fieldName string, value interface{}) *ValidationError {
	name, _ := value.(string)
	if !constants.IsAllowedExt(filepath.Ext(name)) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "only PDF, PNG, JPG and TXT files are supported",
		}
	}
	return nil
}

// MaxBytes builds a rule capping an int64 size.
func MaxBytes(limit int64) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		n, ok := value.(int64)
		if !ok {
			return nil
		}
		if n > limit {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("exceeds maximum size of %d MB", limit>>20),
			}
		}
		return nil
	}
}

// ValidateUpload checks an uploaded document's name and size.
func ValidateUpload(filename string, size int64) error {
	v := NewValidator().
		Field("filename", filename, Required, AllowedFilename).
		Field("size", size, MaxBytes(constants.MaxUploadBytes))
	if !v.HasErrors() {
		return nil
	}
	for _, e := range v.Errors() {
		if e.Field == "size" {
			return fmt.Errorf("%w: %s", ErrTooLarge, v.ErrorMessage())
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, v.ErrorMessage())
}
