package topicmgr

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validator checks topic paths against the rules of each bus operation
type Validator struct {
	// pathPattern defines the allowed character set
	pathPattern *regexp.Regexp
	validate    *validator.Validate
}

// pathRules are the structural rules shared by every operation.
const pathRules = "required,max=256,startswith=/,endsnotwith=/,excludes=//"

var reservedRoots = []string{TopicRoot, TopicSys, TopicClass, TopicUI}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	return &Validator{
		pathPattern: regexp.MustCompile(`^[._0-9a-zA-Z/-]*$`),
		validate:    validator.New(),
	}
}

// ValidateForRegister checks if path can be used to build a topic.
func (v *Validator) ValidateForRegister(path string) error {
	return v.validatePath(path)
}

// ValidateForSubscribe checks if path can be observed.
func (v *Validator) ValidateForSubscribe(path string) error {
	return v.validatePath(path)
}

// ValidateForPublish checks if path can be published to.
func (v *Validator) ValidateForPublish(path string) error {
	return v.validatePath(path)
}

// ValidateForRemove checks if path can be removed. The default topic and
// everything below it are never removable.
func (v *Validator) ValidateForRemove(path string) error {
	if err := v.validatePath(path); err != nil {
		return err
	}
	if (TopicPath{path: path}).IsDefault() {
		return &TopicError{
			Type:    ErrorInvalidTopic,
			Topic:   path,
			Message: "default topic cannot be removed",
		}
	}
	return nil
}

// validatePath applies the base validity rule
func (v *Validator) validatePath(path string) error {
	if err := v.validate.Var(path, pathRules); err != nil {
		return &TopicError{
			Type:    ErrorInvalidTopic,
			Topic:   path,
			Message: "invalid topic path",
			Cause:   describeRule(err),
		}
	}

	if !v.pathPattern.MatchString(path) {
		return &TopicError{
			Type:    ErrorInvalidTopic,
			Topic:   path,
			Message: "invalid topic path",
			Cause:   errors.New("only letters, digits, '.', '_', '-' and '/' are allowed"),
		}
	}

	for _, root := range reservedRoots {
		if path == root {
			return &TopicError{
				Type:    ErrorInvalidTopic,
				Topic:   path,
				Message: "reserved topic",
			}
		}
	}

	return nil
}

// describeRule converts the first failed validator tag into a readable reason.
func describeRule(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch tag := verrs[0].Tag(); tag {
	case "required":
		return errors.New("topic cannot be empty")
	case "max":
		return fmt.Errorf("topic longer than %d characters", MaxTopicLength)
	case "startswith":
		return errors.New("topic must start with '/'")
	case "endsnotwith":
		return errors.New("topic must not end with '/'")
	case "excludes":
		return errors.New("topic must not contain an empty segment")
	default:
		return fmt.Errorf("failed rule %q", tag)
	}
}

var defaultValidator = NewValidator()

// Package-level convenience functions that use the default validator

// ValidateForRegister checks path with the default validator
func ValidateForRegister(path string) error {
	return defaultValidator.ValidateForRegister(path)
}

// ValidateForSubscribe checks path with the default validator
func ValidateForSubscribe(path string) error {
	return defaultValidator.ValidateForSubscribe(path)
}

// ValidateForPublish checks path with the default validator
func ValidateForPublish(path string) error {
	return defaultValidator.ValidateForPublish(path)
}

// ValidateForRemove checks path with the default validator
func ValidateForRemove(path string) error {
	return defaultValidator.ValidateForRemove(path)
}

// IsValidForRegister reports whether path can be registered
func IsValidForRegister(path string) bool {
	return ValidateForRegister(path) == nil
}

// IsValidForSubscribe reports whether path can be observed
func IsValidForSubscribe(path string) bool {
	return ValidateForSubscribe(path) == nil
}

// IsValidForPublish reports whether path can be published to
func IsValidForPublish(path string) bool {
	return ValidateForPublish(path) == nil
}

// IsValidForRemove reports whether path can be removed
func IsValidForRemove(path string) bool {
	return ValidateForRemove(path) == nil
}
