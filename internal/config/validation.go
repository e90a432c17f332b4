package config

import (
	"fmt"
	"net/url"
	"strings"

	"wikisync/internal/template"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, purpose string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", purpose),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateURL checks that value is an absolute http or https URL.
func ValidateURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be an absolute http(s) URL",
		}
	}
	return nil
}

// Validate checks the configuration and returns every problem at once as
// ValidationErrors. requireTarget is false for commands that only read
// from the source wiki.
func (c Config) Validate(requireTarget bool) error {
	var errs ValidationErrors
	add := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	if err := ValidateRequired("source.api", c.Source.API, "reading changes"); err != nil {
		add(err)
	} else {
		add(ValidateURL("source.api", c.Source.API))
	}
	validateCredentials(&errs, "source", c.Source)

	if requireTarget {
		if err := ValidateRequired("target.api", c.Target.API, "syncing"); err != nil {
			add(err)
		} else {
			add(ValidateURL("target.api", c.Target.API))
		}
		if !c.Target.HasLogin() && c.Target.OAuthToken == "" {
			errs.Add("target", "needs username and password or an oauthToken")
		}
		validateCredentials(&errs, "target", c.Target)
		add(ValidateRequired("import.interwikiPrefix", c.Import.InterwikiPrefix, "importing uploaded XML"))
	}

	if c.Proxy != "" {
		add(ValidateURL("proxy", c.Proxy))
	}
	if c.Timeout < 0 {
		errs.Add("timeout", "must not be negative", c.Timeout)
	}
	if c.Export.BatchSize < 1 || c.Export.BatchSize > MaxBatchSize {
		errs.Add("export.batchSize", fmt.Sprintf("must be between 1 and %d", MaxBatchSize), c.Export.BatchSize)
	}
	add(ValidateRequired("watermarkFile", c.WatermarkFile, "storing the sync position"))

	if _, err := template.New(c.Import.Summary); err != nil {
		errs.Add("import.summary", err.Error(), c.Import.Summary)
	}

	add(ValidateOneOf("fixtures.mode", c.Fixtures.Mode, []string{"", "record", "replay"}))
	if c.Fixtures.Mode != "" {
		add(ValidateRequired("fixtures.dir", c.Fixtures.Dir, "fixture "+c.Fixtures.Mode))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateCredentials(errs *ValidationErrors, prefix string, w WikiConfig) {
	if w.Username != "" && w.Password == "" {
		errs.Add(prefix+".password", "is required when a username is set")
	}
	if w.Username == "" && w.Password != "" {
		errs.Add(prefix+".username", "is required when a password is set")
	}
	if w.Username != "" && w.OAuthToken != "" {
		errs.Add(prefix, "set either username/password or oauthToken, not both")
	}
}
