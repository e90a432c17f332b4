package formatting

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatPlan writes the plan as YAML.
func (f *YAMLFormatter) FormatPlan(w io.Writer, report PlanReport) error {
	return f.write(w, report)
}

// FormatResult writes the run result as YAML.
func (f *YAMLFormatter) FormatResult(w io.Writer, report ResultReport) error {
	return f.write(w, report)
}

func (f *YAMLFormatter) write(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}
