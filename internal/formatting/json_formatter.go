package formatting

import (
	"fmt"
	"io"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatPlan writes the plan as indented JSON.
func (f *JSONFormatter) FormatPlan(w io.Writer, report PlanReport) error {
	_, err := fmt.Fprintln(w, PrettyJSON(report))
	return err
}

// FormatResult writes the run result as indented JSON.
func (f *JSONFormatter) FormatResult(w io.Writer, report ResultReport) error {
	_, err := fmt.Fprintln(w, PrettyJSON(report))
	return err
}
