package profile

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Sanitizer strips markup from free-text answers before they leave the
// client. Entities produced by the policy are decoded again so plain text
// such as "Go & Rust" survives unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer backed by bluemonday's strict policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text sanitises a single string.
func (s *Sanitizer) Text(value string) string {
	if s == nil || s.policy == nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

// Payload converts wizard answers into a JSON-ready map: strings are
// sanitised and dates are rendered as YYYY-MM-DD.
func (s *Sanitizer) Payload(values wizard.FormState) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		switch typed := value.(type) {
		case string:
			out[key] = s.Text(typed)
		case time.Time:
			if typed.IsZero() {
				out[key] = nil
				continue
			}
			out[key] = typed.Format(wizard.DateLayout)
		case *time.Time:
			if typed == nil || typed.IsZero() {
				out[key] = nil
				continue
			}
			out[key] = typed.Format(wizard.DateLayout)
		default:
			out[key] = typed
		}
	}
	return out
}
