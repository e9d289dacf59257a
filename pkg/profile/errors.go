package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusError reports an unexpected HTTP status from the profile API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("profile: %s %s: unexpected status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("profile: %s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// ValidationError is returned when the API rejects the submitted answers.
// It satisfies wizard.FieldErrorer so the wizard can surface the messages on
// the offending fields.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string][]string
	Form    []string
}

func (e *ValidationError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("profile: %s (%d field errors)", msg, len(e.Fields))
	}
	return "profile: " + msg
}

// FieldErrors returns the first message of every field.
func (e *ValidationError) FieldErrors() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for key, messages := range e.Fields {
		if len(messages) > 0 {
			out[key] = messages[0]
		}
	}
	return out
}

// FormErrors returns the messages that could not be tied to a field, for
// hosts to show alongside the submission failure.
func (e *ValidationError) FormErrors() []string {
	return MergeFormErrors(e.Form)
}

// ErrorMapping splits an API error payload into field-level and form-level
// messages keyed by wizard field keys.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises form-level messages, trimming
// whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises API error paths (JSON pointers, dotted paths,
// snake_case keys, request wrappers such as "body") onto the known field
// keys. Unknown paths become form-level messages so nothing is lost.
func MapErrorPayload(fieldKeys []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]string, len(fieldKeys))
	for _, key := range fieldKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			known[canonicalKey(trimmed)] = trimmed
		}
	}

	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}

		field, formLevel := mapErrorPath(rawPath, known)
		if formLevel {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[field] = append(mapping.Fields[field], normalized...)
	}

	for key, messages := range mapping.Fields {
		mapping.Fields[key] = normalizeMessages(messages)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, known map[string]string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := stripNumericSegments(dropWrapperSegments(parsePathSegments(trimmed)))
	if len(segments) == 0 {
		return "", true
	}

	// Nested paths such as "profile.email" resolve to the deepest known key.
	for i := len(segments) - 1; i >= 0; i-- {
		if field, ok := known[canonicalKey(segments[i])]; ok {
			return field, false
		}
	}
	return "", true
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
		"profile":    {},
	}

	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func canonicalKey(key string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(key))
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
