package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const reviewSource = `{% for step in steps %}{{ step.title|safe }}
{% for field in step.fields %}  {{ field.label|safe }}: {{ field.value|safe }}
{% empty %}  (nothing entered)
{% endfor %}{% endfor %}`

var reviewTemplate = pongo2.Must(pongo2.FromString(reviewSource))

// Summary renders the answers grouped by step for the review screen. Empty
// optional fields are omitted.
func Summary(steps []wizard.StepDefinition, values wizard.FormState) (string, error) {
	groups := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		fields := make([]map[string]any, 0, len(step.Keys()))
		for _, key := range step.Keys() {
			value := wizard.ValueOf(values[key])
			if value.IsEmpty() {
				continue
			}
			fields = append(fields, map[string]any{
				"label": wizard.HumanizeKey(key),
				"value": displayValue(values[key]),
			})
		}
		groups = append(groups, map[string]any{
			"title":  step.Title,
			"fields": fields,
		})
	}

	out, err := reviewTemplate.Execute(pongo2.Context{"steps": groups})
	if err != nil {
		return "", fmt.Errorf("tui: render summary: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func displayValue(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case time.Time:
		return typed.Format(wizard.DateLayout)
	case *time.Time:
		if typed == nil {
			return ""
		}
		return typed.Format(wizard.DateLayout)
	case string:
		return strings.TrimSpace(strings.ReplaceAll(typed, "\n", " "))
	default:
		return fmt.Sprint(typed)
	}
}
