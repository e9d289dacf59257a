package orchestrator

import (
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Transformer rewrites seed answers before the wizard opens. Hosts use it to
// map legacy payloads or derive values the API does not return.
type Transformer interface {
	Transform(ctx context.Context, values wizard.FormState) (wizard.FormState, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, values wizard.FormState) (wizard.FormState, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, values wizard.FormState) (wizard.FormState, error) {
	if fn == nil {
		return values, nil
	}
	return fn(ctx, values)
}

// SeedValues keeps the payload entries that belong to the flow, matching
// keys case-insensitively and ignoring "_", "-" and spaces so phone_number
// seeds phoneNumber. Exact keys win over normalised matches; among
// normalised matches the lexically first payload key wins. Nil values are
// dropped.
func SeedValues(fieldKeys []string, payload wizard.FormState) wizard.FormState {
	known := make(map[string]string, len(fieldKeys))
	for _, key := range fieldKeys {
		known[canonicalKey(key)] = key
	}

	raws := make([]string, 0, len(payload))
	for raw := range payload {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	out := make(wizard.FormState, len(payload))
	exact := make(map[string]bool, len(payload))
	for _, raw := range raws {
		value := payload[raw]
		if value == nil {
			continue
		}
		key, ok := known[canonicalKey(raw)]
		if !ok {
			continue
		}
		isExact := raw == key
		if _, seen := out[key]; seen && (exact[key] || !isExact) {
			continue
		}
		out[key] = value
		exact[key] = isExact
	}
	return out
}

func canonicalKey(key string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(key)))
}
