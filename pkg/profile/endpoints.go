package profile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation ids the client resolves from the API document.
const (
	OperationGetProfile    = "getProfile"
	OperationUpdateProfile = "updateProfile"
)

//go:embed openapi.yaml
var defaultDocument []byte

// ErrOperationMissing is returned when the API document lacks one of the
// profile operations.
var ErrOperationMissing = errors.New("profile: operation not found in document")

// Endpoint is a resolved method and path.
type Endpoint struct {
	Method string
	Path   string
}

// Endpoints holds the two profile operations the client calls.
type Endpoints struct {
	Get    Endpoint
	Update Endpoint
}

// DefaultDocument returns the embedded API description.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// DefaultEndpoints resolves the endpoints of the embedded API description.
func DefaultEndpoints(ctx context.Context) (Endpoints, error) {
	return LoadEndpoints(ctx, defaultDocument)
}

// LoadEndpoints parses an OpenAPI 3 document (JSON or YAML) and resolves the
// getProfile and updateProfile operations.
func LoadEndpoints(ctx context.Context, data []byte) (Endpoints, error) {
	if err := ctx.Err(); err != nil {
		return Endpoints{}, err
	}
	if len(data) == 0 {
		return Endpoints{}, errors.New("profile: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Endpoints{}, fmt.Errorf("profile: load openapi document: %w", err)
	}

	operations := collectOperations(doc)

	get, ok := operations[OperationGetProfile]
	if !ok {
		return Endpoints{}, fmt.Errorf("%w: %s", ErrOperationMissing, OperationGetProfile)
	}
	update, ok := operations[OperationUpdateProfile]
	if !ok {
		return Endpoints{}, fmt.Errorf("%w: %s", ErrOperationMissing, OperationUpdateProfile)
	}
	return Endpoints{Get: get, Update: update}, nil
}

func collectOperations(doc *openapi3.T) map[string]Endpoint {
	out := make(map[string]Endpoint)
	if doc == nil || doc.Paths == nil {
		return out
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := strings.TrimSpace(operation.OperationID)
			if id == "" {
				continue
			}
			if _, exists := out[id]; exists {
				continue
			}
			out[id] = Endpoint{Method: strings.ToUpper(method), Path: path}
		}
	}
	return out
}
