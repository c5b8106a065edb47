package http

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
})

// GetSwagger returns the parsed and validated OpenAPI document served at /openapi.yaml.
func GetSwagger() (*openapi3.T, error) {
	return loadSpec()
}

// RawSpec returns the embedded OpenAPI document as YAML.
func RawSpec() []byte {
	return rawSpec
}
