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

var (
	specOnce sync.Once
	spec     *openapi3.T
	specErr  error
)

// Spec returns the embedded API description, parsed and validated once.
func Spec() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			specErr = fmt.Errorf("load openapi spec: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = fmt.Errorf("validate openapi spec: %w", err)
			return
		}
		spec = doc
	})
	return spec, specErr
}

// APIVersion returns info.version of the embedded spec, or "unknown".
func APIVersion() string {
	doc, err := Spec()
	if err != nil || doc.Info == nil {
		return "unknown"
	}
	return doc.Info.Version
}
