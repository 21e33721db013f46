package http

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// rawSpec returns the embedded OpenAPI document.
func rawSpec() ([]byte, error) {
	return openapiSpec, nil
}

// GetSwagger returns the parsed and validated OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			swaggerErr = fmt.Errorf("failed to load openapi spec: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			swaggerErr = fmt.Errorf("invalid openapi spec: %w", err)
			return
		}
		swaggerDoc = doc
	})
	return swaggerDoc, swaggerErr
}

// requestValidator rejects requests that do not match the OpenAPI document.
// Requests to paths the document does not describe pass through.
func requestValidator(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, err.Error(), http.StatusMethodNotAllowed)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Debug("request rejected by openapi validation", "path", r.URL.Path, "err", err)
				http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
