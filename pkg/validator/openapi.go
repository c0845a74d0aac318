package validator

import (
	"context"
	stderrors "errors"
	"fmt"

	"communities/messages/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document
type OpenAPIValidator struct {
	swagger *openapi3.T
	router  routers.Router
}

// NewOpenAPIValidator parses and validates the document, then builds a router over it
func NewOpenAPIValidator(ctx context.Context, document []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema: %w", err)
	}

	if err := swagger.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{
		swagger: swagger,
		router:  router,
	}, nil
}

// Middleware returns a Gin middleware function that validates requests against the OpenAPI schema.
// Requests for routes the document does not describe pass through.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.Error(errors.NewBadRequestError("invalid_request", describe(err)))
			c.Abort()
			return
		}

		c.Next()
	}
}

func describe(err error) string {
	var reqErr *openapi3filter.RequestError
	if stderrors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("Invalid parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.RequestBody != nil {
			return "Invalid request body: " + reqErr.Error()
		}
	}
	return "Invalid request: " + err.Error()
}
