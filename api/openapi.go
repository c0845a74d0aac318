// Package api holds the published HTTP contract of the messages service.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI document for the public routes
//
//go:embed openapi.yaml
var OpenAPISpec []byte
