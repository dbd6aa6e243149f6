// Package api holds the OpenAPI document for the HTTP surface.
package api

import _ "embed"

// OpenAPISpec is served verbatim at GET /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
