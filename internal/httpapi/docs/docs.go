// Package docs registers the OpenAPI document served by the Swagger UI.
// Keep it in step with the route annotations in internal/httpapi/server.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "description": "Canonical manifests of the models found in the store.",
                "produces": ["application/json"],
                "summary": "List models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/models/{name}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get model",
                "parameters": [
                    {"type": "string", "description": "model name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/predictions": {
            "post": {
                "description": "Runs preprocess, inference and postprocess over the inputs. On failure every output slot holds the error text and the handler's reported status code is returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Run one batch",
                "parameters": [
                    {"description": "batch", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.PredictResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Handler status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"type": "object"}}
            }
        },
        "types.PredictRequest": {
            "type": "object",
            "properties": {
                "inputs": {"type": "array", "items": {}}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "string"},
                "error": {"type": "string", "example": "Unknown inference error"},
                "outputs": {"type": "array", "items": {}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "handler": {"type": "string"},
                "state": {"type": "string", "example": "ready"},
                "initialized": {"type": "boolean"},
                "batch_size": {"type": "integer"},
                "last_error": {"type": "string"},
                "last_timings_ms": {"type": "object", "additionalProperties": {"type": "number"}},
                "queue_len": {"type": "integer"},
                "inflight": {"type": "integer"},
                "max_queue_depth": {"type": "integer"},
                "batches_total": {"type": "integer"},
                "failures_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "handlerd API",
	Description:      "HTTP API hosting one batch handler: manifests, status and predictions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
