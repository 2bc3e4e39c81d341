// Package apidocs holds the Swagger document served under /swagger when the
// binary is built with -tags=swagger. Keep it in sync with the handler
// annotations in internal/httpapi.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "tags": ["models"], "summary": "List models", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/status": {
            "get": {
                "tags": ["status"], "summary": "Session status", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/load": {
            "post": {
                "tags": ["session"], "summary": "Load a model",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoadRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/generate": {
            "post": {
                "tags": ["generation"], "summary": "Generate text",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/generate/stream": {
            "post": {
                "tags": ["generation"], "summary": "Stream a generation to the subscriber",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StreamResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stream": {
            "get": {
                "tags": ["generation"], "summary": "Subscribe to stream events (NDJSON)", "produces": ["application/x-ndjson"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StreamEvent"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stream/ws": {
            "get": {
                "tags": ["generation"], "summary": "Subscribe to stream events (WebSocket)",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stop": {
            "post": {
                "tags": ["generation"], "summary": "Stop the running generation", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SuccessResponse"}}}
            }
        },
        "/unload": {
            "post": {
                "tags": ["session"], "summary": "Unload the model", "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SuccessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/info": {
            "get": {
                "tags": ["session"], "summary": "Loaded model info", "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelInfoResponse"}},
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "name": {"type": "string"}, "path": {"type": "string"},
                "quant": {"type": "string"}, "family": {"type": "string"},
                "size_bytes": {"type": "integer"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}}
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "model_path": {"type": "string"},
                "subscribed": {"type": "boolean"},
                "queue_len": {"type": "integer"},
                "last_error": {"type": "string"},
                "loads_total": {"type": "integer"},
                "tokens_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.LoadRequest": {
            "type": "object",
            "properties": {
                "modelPath": {"type": "string", "example": "/home/user/models/tinyllama-1.1b.Q4_K_M.gguf"},
                "model": {"type": "string", "example": "tinyllama-1.1b.Q4_K_M.gguf"},
                "nThreads": {"type": "integer", "example": 4},
                "nGpuLayers": {"type": "integer", "example": 0},
                "contextSize": {"type": "integer", "example": 2048},
                "batchSize": {"type": "integer", "example": 512},
                "useGpu": {"type": "boolean", "example": true},
                "verbose": {"type": "boolean", "example": false}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "required": ["prompt"],
            "properties": {
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."},
                "temperature": {"type": "number", "example": 0.8},
                "topP": {"type": "number", "example": 0.95},
                "topK": {"type": "integer", "example": 40},
                "maxTokens": {"type": "integer", "example": 512},
                "repeatPenalty": {"type": "number", "example": 1.1}
            }
        },
        "types.SuccessResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean", "example": true}}
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "tokensGenerated": {"type": "integer"},
                "generationTimeMs": {"type": "integer"}
            }
        },
        "types.StreamResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "tokensGenerated": {"type": "integer"},
                "generationTimeMs": {"type": "integer"},
                "stopped": {"type": "boolean"}
            }
        },
        "types.StreamEvent": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}, "done": {"type": "boolean"},
                "error": {"type": "string"}, "kind": {"type": "string"}
            }
        },
        "types.ModelInfoResponse": {
            "type": "object",
            "properties": {
                "modelPath": {"type": "string"}, "paramCount": {"type": "integer"},
                "layerCount": {"type": "integer"}, "contextSize": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "model not loaded"},
                "code": {"type": "integer", "example": 409},
                "kind": {"type": "string", "example": "MODEL_NOT_LOADED"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llamabridge API",
	Description:      "HTTP API for a single llama.cpp session: load, generate, stream and stop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
