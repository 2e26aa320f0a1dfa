// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/payouts": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payouts"],
                "summary": "Create a payout",
                "parameters": [
                    {"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Payout request", "name": "request", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/payout.Request"}}
                ],
                "responses": {
                    "201": {"description": "Payout created", "schema": {"$ref": "#/definitions/common.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "402": {"description": "Payout declined", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "503": {"description": "Provider unavailable", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/v1/payouts/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["payouts"],
                "summary": "Get payout status",
                "parameters": [{"type": "string", "description": "Payout ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Payout status", "schema": {"$ref": "#/definitions/common.Response"}},
                    "404": {"description": "Payout not found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/v1/wallets/{id}/payouts": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["payouts"],
                "summary": "List wallet payouts",
                "parameters": [
                    {"type": "string", "description": "Source wallet ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum number of payouts", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Payouts", "schema": {"$ref": "#/definitions/common.Response"}}}
            }
        },
        "/api/v1/validate/iban": {"post": {"tags": ["validation"], "summary": "Validate an IBAN",
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validate.Request"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/validate.Result"}}}}},
        "/api/v1/validate/bic": {"post": {"tags": ["validation"], "summary": "Validate a BIC",
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validate.Request"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/validate.Result"}}}}},
        "/api/v1/validate/rut": {"post": {"tags": ["validation"], "summary": "Validate a Chilean RUT",
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validate.Request"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/validate.Result"}}}}}
    },
    "definitions": {
        "common.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "retryable": {"type": "boolean"},
                "retryAfter": {"type": "integer"}
            }
        },
        "common.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/common.ErrorBody"}}
        },
        "common.Response": {
            "type": "object",
            "properties": {"status": {"type": "integer"}, "message": {"type": "string"}, "data": {}}
        },
        "payout.BankAccount": {
            "type": "object",
            "required": ["bic", "country", "holderName", "iban"],
            "properties": {
                "holderName": {"type": "string"},
                "iban": {"type": "string"},
                "bic": {"type": "string"},
                "bankName": {"type": "string"},
                "country": {"type": "string"},
                "city": {"type": "string"}
            }
        },
        "payout.Request": {
            "type": "object",
            "required": ["amount", "currency", "destination"],
            "properties": {
                "amount": {"type": "string", "example": "100.50"},
                "currency": {"type": "string", "example": "EUR"},
                "sourceWalletId": {"type": "string"},
                "destination": {"$ref": "#/definitions/payout.BankAccount"},
                "description": {"type": "string"},
                "idempotencyKey": {"type": "string"}
            }
        },
        "validate.Request": {
            "type": "object",
            "required": ["value"],
            "properties": {"value": {"type": "string"}}
        },
        "validate.Result": {
            "type": "object",
            "properties": {"valid": {"type": "boolean"}, "formatted": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stealth Money API",
	Description:      "Payouts from a stablecoin wallet to European bank accounts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
