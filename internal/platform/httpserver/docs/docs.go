// Package docs registers the OpenAPI document served at /swagger/doc.json.
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
        "/v1/gas/estimate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["gas"],
                "summary": "Compare batch gas cost against individual transfers",
                "parameters": [
                    {
                        "type": "integer",
                        "name": "recipient_count",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/ledger/batches": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Execute an atomic batch transfer",
                "parameters": [
                    {
                        "type": "string",
                        "name": "X-Caller-Address",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/ledger/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Read ledger counters and access-control state",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/transfers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "List tracked submissions, newest first",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "Submit a batch optimistically and track it",
                "parameters": [
                    {
                        "type": "string",
                        "name": "X-Caller-Address",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/transfers/{entry_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "Fetch one tracked submission",
                "parameters": [
                    {
                        "type": "string",
                        "name": "entry_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "Dismiss a resolved submission",
                "parameters": [
                    {
                        "type": "string",
                        "name": "entry_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MultiSender Ledger API",
	Description:      "Atomic batch transfers with client-side optimistic tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
