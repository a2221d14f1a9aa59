// Package docs holds the OpenAPI description served at /api/swagger.
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
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Log out",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["rooms"],
                "summary": "Browse rooms",
                "parameters": [{"type": "string", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["rooms"],
                "summary": "Create room",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/rooms/{id}": {
            "get": {
                "tags": ["rooms"],
                "summary": "Get room",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["rooms"],
                "summary": "Update room",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["rooms"],
                "summary": "Delete room",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/rooms/{id}/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["messages"],
                "summary": "Post message",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/messages/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["messages"],
                "summary": "Delete message",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["users"],
                "summary": "User profile",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Own profile",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update own profile",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete own account",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/topics": {
            "get": {
                "tags": ["topics"],
                "summary": "List topics",
                "parameters": [{"type": "string", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/activity": {
            "get": {
                "tags": ["messages"],
                "summary": "Recent activity",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/features": {
            "get": {
                "tags": ["meta"],
                "summary": "Feature flags",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "StudyBud API",
	Description:      "Topic-based study rooms with threaded messages",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
