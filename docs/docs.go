// Package docs holds the OpenAPI 2.0 document served under /swagger. It is
// maintained by hand alongside the swag annotations on the controllers; keep
// both in step when a route changes.
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
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current session user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MeResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/{table}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tables"],
                "summary": "List rows",
                "description": "PostgREST-style filters: column=eq.value, gte., lte., gt., lt., in.(a,b), order=col.desc, limit=n, offset=n, select=cols",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}, "headers": {"X-Total-Count": {"type": "integer", "description": "Number of rows returned"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tables"],
                "summary": "Insert one row (object body) or several rows (array body)",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"description": "Row or rows", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/{table}/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tables"],
                "summary": "Get one row",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tables"],
                "summary": "Update one row",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tables"],
                "summary": "Update one row (same as PUT)",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tables"],
                "summary": "Delete one row",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/rpc/update_produto_estoque": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["RPC"],
                "summary": "Adjust product stock",
                "parameters": [
                    {"description": "Movement", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StockAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/functions/buscar_aluno": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Functions"],
                "summary": "Find a student by matricula (12 digits) or folder number (4 digits)",
                "parameters": [
                    {"description": "Code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StudentLookupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StudentLookupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/functions/liberacoes_history": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Functions"],
                "summary": "Most recent releases",
                "parameters": [
                    {"description": "Limit", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.HistoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryResponse"}}
                }
            }
        },
        "/functions/verificar_liberacao": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Functions"],
                "summary": "Warnings before releasing a meal",
                "parameters": [
                    {"description": "Student", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReleaseCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/functions/dashboard_stats": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Functions"],
                "summary": "Dashboard figures",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/functions/estoque_alertas": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Functions"],
                "summary": "Low stock and expiring products",
                "parameters": [
                    {"description": "Window in days", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.StockAlertsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "field": {"type": "string"},
                "severity": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.SessionUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/dto.SessionUser"}
            }
        },
        "dto.MeResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/dto.SessionUser"}
            }
        },
        "dto.StockAdjustmentRequest": {
            "type": "object",
            "properties": {
                "produto_id": {"type": "string"},
                "tipo": {"type": "string", "enum": ["entrada", "saida"]},
                "tipo_movimentacao": {"type": "string", "enum": ["entrada", "saida"]},
                "quantidade": {"type": "number"},
                "nova_quantidade": {"type": "number"},
                "observacao": {"type": "string"},
                "usuario_id": {"type": "string"}
            }
        },
        "dto.OkResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"}
            }
        },
        "dto.StudentLookupRequest": {
            "type": "object",
            "properties": {
                "codigo": {"type": "string"},
                "query": {"type": "string"}
            }
        },
        "dto.StudentLookupResponse": {
            "type": "object",
            "properties": {
                "aluno": {"type": "object"}
            }
        },
        "dto.HistoryRequest": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"}
            }
        },
        "dto.HistoryResponse": {
            "type": "object",
            "properties": {
                "liberacoes": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.ReleaseCheckRequest": {
            "type": "object",
            "required": ["aluno_id"],
            "properties": {
                "aluno_id": {"type": "string"}
            }
        },
        "dto.StockAlertsRequest": {
            "type": "object",
            "properties": {
                "dias": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token as \"Bearer <token>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Cantina Verde Local API",
	Description:      "Local backend for the Cantina Verde school canteen: authentication, table CRUD, stock RPC, canteen functions and a realtime feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
