// Package docs registers the OpenAPI document served under /swagger. It is
// maintained by hand alongside the swag annotations on cmd/api and the
// handlers; docs_test.go fails when the two drift apart.
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
                "description": "Authenticate a user and get a token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [
                    {"description": "User login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "User authenticated and tokens issued", "schema": {"$ref": "#/definitions/handlers.AuthEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New tokens issued", "schema": {"$ref": "#/definitions/handlers.AuthEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Invalid or reused refresh token", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "description": "Register a new user with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "User registered and tokens issued", "schema": {"$ref": "#/definitions/handlers.AuthEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Get all categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CategoryListEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Create a category",
                "parameters": [
                    {"description": "Category details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validator.CategoryPayload"}}
                ],
                "responses": {
                    "201": {"description": "Category created", "schema": {"$ref": "#/definitions/handlers.CategoryEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Get category by ID",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CategoryEnvelope"}},
                    "400": {"description": "Invalid category ID", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Update category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true},
                    {"description": "Category details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validator.CategoryPayload"}}
                ],
                "responses": {
                    "200": {"description": "Updated category", "schema": {"$ref": "#/definitions/handlers.CategoryEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete a category. Expenses keep their category text.",
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Delete category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Category deleted", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Invalid category ID", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-Sent Events stream. Emits \"connected\" once, then expenseCreated, expenseUpdated, expenseDeleted, categoryCreated, categoryUpdated and categoryDeleted with the record (or {\"id\"} for deletions) as JSON data. The token may be passed as the access_token query parameter.",
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Subscribe to changes",
                "parameters": [
                    {"type": "string", "description": "Access token for clients that cannot set headers", "name": "access_token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "503": {"description": "Shutting down", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/expenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "List the authenticated user's expenses, newest first unless sort=asc. endDate given as YYYY-MM-DD covers the whole day.",
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "List expenses",
                "parameters": [
                    {"type": "string", "description": "Exact category", "name": "category", "in": "query"},
                    {"type": "string", "description": "Start date (YYYY-MM-DD or RFC3339), inclusive", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "End date (YYYY-MM-DD or RFC3339), inclusive", "name": "endDate", "in": "query"},
                    {"type": "number", "description": "Minimum amount", "name": "minAmount", "in": "query"},
                    {"type": "number", "description": "Maximum amount", "name": "maxAmount", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort by date", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ExpenseListEnvelope"}},
                    "400": {"description": "Invalid filters", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create an expense owned by the caller. An owner in the body is ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Create an expense",
                "parameters": [
                    {"description": "Expense details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Expense created", "schema": {"$ref": "#/definitions/handlers.ExpenseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/expenses/batch/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete the caller's expenses among ids. Zero matches is not an error and reports deleted_count 0.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Batch delete expenses",
                "parameters": [
                    {"description": "Expense IDs", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validator.BatchDeletePayload"}}
                ],
                "responses": {
                    "200": {"description": "Deleted count and ids", "schema": {"$ref": "#/definitions/handlers.BatchDeleteEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/expenses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Get expense by ID",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ExpenseEnvelope"}},
                    "400": {"description": "Invalid expense ID", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Expense not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Replace description, amount, category and date of an owned expense",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Update an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"description": "Expense details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated expense", "schema": {"$ref": "#/definitions/handlers.ExpenseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Expense not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Delete an expense",
                "parameters": [
                    {"type": "string", "description": "Expense ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Expense deleted", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Invalid expense ID", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "Expense not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Get the authenticated user's profile information",
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Get user profile",
                "responses": {
                    "200": {"description": "User profile", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/response.ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "apperrors.FieldViolation": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.AuthEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handlers.AuthResponse"},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "user": {"$ref": "#/definitions/handlers.UserResponse"}
            }
        },
        "handlers.BatchDeleteEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/services.BatchDeleteResult"},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.CategoryEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/models.Category"},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.CategoryListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.Category"}},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.ExpenseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/models.Expense"},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.ExpenseListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.Expense"}},
                "status": {"type": "string", "example": "success"}
            }
        },
        "handlers.ExpenseRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number", "example": 42.5},
                "category": {"type": "string", "example": "Food"},
                "date": {"type": "string", "example": "2024-03-01"},
                "description": {"type": "string", "example": "Groceries"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "name": {"type": "string", "maxLength": 100},
                "password": {"type": "string", "maxLength": 128, "minLength": 8}
            }
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "models.Category": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "updated_at": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "models.Expense": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "category": {"type": "string"},
                "created_at": {"type": "string"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "updated_at": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "response.ErrorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/apperrors.FieldViolation"}},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "services.BatchDeleteResult": {
            "type": "object",
            "properties": {
                "deleted_count": {"type": "integer"},
                "deleted_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "validator.BatchDeletePayload": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "validator.CategoryPayload": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Spendwise API",
	Description:      "Spendwise is a personal expense tracker. Expenses and categories are private to each user, and every change is pushed to the user's connected clients.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
