package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Planner API",
        "description": "Alternating A/B week timetable, bag checklist, reminders and exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Accounts and sessions"},
        {"name": "Week", "description": "A/B week resolution"},
        {"name": "Courses", "description": "Recurring courses"},
        {"name": "Timetable", "description": "Week grid, day view and bag"},
        {"name": "Preferences", "description": "Appearance, reminders and week override"},
        {"name": "Reminders", "description": "Evening bag reminder"},
        {"name": "Exports", "description": "CSV, PDF and iCalendar exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Create a student account",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Email taken"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke refresh token",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}],
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "security": [{"BearerAuth": []}],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/week": {
            "get": {
                "tags": ["Week"],
                "security": [{"BearerAuth": []}],
                "summary": "Effective week label",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "next", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "List courses",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Create course",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/import": {
            "post": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Import courses from an iCalendar file",
                "consumes": ["multipart/form-data", "text/calendar"],
                "parameters": [{"name": "file", "in": "formData", "type": "file"}],
                "responses": {"201": {"description": "Imported"}, "200": {"description": "Nothing new"}, "413": {"description": "Too large"}}
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Get course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/timetable/week": {
            "get": {
                "tags": ["Timetable"],
                "security": [{"BearerAuth": []}],
                "summary": "Weekly grid",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "next", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/timetable/day": {
            "get": {
                "tags": ["Timetable"],
                "security": [{"BearerAuth": []}],
                "summary": "Daily slots",
                "parameters": [
                    {"name": "day", "in": "query", "type": "integer", "minimum": 1, "maximum": 7},
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "next", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/bag": {
            "get": {
                "tags": ["Timetable"],
                "security": [{"BearerAuth": []}],
                "summary": "Materials for tomorrow",
                "parameters": [{"name": "date", "in": "query", "type": "string", "format": "date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/preferences": {
            "get": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "List preferences",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "Update several preferences",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUpdatePreferenceRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/preferences/{key}": {
            "get": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "Get preference",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown key"}}
            },
            "patch": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "Update preference",
                "parameters": [
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePreferenceRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid value"}}
            }
        },
        "/preferences/background": {
            "get": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "Presigned background URL",
                "responses": {"200": {"description": "OK"}, "404": {"description": "No background"}, "503": {"description": "Disabled"}}
            },
            "post": {
                "tags": ["Preferences"],
                "security": [{"BearerAuth": []}],
                "summary": "Upload background image",
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {"201": {"description": "Stored"}, "413": {"description": "Too large"}, "415": {"description": "Unsupported type"}}
            }
        },
        "/reminders/status": {
            "get": {
                "tags": ["Reminders"],
                "security": [{"BearerAuth": []}],
                "summary": "Reminder status",
                "parameters": [{"name": "at", "in": "query", "type": "string", "format": "date-time"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Export timetable",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download export",
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "404": {"description": "Unknown"}, "410": {"description": "Expired"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "full_name": {"type": "string"}}
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "CreateCourseRequest": {
            "type": "object",
            "required": ["title", "start_time", "end_time", "day_of_week", "week_type"],
            "properties": {
                "title": {"type": "string"},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "09:00"},
                "day_of_week": {"type": "integer", "minimum": 1, "maximum": 7},
                "materials": {"type": "array", "items": {"type": "string"}},
                "week_type": {"type": "string", "enum": ["both", "A", "B"]}
            }
        },
        "UpdatePreferenceRequest": {
            "type": "object",
            "properties": {"key": {"type": "string"}, "value": {"type": "string"}}
        },
        "BulkUpdatePreferenceRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/UpdatePreferenceRequest"}}}
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf", "ics"]},
                "date": {"type": "string", "format": "date"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
