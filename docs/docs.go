// Package docs holds the OpenAPI document served by the Swagger UI.
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
        "/jobs/{jobId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [{"type": "string", "description": "Job ID (uuid)", "name": "jobId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Job"}},
                    "400": {"description": "INVALID_ID", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorBody"}}
                }
            }
        },
        "/jobs/{jobId}/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the audit trail of status changes, oldest first.",
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List a job's status history",
                "parameters": [{"type": "string", "description": "Job ID (uuid)", "name": "jobId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "400": {"description": "INVALID_ID", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorBody"}}
                }
            }
        },
        "/jobs/{jobId}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Moves a job along its lifecycle (accepted, travelling, onsite) or cancels it. Completion has its own endpoint.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Change a job's status",
                "parameters": [
                    {"type": "string", "description": "Job ID (uuid)", "name": "jobId", "in": "path", "required": true},
                    {"description": "Target status", "name": "transition", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lifecycle.TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated job", "schema": {"$ref": "#/definitions/models.Job"}},
                    "400": {"description": "INVALID_ID or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "401": {"description": "No valid session", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "403": {"description": "Missing capability or not the job owner", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "409": {"description": "Transition not allowed from the current status", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "500": {"description": "Database or internal error", "schema": {"$ref": "#/definitions/utils.ErrorBody"}}
                }
            }
        },
        "/jobs/{jobId}/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Marks an in-progress job as completed with the client's signature, optional checklist, parts and notes.\nRestores the engineer's availability and opens a pending payment when the job carries a fee.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Complete a job",
                "parameters": [
                    {"type": "string", "description": "Job ID (uuid)", "name": "jobId", "in": "path", "required": true},
                    {"description": "Completion artifacts", "name": "completion", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lifecycle.CompleteJobRequest"}}
                ],
                "responses": {
                    "200": {"description": "Job completed", "schema": {"$ref": "#/definitions/lifecycle.CompletionResult"}},
                    "400": {"description": "INVALID_ID or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "401": {"description": "No valid session", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "403": {"description": "Missing capability or not the job owner", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "409": {"description": "Job already completed or cancelled", "schema": {"$ref": "#/definitions/utils.ErrorBody"}},
                    "500": {"description": "Database or internal error", "schema": {"$ref": "#/definitions/utils.ErrorBody"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports whether the API and its dependencies are reachable.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/models.StatusHistoryEntry"}}
            }
        },
        "lifecycle.CompleteJobRequest": {
            "type": "object",
            "required": ["signature_url"],
            "properties": {
                "signature_url": {"type": "string"},
                "checklist": {"type": "array", "items": {"$ref": "#/definitions/models.ChecklistItem"}},
                "parts_used": {"type": "array", "items": {"$ref": "#/definitions/models.PartUsed"}},
                "engineer_notes": {"type": "string", "maxLength": 5000}
            }
        },
        "lifecycle.TransitionRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["accepted", "travelling", "onsite", "cancelled"]},
                "notes": {"type": "string", "maxLength": 1000}
            }
        },
        "lifecycle.CompletionMetadata": {
            "type": "object",
            "properties": {
                "completed_at": {"type": "string"},
                "completed_by": {"type": "string"},
                "signature_uploaded": {"type": "boolean"},
                "checklist_validated": {"type": "boolean"},
                "engineer_availability_restored": {"type": "boolean"},
                "payment_created": {"type": "boolean"}
            }
        },
        "lifecycle.CompletionResult": {
            "type": "object",
            "properties": {
                "job": {"$ref": "#/definitions/models.Job"},
                "payment": {"$ref": "#/definitions/models.Payment"},
                "metadata": {"$ref": "#/definitions/lifecycle.CompletionMetadata"}
            }
        },
        "models.ChecklistItem": {
            "type": "object",
            "required": ["item"],
            "properties": {
                "item": {"type": "string"},
                "completed": {"type": "boolean"},
                "notes": {"type": "string"}
            }
        },
        "models.PartUsed": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "number"},
                "cost": {"type": "number"}
            }
        },
        "models.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["assigned", "accepted", "travelling", "onsite", "completed", "cancelled"]},
                "assigned_engineer_id": {"type": "string"},
                "assigned_agency_id": {"type": "string"},
                "service_fee": {"type": "number"},
                "completed_at": {"type": "string"},
                "client_signature_url": {"type": "string"},
                "checklist": {"type": "array", "items": {"$ref": "#/definitions/models.ChecklistItem"}},
                "parts_used": {"type": "array", "items": {"$ref": "#/definitions/models.PartUsed"}},
                "engineer_notes": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.Payment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "job_id": {"type": "string"},
                "agency_id": {"type": "string"},
                "amount": {"type": "number"},
                "status": {"type": "string", "enum": ["pending", "completed", "failed"]},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.StatusHistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "job_id": {"type": "string"},
                "status": {"type": "string"},
                "changed_by": {"type": "string"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "utils.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/utils.ErrorDetail"}
            }
        },
        "utils.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "CONFLICT"},
                "message": {"type": "string", "example": "Job is already completed"},
                "details": {"type": "object", "additionalProperties": true},
                "timestamp": {"type": "string", "example": "2026-01-02T15:04:05Z"},
                "request_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Field Ops Job Lifecycle API",
	Description:      "Job lifecycle endpoints for dispatched field service work.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
