// Package docs registers the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/approve-draft": {
            "post": {
                "summary": "Commit an approved onboarding draft",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "Idempotency-Key", "in": "header", "type": "string", "required": false},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveDraftRequest"}}
                ],
                "responses": {
                    "200": {"description": "saved", "schema": {"$ref": "#/definitions/ApproveDraftResponse"}},
                    "400": {"description": "nothing_to_save or invalid body", "schema": {"$ref": "#/definitions/ApprovalError"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/ApprovalError"}},
                    "404": {"description": "store_not_found", "schema": {"$ref": "#/definitions/ApprovalError"}},
                    "409": {"description": "idempotency_conflict", "schema": {"$ref": "#/definitions/ApprovalError"}},
                    "500": {"description": "products_insert_failed", "schema": {"$ref": "#/definitions/ApprovalError"}}
                }
            }
        },
        "/api/onboarding/v1/status": {
            "get": {
                "summary": "Read the onboarding gating status",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "status", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "404": {"description": "no_store", "schema": {"$ref": "#/definitions/StatusResponse"}}
                }
            },
            "put": {
                "summary": "Set the onboarding status",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "updated", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "400": {"description": "invalid_status", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "404": {"description": "no_store", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "500": {"description": "database_error", "schema": {"$ref": "#/definitions/StatusResponse"}}
                }
            }
        },
        "/api/onboarding/v1/complete": {
            "post": {
                "summary": "Mark onboarding completed",
                "produces": ["application/json"],
                "responses": {"200": {"description": "completed", "schema": {"$ref": "#/definitions/StatusResponse"}}}
            }
        },
        "/api/onboarding/v1/skip": {
            "post": {
                "summary": "Mark onboarding skipped",
                "produces": ["application/json"],
                "responses": {"200": {"description": "skipped", "schema": {"$ref": "#/definitions/StatusResponse"}}}
            }
        },
        "/api/onboarding/v1/workflows": {
            "post": {
                "summary": "Start tracking a workflow",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWorkflowRequest"}}
                ],
                "responses": {
                    "201": {"description": "created", "schema": {"$ref": "#/definitions/WorkflowResponse"}},
                    "400": {"description": "invalid_request", "schema": {"$ref": "#/definitions/WorkflowError"}}
                }
            }
        },
        "/api/onboarding/v1/conversations/{conversation_id}/workflow": {
            "get": {
                "summary": "Read the in-progress workflow of a conversation",
                "produces": ["application/json"],
                "parameters": [{"name": "conversation_id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "workflow", "schema": {"$ref": "#/definitions/WorkflowResponse"}},
                    "404": {"description": "not_found", "schema": {"$ref": "#/definitions/WorkflowError"}}
                }
            }
        },
        "/api/onboarding/v1/workflows/{workflow_id}/advance": {
            "post": {
                "summary": "Advance a workflow by one stage",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "workflow_id", "in": "path", "type": "string", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"stage_update": {"type": "object"}}}}
                ],
                "responses": {"200": {"description": "advanced", "schema": {"$ref": "#/definitions/WorkflowMutationResponse"}}}
            }
        },
        "/api/onboarding/v1/workflows/{workflow_id}/data": {
            "patch": {
                "summary": "Merge data into a workflow without advancing",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "workflow_id", "in": "path", "type": "string", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"patch": {"type": "object"}}}}
                ],
                "responses": {"200": {"description": "updated", "schema": {"$ref": "#/definitions/WorkflowMutationResponse"}}}
            }
        }
    },
    "definitions": {
        "ApproveDraftRequest": {
            "type": "object",
            "properties": {
                "draftState": {"type": "object"},
                "context": {"type": "object", "properties": {"conversationId": {"type": "string"}, "locale": {"type": "string"}}}
            }
        },
        "ApproveDraftResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "saved": {"type": "object", "properties": {"store_name": {"type": "boolean"}, "products": {"type": "integer"}, "appearance": {"type": "boolean"}}},
                "note": {"type": "string"}
            }
        },
        "ApprovalError": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "details": {"type": "string"}}
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {"status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "skipped"]}}
        },
        "StatusResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "status": {"type": "string"},
                "shows_onboarding": {"type": "boolean"},
                "error_code": {"type": "string", "enum": ["unauthorized", "no_store", "database_error", "invalid_status"]},
                "message": {"type": "string"}
            }
        },
        "CreateWorkflowRequest": {
            "type": "object",
            "properties": {
                "conversation_id": {"type": "string"},
                "workflow_type": {"type": "string", "enum": ["onboarding", "bulk_image_to_products"]},
                "total_stages": {"type": "integer"},
                "initial_data": {"type": "object"}
            }
        },
        "WorkflowResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "data": {"type": "object"}}
        },
        "WorkflowMutationResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "data": {"type": "object", "properties": {"workflow_id": {"type": "string"}, "updated": {"type": "boolean"}}}}
        },
        "WorkflowError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vitrine merchant onboarding API",
	Description:      "Workflow tracking, draft approval and onboarding status for storefront merchants.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
