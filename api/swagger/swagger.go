package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Talentio Admission API",
        "description": "Candidate review, documents, selection processes and admission",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reviews", "description": "Candidate profile review"},
        {"name": "Documents", "description": "Document requirements and review"},
        {"name": "Processes", "description": "Selection process management"},
        {"name": "Evaluations", "description": "Stage evaluation"},
        {"name": "Admissions", "description": "Admission records and roster export"},
        {"name": "Progression", "description": "Aggregated candidate overview"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/candidates": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List candidate profiles",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Get candidate profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/request-changes": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Request changes on profile sections",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestChangesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/sections/{key}/resolve": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Mark a flagged section as edited",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "key", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/approve": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Approve candidate profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/reject": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Reject candidate profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/review-progress": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Section resolution progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/overview": {
            "get": {
                "tags": ["Progression"],
                "summary": "Aggregated candidate overview",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/document-types": {
            "get": {
                "tags": ["Documents"],
                "summary": "List active document types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Create document type",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDocumentTypeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/document-types/{id}": {
            "delete": {
                "tags": ["Documents"],
                "summary": "Deactivate document type",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/candidates/{id}/documents": {
            "post": {
                "tags": ["Documents"],
                "summary": "Register uploaded document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/documents/summary": {
            "get": {
                "tags": ["Documents"],
                "summary": "Candidate document summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/review": {
            "post": {
                "tags": ["Documents"],
                "summary": "Review candidate document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/download-url": {
            "get": {
                "tags": ["Documents"],
                "summary": "Generate signed download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/document-cohorts/{cohort}": {
            "get": {
                "tags": ["Documents"],
                "summary": "List candidates in a completion cohort",
                "parameters": [
                    {"name": "cohort", "in": "path", "required": true, "type": "string", "enum": ["PENDING_REVIEW", "AWAITING_SUBMISSION", "COMPLETED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/processes": {
            "get": {
                "tags": ["Processes"],
                "summary": "List selection processes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Processes"],
                "summary": "Create selection process",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProcessRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/processes/{id}": {
            "get": {
                "tags": ["Processes"],
                "summary": "Get selection process detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/processes/{id}/status": {
            "patch": {
                "tags": ["Processes"],
                "summary": "Transition process lifecycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProcessStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/processes/{id}/candidates": {
            "post": {
                "tags": ["Processes"],
                "summary": "Enroll approved candidate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCandidateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidate-processes/{id}/start": {
            "post": {
                "tags": ["Processes"],
                "summary": "Start candidate at the first stage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidate-processes/{id}/withdraw": {
            "post": {
                "tags": ["Processes"],
                "summary": "Withdraw candidate from process",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidate-processes/{id}/evaluate": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Record the current stage outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitEvaluationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidate-processes/{id}/history": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Per-stage evaluation history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/candidates/{id}/admission": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Open admission record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAdmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions": {
            "get": {
                "tags": ["Admissions"],
                "summary": "List finalized admissions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/{id}": {
            "get": {
                "tags": ["Admissions"],
                "summary": "Get admission record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/{id}/finalize": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Finalize admission and queue ERP dispatch",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/{id}/resend": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Resend admission to the ERP collaborator",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admissions/export": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Export admitted roster",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRosterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RequestChangesRequest": {
            "type": "object",
            "properties": {
                "sections": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                }
            },
            "required": ["sections"]
        },
        "CreateDocumentTypeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "required": {"type": "boolean"},
                "accepted_formats": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "max_size_bytes": {"type": "integer"},
                "rank": {"type": "integer"}
            },
            "required": ["name"]
        },
        "UploadDocumentRequest": {
            "type": "object",
            "properties": {
                "document_type_id": {"type": "string"},
                "file_path": {"type": "string"}
            },
            "required": ["document_type_id", "file_path"]
        },
        "ReviewDocumentRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVED", "REJECTED"]},
                "observation": {"type": "string"}
            },
            "required": ["decision"]
        },
        "CreateProcessRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "stages": {
                    "type": "array",
                    "items": {"type": "object"}
                }
            },
            "required": ["name", "stages"]
        },
        "UpdateProcessStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "AddCandidateRequest": {
            "type": "object",
            "properties": {
                "candidate_id": {"type": "integer"}
            },
            "required": ["candidate_id"]
        },
        "SubmitEvaluationRequest": {
            "type": "object",
            "properties": {
                "evaluation": {"type": "string", "enum": ["APPROVED", "REJECTED"]},
                "answers": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                },
                "rating": {"type": "integer"},
                "feedback": {"type": "string"}
            },
            "required": ["evaluation"]
        },
        "CreateAdmissionRequest": {
            "type": "object",
            "properties": {
                "position": {"type": "string"},
                "department": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"}
            },
            "required": ["position", "department"]
        },
        "ExportRosterRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
