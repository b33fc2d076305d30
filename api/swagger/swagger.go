package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIAK Warlock API",
        "description": "Course matching, catalog change tracking and captcha relay",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Health", "description": "Liveness, readiness and metrics"},
        {"name": "Snapshots", "description": "Catalog snapshots and changesets"},
        {"name": "Match", "description": "Course target resolution"},
        {"name": "Challenges", "description": "Captcha reply bridge"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/system/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Aggregated runtime metrics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/snapshots": {
            "post": {
                "tags": ["Snapshots"],
                "summary": "Ingest a catalog snapshot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IngestSnapshotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tracker result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/snapshots/latest": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Latest stored snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No snapshot recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/changesets/latest": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Changeset of the latest tracker run",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No tracker run recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/match": {
            "post": {
                "tags": ["Match"],
                "summary": "Resolve course targets against the latest snapshot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "One decision per target", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid targets", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/challenges/current": {
            "get": {
                "tags": ["Challenges"],
                "summary": "Pending captcha challenges",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/challenges/replies": {
            "post": {
                "tags": ["Challenges"],
                "summary": "Deliver a captcha reply",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChallengeReplyRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No pending challenge matches", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Meeting": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "room": {"type": "string"}
            }
        },
        "Section": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "code": {"type": "string"},
                "course_name": {"type": "string"},
                "professor": {"type": "string"},
                "schedule": {"type": "array", "items": {"$ref": "#/definitions/Meeting"}},
                "capacity": {"type": "integer"},
                "enrolled": {"type": "integer"}
            }
        },
        "IngestSnapshotRequest": {
            "type": "object",
            "properties": {
                "taken_at": {"type": "string", "format": "date-time"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/Section"}}
            }
        },
        "CourseTarget": {
            "type": "object",
            "properties": {
                "course": {"type": "string"},
                "prof": {"type": "string"},
                "code": {"type": "string"},
                "time": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "MatchRequest": {
            "type": "object",
            "required": ["targets"],
            "properties": {
                "targets": {"type": "array", "items": {"$ref": "#/definitions/CourseTarget"}}
            }
        },
        "ChallengeReplyRequest": {
            "type": "object",
            "required": ["in_reply_to", "content"],
            "properties": {
                "in_reply_to": {"type": "string"},
                "content": {"type": "string"},
                "author": {"type": "string"}
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
