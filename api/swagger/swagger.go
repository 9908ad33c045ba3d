package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Worklane Timesheet API",
        "description": "Timesheet tracking with freeze windows, effort limits and manager approvals",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, refresh and session management"},
        {"name": "Timesheets", "description": "Save, submit, duplicate and list efforts"},
        {"name": "Approvals", "description": "Manager review of submitted efforts"},
        {"name": "Projects", "description": "Projects, tasks and memberships"},
        {"name": "Dashboard", "description": "Utilization aggregates"},
        {"name": "Notifications", "description": "Teams conversation registration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/timesheets": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "List own entries",
                "responses": {
                    "200": {"description": "Entries with pagination"}
                }
            }
        },
        "/timesheets/save": {
            "post": {
                "tags": ["Timesheets"],
                "summary": "Save draft efforts",
                "description": "Frozen dates and dates breaking the daily or weekly limit are skipped per date",
                "responses": {
                    "200": {"description": "Saved and skipped dates"},
                    "400": {"description": "Malformed payload"}
                }
            }
        },
        "/timesheets/submit": {
            "post": {
                "tags": ["Timesheets"],
                "summary": "Submit saved efforts",
                "responses": {
                    "200": {"description": "Submitted count"},
                    "422": {"description": "Nothing left to submit"}
                }
            }
        },
        "/timesheets/duplicate": {
            "post": {
                "tags": ["Timesheets"],
                "summary": "Duplicate one date's efforts",
                "responses": {
                    "200": {"description": "Duplicated and skipped dates"},
                    "422": {"description": "Source date has no efforts"}
                }
            }
        },
        "/timesheets/pending": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Submitted entries awaiting the manager",
                "responses": {
                    "200": {"description": "Entries with pagination"}
                }
            }
        },
        "/timesheets/review": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Apply approval decisions",
                "responses": {
                    "200": {"description": "Reviewed count"},
                    "409": {"description": "Decisions do not match submitted entries"}
                }
            }
        },
        "/timesheets/export": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "Export entries as CSV or PDF",
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "responses": {
                    "200": {"description": "Projects with pagination"}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create a project",
                "responses": {
                    "201": {"description": "Created project detail"}
                }
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Project detail",
                "responses": {
                    "200": {"description": "Project with tasks and members"},
                    "404": {"description": "Unknown project"}
                }
            },
            "put": {
                "tags": ["Projects"],
                "summary": "Update project metadata",
                "responses": {
                    "200": {"description": "Updated project detail"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Utilization summary",
                "responses": {
                    "200": {"description": "Aggregated hours per user and project"}
                }
            }
        },
        "/notifications/conversation": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Register Teams conversation reference",
                "responses": {
                    "204": {"description": "Reference stored"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
