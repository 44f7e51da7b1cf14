package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Academic Core API",
        "description": "Scheduling, enrollment, grading and attendance for secondary school sections.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Health"},
        {"name": "Auth"},
        {"name": "Periods"},
        {"name": "Sections"},
        {"name": "Schedules"},
        {"name": "Enrollments"},
        {"name": "Scores"},
        {"name": "Tasks"},
        {"name": "Attendance"},
        {"name": "Reports"},
        {"name": "Exports"}
    ],
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe for postgres and redis",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current caller and capabilities",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/periods": {
            "get": {
                "tags": ["Periods"],
                "summary": "List academic periods",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Periods"],
                "summary": "Create an academic period",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/periods/current": {
            "get": {
                "tags": ["Periods"],
                "summary": "Current academic period",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/periods/{id}": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get an academic period",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/periods/{id}/current": {
            "post": {
                "tags": ["Periods"],
                "summary": "Mark a period as current",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/periods/{id}/terms": {
            "get": {
                "tags": ["Periods"],
                "summary": "List terms of a period",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Periods"],
                "summary": "Create a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/terms/{termId}": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get a term",
                "parameters": [{"name": "termId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections with occupancy",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create a section",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get a section with occupancy",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/capacity": {
            "put": {
                "tags": ["Sections"],
                "summary": "Change section capacity",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Weekly timetable of a section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/timetable/today": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Today's slots of a section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/attendance/report": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance report of a section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/attendance/history": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Daily attendance history",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/sections/{id}/attendance/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a section attendance report",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/offerings": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List offerings",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create an offering",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/offerings/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get an offering",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/offerings/{id}/active": {
            "patch": {
                "tags": ["Schedules"],
                "summary": "Activate or deactivate an offering",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/time-slots": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List time slots",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a time slot",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/time-slots/bulk": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Create several time slots",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/time-slots/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a time slot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Update a time slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a time slot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/teachers/{teacherId}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Weekly timetable of a teacher",
                "parameters": [{"name": "teacherId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get an enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Withdraw an enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/enrollments/{id}/status": {
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Change enrollment status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/enrollments/{id}/transfer": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Transfer to another section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/scores": {
            "get": {
                "tags": ["Scores"],
                "summary": "List term scores",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Scores"],
                "summary": "Create or update a term score",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/scores/bulk": {
            "post": {
                "tags": ["Scores"],
                "summary": "Upsert several term scores",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/scores/finalize": {
            "post": {
                "tags": ["Scores"],
                "summary": "Finalize scores of an offering term",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/scores/{id}": {
            "delete": {
                "tags": ["Scores"],
                "summary": "Delete a non final score",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/manual-scores": {
            "get": {
                "tags": ["Scores"],
                "summary": "List manual scores",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Scores"],
                "summary": "Record a manual score",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a task",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/tasks/{id}": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Get a task",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/tasks/{id}/submissions": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List task submissions",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Tasks"],
                "summary": "Grade a submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a date",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Enrollment history of a student",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance statistics of a student",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/report-card": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report card for a term",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/report-card/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a report card",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/term-grade": {
            "get": {
                "tags": ["Reports"],
                "summary": "Grade of one offering in a term",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/students/{studentId}/period-grade": {
            "get": {
                "tags": ["Reports"],
                "summary": "Weighted period grade of an offering",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "400": {"$ref": "#/responses/ValidationError"},
                    "401": {"$ref": "#/responses/Unauthorized"},
                    "403": {"$ref": "#/responses/Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export through its signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid token"},
                    "404": {"description": "Expired or missing"}
                }
            }
        }
    },
    "definitions": {
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
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
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
    },
    "responses": {
        "Envelope": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
        "ValidationError": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
        "Unauthorized": {
            "description": "Missing or invalid bearer token",
            "schema": {"$ref": "#/definitions/ResponseEnvelope"}
        },
        "Forbidden": {"description": "Role lacks the capability", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
    },
    "consumes": ["application/json"],
    "produces": ["application/json"]
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
