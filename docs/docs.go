// Package docs registers the OpenAPI description of the room history API
// with swag so gin-swagger can serve it. Regenerate with `swag init -g
// cmd/server/main.go` after changing handler annotations.
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
        "/chathistory/history": {
            "get": {
                "description": "Returns up to per_page display items of a room, newest first.\nPass the last_time/last_id of a response to get the next older page;\nboth are null once the history is exhausted.",
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Room history page",
                "operationId": "getHistory",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Room ID", "name": "room_id", "in": "query", "required": true},
                    {"maximum": 50, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"},
                    {"type": "integer", "description": "Cursor: createtime of the last item seen (epoch seconds)", "name": "last_time", "in": "query"},
                    {"type": "integer", "description": "Cursor: idx_id of the last item seen", "name": "last_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chathistory/rooms": {
            "get": {
                "description": "Lists the active rooms with the websocket URL of each.",
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Active rooms",
                "operationId": "listRooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListRoomsResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.DisplayItem": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 42},
                "message": {"type": "object"},
                "time": {"type": "string", "example": "13:04:05"},
                "timestamp_unix": {"type": "integer", "example": 1700000000},
                "type": {"type": "string", "example": "chat"}
            }
        },
        "domain.HistoryPage": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.DisplayItem"}},
                "last_id": {"type": "integer", "example": 981},
                "last_time": {"type": "integer", "example": 1700000000},
                "per_page": {"type": "integer", "example": 20}
            }
        },
        "domain.RoomView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "parent_id": {"type": "integer"},
                "status": {"type": "integer"},
                "ws_url": {"type": "string", "example": "wss://example.com:2999"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "bad_request"},
                "message": {"type": "string", "example": "room_id must be a positive integer"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 1},
                "data": {"$ref": "#/definitions/domain.HistoryPage"},
                "msg": {"type": "string", "example": "success"}
            }
        },
        "handlers.ListRoomsResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.RoomView"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Room History API",
	Description:      "Cursor-paginated, duplicate-free history of room chat and stake events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
