// Package docs registers the OpenAPI document served at /swagger/*.
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
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Admin login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}],
                "responses": {"200": {"description": "token"}, "401": {"description": "invalid credentials"}}
            }
        },
        "/tournaments": {
            "get": {
                "tags": ["tournaments"],
                "summary": "List tournaments, newest first; ?location= lists earlier editions at a venue",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "in": "query", "name": "location"}],
                "responses": {"200": {"description": "tournaments"}}
            }
        },
        "/admin/tournaments": {
            "post": {
                "tags": ["tournaments"],
                "summary": "Create a tournament, optionally cloning the courts of an arena",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "created"}, "207": {"description": "tournament created, some courts failed"}}
            }
        },
        "/courts": {
            "get": {
                "tags": ["courts"],
                "summary": "Courts of a tournament without PINs",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "in": "query", "name": "tournamentId"}],
                "responses": {"200": {"description": "courts"}}
            }
        },
        "/admin/courts/{courtID}/qr": {
            "get": {
                "tags": ["courts"],
                "summary": "PNG QR code of the referee link with the court PIN",
                "produces": ["image/png"],
                "parameters": [
                    {"type": "string", "in": "path", "name": "courtID", "required": true},
                    {"type": "integer", "in": "query", "name": "size"}
                ],
                "responses": {"200": {"description": "png"}}
            }
        },
        "/admin/matches/{matchID}/start": {
            "post": {
                "tags": ["matches"],
                "summary": "Put a planned match on a free court",
                "parameters": [{"type": "string", "in": "path", "name": "matchID", "required": true}],
                "responses": {"200": {"description": "court"}, "409": {"description": "invalid transition"}}
            }
        },
        "/referee/login": {
            "post": {
                "tags": ["referee"],
                "summary": "Bind a referee device to the court holding the PIN",
                "responses": {"200": {"description": "binding token"}, "404": {"description": "unknown pin"}, "429": {"description": "rate limited"}}
            }
        },
        "/referee/score": {
            "post": {
                "tags": ["referee"],
                "summary": "Change a team's score on the bound court by delta",
                "responses": {"200": {"description": "court"}}
            }
        },
        "/results": {
            "get": {
                "tags": ["results"],
                "summary": "Finished matches, newest first",
                "parameters": [
                    {"type": "string", "in": "query", "name": "tournamentId"},
                    {"type": "integer", "in": "query", "name": "limit"}
                ],
                "responses": {"200": {"description": "results"}}
            }
        }
    },
    "definitions": {
        "models.Credentials": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
	Title:            "Beach Tennis Live API",
	Description:      "Courts, matches and live scores for beach-tennis tournaments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
