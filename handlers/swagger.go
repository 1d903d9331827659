package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the backend.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>peckin - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "peckin", "version": "v0.1.0" },
  "components": {
    "securitySchemes": {
      "apiKey": { "type": "apiKey", "in": "header", "name": "X-Api-Key" },
      "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    },
    "schemas": {
      "Credentials": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"},"displayName":{"type":"string"},"idToken":{"type":"string"}}},
      "Refresh": {"type":"object","required":["refreshToken"],"properties":{"refreshToken":{"type":"string"}}},
      "Error": {"type":"object","properties":{"code":{"type":"string"},"error":{"type":"string"}}}
    }
  },
  "security": [{ "apiKey": [] }],
  "paths": {
    "/auth/signup": {
      "post": { "summary": "Create an email/password account", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Credentials"}}}}, "responses": { "201": { "description": "tokens and user" }, "400": { "description": "auth/invalid-email, auth/weak-password, auth/missing-fields" }, "409": { "description": "auth/email-already-in-use" } } }
    },
    "/auth/login": {
      "post": { "summary": "Sign in with email/password or an OIDC id token", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Credentials"}}}}, "responses": { "200": { "description": "tokens and user" }, "401": { "description": "auth/user-not-found, auth/wrong-password, auth/invalid-credential" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Refresh"}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "auth/invalid-refresh-token" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Invalidate refresh token and revoke bearer token", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Refresh"}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user", "security": [{"apiKey": [], "bearer": []}], "responses": { "200": { "description": "user or claims" } } }
    },
    "/api/v1/collections/{collection}": {
      "post": { "summary": "Create a document with a generated id", "security": [{"apiKey": [], "bearer": []}], "responses": { "201": { "description": "id" }, "403": { "description": "permission-denied" } } }
    },
    "/api/v1/collections/{collection}/{id}": {
      "get": { "summary": "Read a document", "security": [{"apiKey": [], "bearer": []}], "responses": { "200": { "description": "document" }, "404": { "description": "not-found" }, "403": { "description": "permission-denied" } } },
      "put": { "summary": "Overwrite a document", "security": [{"apiKey": [], "bearer": []}], "responses": { "200": { "description": "written" }, "403": { "description": "permission-denied" } } }
    },
    "/api/v1/avatars/{id}": {
      "get": { "summary": "Presigned avatar URL", "security": [{"apiKey": [], "bearer": []}], "responses": { "200": { "description": "url" }, "404": { "description": "not-found" } } },
      "put": { "summary": "Upload avatar image", "security": [{"apiKey": [], "bearer": []}], "responses": { "200": { "description": "stored" }, "403": { "description": "permission-denied" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
