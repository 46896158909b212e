package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the
// contacts service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
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
    <title>contacthub — Swagger</title>
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

// Minimal OpenAPI document describing the contact endpoints. Revision
// addressing is shared by every read: revision_id beats revision_timestamp
// when both are given.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "contacthub", "version": "v0.1.0" },
  "paths": {
    "/contact/new": {
      "post": {
        "summary": "Create a contact",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"phone":{"type":"string"},"email":{"type":"string"},"address":{"type":"string"}}}}}},
        "responses": { "204": { "description": "created" }, "400": { "description": "all fields empty" } }
      }
    },
    "/contacts": {
      "get": { "summary": "List all live contacts at a revision", "responses": { "200": { "description": "contacts with keys and hashes" } } }
    },
    "/search": {
      "post": {
        "summary": "Search live contacts at a revision (AND of terms)",
        "requestBody": { "content": { "application/json": { "schema": {"type":"array","items":{"type":"object","properties":{"field":{"type":"string"},"term":{"type":"string"},"fuzzy":{"type":"boolean"}}}}}}},
        "responses": { "200": { "description": "matches" }, "400": { "description": "empty term list" } }
      }
    },
    "/search/history": {
      "post": { "summary": "Search every revision; deleted=true scans only currently-deleted contacts", "responses": { "200": { "description": "change-deduplicated matches" } } }
    },
    "/contact/{key}": {
      "get": { "summary": "Fetch a contact at a revision (ETag carries the content hash)", "responses": { "200": { "description": "contact" }, "404": { "description": "not found at revision" } } },
      "patch": { "summary": "Replace a contact (If-Match: hash for conditional update)", "responses": { "204": { "description": "updated" }, "409": { "description": "hash precondition failed" } } },
      "delete": { "summary": "Delete a contact (If-Match: hash for conditional delete)", "responses": { "204": { "description": "deleted" }, "410": { "description": "hash precondition failed" } } }
    },
    "/contact/{key}/history": {
      "get": { "summary": "Revisions where the contact's content changed (embed=true for snapshots)", "responses": { "200": { "description": "change points" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
