package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// DocsHandler serves the OpenAPI document and a Swagger UI page for it.
type DocsHandler struct {
	doc *openapi3.T
}

// NewDocsHandler creates a DocsHandler for a prebuilt document.
func NewDocsHandler(doc *openapi3.T) *DocsHandler {
	return &DocsHandler{doc: doc}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *DocsHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}

// ServeSwaggerUI returns an HTML page that loads Swagger UI from a CDN and
// points it at /openapi.json.
// GET /swagger/
func (h *DocsHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(swaggerPage))
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>numberdesk API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      SwaggerUIBundle({ url: "/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`
