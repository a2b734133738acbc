package rest

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
)

const (
	apiTitle          = "AuthKeeper"
	apiVersion        = "1.0.0"
	securitySchemeKey = "OAuth2PasswordBearer"
)

var pathParam = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// OpenAPI builds the OpenAPI 3.1 document for the visible routes.
// Operations the gate protects require the OAuth2 password scheme, whose
// token URL is the login endpoint.
func (s *Server) OpenAPI() map[string]any {
	paths := map[string]any{}
	for _, route := range s.router.Routes() {
		if route.Hidden {
			continue
		}

		item, ok := paths[route.Path].(map[string]any)
		if !ok {
			item = map[string]any{}
			paths[route.Path] = item
		}

		op := map[string]any{
			"operationId": operationID(route),
			"responses": map[string]any{
				"200": map[string]any{"description": "Successful Response"},
			},
		}
		if route.Summary != "" {
			op["summary"] = route.Summary
		}
		if route.Tag != "" {
			op["tags"] = []string{route.Tag}
		}
		if params := pathParameters(route.Path); len(params) > 0 {
			op["parameters"] = params
		}
		if s.gate == nil || s.gate.Classify(route.Path) == authgate.RequiresAuth {
			op["security"] = []map[string][]string{{securitySchemeKey: {}}}
		}
		item[strings.ToLower(route.Method)] = op
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": apiTitle, "version": apiVersion},
		"paths":   paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				securitySchemeKey: map[string]any{
					"type": "oauth2",
					"flows": map[string]any{
						"password": map[string]any{
							"tokenUrl": "/auth/login",
							"scopes":   map[string]string{},
						},
					},
				},
			},
		},
	}
}

func operationID(r Route) string {
	name := strings.Trim(pathParam.ReplaceAllString(r.Path, "$1"), "/")
	name = strings.NewReplacer("/", "_", "-", "_").Replace(name)
	if name == "" {
		name = "root"
	}
	return strings.ToLower(r.Method) + "_" + name
}

func pathParameters(path string) []map[string]any {
	var params []map[string]any
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		params = append(params, map[string]any{
			"name":     m[1],
			"in":       "path",
			"required": true,
			"schema":   map[string]string{"type": "string"},
		})
	}
	return params
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.OpenAPI())
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
<title>AuthKeeper - Swagger UI</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui"});
</script>
</body>
</html>
`

const redocPage = `<!DOCTYPE html>
<html>
<head>
<title>AuthKeeper - ReDoc</title>
</head>
<body>
<redoc spec-url="/openapi.json"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>
`

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, swaggerPage)
}

func (s *Server) handleRedoc(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, redocPage)
}
