package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authrelay/internal/testutil"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	require.NoError(t, err, "Failed to load OpenAPI spec")
	require.NoError(t, doc.Validate(loader.Context), "OpenAPI spec validation failed")
	return doc
}

func TestOpenAPISpecIsValid(t *testing.T) {
	doc := loadSpec(t)

	assert.Equal(t, "Auth Relay API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	doc := loadSpec(t)

	implementedRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPost, "/api/auth/register"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/session"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPatch, "/api/users/me"},
	}

	assert.Len(t, doc.Paths.Map(), 5)

	for _, route := range implementedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI spec: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found: %s %s", route.method, route.path)
			assert.NotEmpty(t, operation.OperationID)
			assert.NotEmpty(t, operation.Tags)
		})
	}
}

func TestOpenAPISecuritySchemes(t *testing.T) {
	doc := loadSpec(t)

	for name, cookie := range map[string]string{"cookieAuth": "accessToken", "refreshCookie": "refreshToken"} {
		scheme := doc.Components.SecuritySchemes[name]
		require.NotNil(t, scheme, name)
		assert.Equal(t, "apiKey", scheme.Value.Type)
		assert.Equal(t, "cookie", scheme.Value.In)
		assert.Equal(t, cookie, scheme.Value.Name)
	}
}

func validatedHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return OpenAPIValidator(DefaultOpenAPIValidatorConfig(true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestOpenAPIValidator_RequestBodies(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"valid login", http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"secret"}`, http.StatusOK},
		{"login missing password", http.MethodPost, "/api/auth/login", `{"email":"ann@example.com"}`, http.StatusBadRequest},
		{"login bad email", http.MethodPost, "/api/auth/login", `{"email":"nope","password":"x"}`, http.StatusBadRequest},
		{"login not json", http.MethodPost, "/api/auth/login", `email=a`, http.StatusBadRequest},
		{"valid register", http.MethodPost, "/api/auth/register", `{"email":"bob@example.com","password":"secret"}`, http.StatusOK},
		{"valid patch", http.MethodPatch, "/api/users/me", `{"username":"bob"}`, http.StatusOK},
		{"patch empty username", http.MethodPatch, "/api/users/me", `{"username":""}`, http.StatusBadRequest},
		{"session without body", http.MethodGet, "/api/auth/session", ``, http.StatusOK},
		{"logout without cookies", http.MethodPost, "/api/auth/logout", ``, http.StatusOK},
		{"cookie-secured me without cookies", http.MethodGet, "/api/users/me", ``, http.StatusOK},
		{"undocumented path passes", http.MethodGet, "/api/unknown", ``, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := validatedHandler(t, &called)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			testutil.AssertStatusCode(t, w, tt.want)
			assert.Equal(t, tt.want == http.StatusOK, called)
			if tt.want == http.StatusBadRequest {
				testutil.AssertContains(t, w.Body.String(), "Request validation failed")
			}
		})
	}
}

func TestOpenAPIValidator_BodyStillReadable(t *testing.T) {
	var got string
	handler := OpenAPIValidator(DefaultOpenAPIValidatorConfig(true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		got = buf.String()
	}))

	body := `{"email":"ann@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.JSONEq(t, body, got)
}

func TestShouldSkipPath(t *testing.T) {
	skip := []string{"/health", "/metrics"}

	assert.True(t, shouldSkipPath("/health", skip))
	assert.True(t, shouldSkipPath("/health/ready", skip))
	assert.True(t, shouldSkipPath("/metrics", skip))
	assert.False(t, shouldSkipPath("/api/auth/login", skip))
}

func TestOpenAPIMiddlewareWithInvalidSpec(t *testing.T) {
	called := false
	cfg := DefaultOpenAPIValidatorConfig(true)
	cfg.Spec = []byte("not: [valid")

	handler := OpenAPIValidator(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.True(t, called, "invalid spec should degrade to a no-op")
}

func TestOpenAPIMiddlewareDisabled(t *testing.T) {
	called := false
	handler := OpenAPIValidator(DefaultOpenAPIValidatorConfig(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))

	assert.True(t, called)
}

func TestLoadOpenAPIRouter(t *testing.T) {
	router, err := LoadOpenAPIRouter(openAPISpec)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/users/me", nil)
	route, _, err := router.FindRoute(req)
	require.NoError(t, err)
	assert.Equal(t, "updateMe", route.Operation.OperationID)
}
