package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/jwtutil"
)

const testSigningKey = "test-signing-key"

// newTestApp wires the notes service routes against a fresh in-memory
// database seeded with the deterministic bootstrap data.
func newTestApp(t *testing.T) (*echo.Echo, *jwtutil.JWTUtil) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	require.NoError(t, database.Initialize(database.DBConfig{
		DSN:      dsn,
		LogLevel: gormlogger.Silent,
	}))

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      testSigningKey,
		ExpirationHours: 24,
	})
	authenticator := &middleware.LocalAuthenticator{JWT: jwtUtil}
	authHandler := &AuthHandler{JWT: jwtUtil}

	e := echo.New()
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware)

	e.GET("/", APIIndex)
	e.GET("/health", HealthCheck)
	e.POST("/auth/login", authHandler.Login)

	authed := e.Group("", middleware.RequireAuth(authenticator))
	authed.GET("/me", Me)
	authed.GET("/notes", ListNotes)
	authed.POST("/notes", CreateNote)
	authed.GET("/notes/:id", GetNote)
	authed.PUT("/notes/:id", UpdateNote)
	authed.DELETE("/notes/:id", DeleteNote)

	admin := authed.Group("/tenants", middleware.RequireRole("admin"))
	admin.POST("/:slug/upgrade", UpgradeTenant)
	admin.POST("/:slug/invite", InviteUser)

	return e, jwtUtil
}

// doRequest performs a JSON request against the test app.
func doRequest(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// login authenticates a seed user and returns the issued token.
func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()

	rec := doRequest(t, e, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login as %s: %s", email, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// createNote creates a note and returns the decoded response body.
func createNote(t *testing.T, e *echo.Echo, token, title, content string) map[string]interface{} {
	t.Helper()

	rec := doRequest(t, e, http.MethodPost, "/notes", token, map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var note map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
