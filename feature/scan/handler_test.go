package scan

import (
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-reconciler/core/scan"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	svc := NewService(nil, zap.NewNop(), scan.Config{})
	NewHandler(svc, zap.NewNop()).RegisterRoutes(app)
	return app
}

func postJSON(app *fiber.App, path, body string) (*fiber.App, int) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	return app, resp.StatusCode
}

func TestHandler_CreateSessionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"Malformed JSON", "{", fiber.StatusBadRequest},
		{"Missing Scan Type", `{"source_type":"erp"}`, fiber.StatusBadRequest},
		{"Unknown Scan Type", `{"scan_type":"full","source_type":"erp"}`, fiber.StatusBadRequest},
		{"Missing Source Type", `{"scan_type":"links"}`, fiber.StatusBadRequest},
		{"Negative Source ID", `{"scan_type":"links","source_type":"erp","source_id":-1}`, fiber.StatusBadRequest},
		{"Unregistered Source", `{"scan_type":"links","source_type":"nope"}`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t)
			_, status := postJSON(app, "/scans", tt.body)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestHandler_BulkValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", "{"},
		{"Missing IDs", `{}`},
		{"Empty IDs", `{"result_ids":[]}`},
		{"Zero ID", `{"result_ids":[0]}`},
	}

	for _, path := range []string{"/scan-results/bulk-link", "/scan-results/bulk-create", "/scan-results/bulk-ignore"} {
		for _, tt := range tests {
			t.Run(path+"/"+tt.name, func(t *testing.T) {
				app := setupApp(t)
				_, status := postJSON(app, path, tt.body)
				assert.Equal(t, fiber.StatusBadRequest, status)
			})
		}
	}
}

func TestHandler_InvalidSessionID(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/scans/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/scans/abc/results", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeature_DisabledWithoutDatabase(t *testing.T) {
	feature := NewFeature(nil, zap.NewNop(), scan.Config{})

	assert.Equal(t, "scan", feature.Name())
	assert.False(t, feature.IsEnabled())
}
