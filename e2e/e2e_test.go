//go:build e2e

// Package e2e exercises a running riskd over HTTP. Set RISK_URL (default
// http://localhost:9090) and either RISK_TOKEN or JWT_SECRET.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/pkg/auth"
	"github.com/bibbank/registry-risk/pkg/testutil"
)

var (
	serviceURL string
	token      string
)

func TestMain(m *testing.M) {
	serviceURL = os.Getenv("RISK_URL")
	if serviceURL == "" {
		serviceURL = "http://localhost:9090"
	}

	token = os.Getenv("RISK_TOKEN")
	if token == "" {
		if secret := os.Getenv("JWT_SECRET"); secret != "" {
			svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, Expiration: time.Hour})
			if err == nil {
				token, _ = svc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAnalyst})
			}
		}
	}

	// Wait for the service to be ready
	for i := 0; i < 30; i++ {
		resp, err := http.Get(serviceURL + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}

	os.Exit(m.Run())
}

func TestHealthCheck(t *testing.T) {
	resp := getJSON(t, "/health")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestFraudCheckFlow(t *testing.T) {
	// Step 1: assess a company
	resp := postJSON(t, "/api/v1/fraud-check", map[string]any{
		"cnpj":            testutil.ValidCNPJ,
		"include_details": true,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report dto.FraudCheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.GreaterOrEqual(t, report.Score, 0)
	assert.LessOrEqual(t, report.Score, 100)
	assert.NotEmpty(t, report.Reasons)
	require.NotNil(t, report.Details)

	// Step 2: read it back
	got := getJSON(t, fmt.Sprintf("/api/v1/assessments/%s", report.AssessmentID))
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var stored dto.FraudCheckResponse
	require.NoError(t, json.NewDecoder(got.Body).Decode(&stored))
	assert.Equal(t, report.Score, stored.Score)
	assert.Equal(t, report.Reasons, stored.Reasons)
}

func TestRejectsInvalidInput(t *testing.T) {
	resp := postJSON(t, "/api/v1/fraud-check", map[string]any{"cnpj": testutil.InvalidCNPJ})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	checks := make([]map[string]string, 101)
	for i := range checks {
		checks[i] = map[string]string{"cnpj": testutil.ValidCNPJ}
	}
	batch := postJSON(t, "/api/v1/batch-check", map[string]any{"checks": checks})
	defer batch.Body.Close()
	assert.Equal(t, http.StatusBadRequest, batch.StatusCode)
}

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)
	return do(t, http.MethodPost, path, bytes.NewReader(jsonBody))
}

func getJSON(t *testing.T, path string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, path, nil)
}

func do(t *testing.T, method, path string, body *bytes.Reader) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequest(method, serviceURL+path, nil)
	} else {
		req, err = http.NewRequest(method, serviceURL+path, body)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" && strings.HasPrefix(path, "/api/") {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
