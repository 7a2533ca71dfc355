package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailprobe/verifier"
)

type stubValidator struct {
	lastEmail      string
	lastAggressive bool
	result         *verifier.ValidationResult
}

func (s *stubValidator) Validate(_ context.Context, email string, aggressive bool) *verifier.ValidationResult {
	s.lastEmail = email
	s.lastAggressive = aggressive
	if s.result != nil {
		return s.result
	}
	return &verifier.ValidationResult{
		Email:           strings.ToLower(strings.TrimSpace(email)),
		IsValid:         true,
		Deliverable:     true,
		Result:          verifier.ResultValid,
		Flags:           []string{},
		Confidence:      90,
		ConfidenceLevel: verifier.ConfidenceVeryHigh,
		AggressiveMode:  aggressive,
	}
}

func newTestApp(stub *stubValidator) *fiber.App {
	vc := &ValidationController{
		Validator: stub,
		Logger:    log.New(io.Discard, "", 0),
	}
	app := fiber.New()
	app.Post("/api/v1/validate/email", vc.ValidateEmail)
	app.Get("/api/v1/validate/email", vc.ValidateEmailQuery)
	return app
}

type envelope struct {
	Success bool                      `json:"success"`
	Data    verifier.ValidationResult `json:"data"`
	Error   string                    `json:"error"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestValidateEmailPost(t *testing.T) {
	stub := &stubValidator{}
	app := newTestApp(stub)

	req := httptest.NewRequest("POST", "/api/v1/validate/email",
		strings.NewReader(`{"email":"user@example.com","aggressive_mode":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, verifier.ResultValid, env.Data.Result)
	assert.Equal(t, "user@example.com", stub.lastEmail)
	assert.True(t, stub.lastAggressive)
}

func TestValidateEmailPostRejectsBadBody(t *testing.T) {
	app := newTestApp(&stubValidator{})

	req := httptest.NewRequest("POST", "/api/v1/validate/email",
		strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidateEmailPostRejectsMissingEmail(t *testing.T) {
	app := newTestApp(&stubValidator{})

	req := httptest.NewRequest("POST", "/api/v1/validate/email",
		strings.NewReader(`{"aggressive_mode":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Error)
}

func TestValidateEmailQuery(t *testing.T) {
	stub := &stubValidator{}
	app := newTestApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email?email=user%40example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user@example.com", stub.lastEmail)
	assert.False(t, stub.lastAggressive)
}

func TestValidateEmailQueryAggressive(t *testing.T) {
	stub := &stubValidator{}
	app := newTestApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email?email=user%40example.com&aggressive=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, stub.lastAggressive)
}

func TestValidateEmailQueryRequiresEmail(t *testing.T) {
	app := newTestApp(&stubValidator{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidateEmailReportsInternalErrors(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	stub := &stubValidator{result: &verifier.ValidationResult{
		Email:           "user@example.com",
		Result:          verifier.ResultUnknown,
		Flags:           []string{verifier.FlagInternalError},
		Message:         "validation aborted by internal error: resolver blew up",
		ConfidenceLevel: verifier.ConfidenceLow,
	}}
	app := newTestApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email?email=user%40example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reported bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data["error_type"] == "validation_internal_error" {
			reported = true
			assert.Contains(t, entry.Data["error"], "resolver blew up")
		}
	}
	assert.True(t, reported, "internal error was never reported")
}

func TestValidateEmailCleanResultNotReportedAsError(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	app := newTestApp(&stubValidator{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email?email=user%40example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, "clean validation must not log an error")
	}
}

func TestValidateEmailPassesEngineResultThrough(t *testing.T) {
	stub := &stubValidator{result: &verifier.ValidationResult{
		Email:           "ghost@corp.example",
		Result:          verifier.ResultInvalid,
		Flags:           []string{"user_unknown"},
		Confidence:      12,
		ConfidenceLevel: verifier.ConfidenceLow,
		BounceRisk:      "high",
	}}
	app := newTestApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/validate/email?email=ghost%40corp.example", nil))
	require.NoError(t, err)

	env := decodeEnvelope(t, resp.Body)
	assert.Equal(t, verifier.ResultInvalid, env.Data.Result)
	assert.Contains(t, env.Data.Flags, "user_unknown")
	assert.Equal(t, 12, env.Data.Confidence)
}
