package controllers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/likexian/whois"

	"mailprobe/config"
	"mailprobe/utils"
	"mailprobe/verifier"
)

// EmailValidator is the slice of the verifier the controller needs; tests
// substitute it to keep handler tests off the network.
type EmailValidator interface {
	Validate(ctx context.Context, email string, aggressive bool) *verifier.ValidationResult
}

// ValidationController exposes the validation engine over HTTP.
type ValidationController struct {
	Validator    EmailValidator
	Logger       *log.Logger
	WhoisEnabled bool
}

func NewValidationController(v EmailValidator, logger *log.Logger) *ValidationController {
	return &ValidationController{
		Validator:    v,
		Logger:       logger,
		WhoisEnabled: config.AppConfig.WhoisEnabled,
	}
}

type validateEmailRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Aggressive bool   `json:"aggressive_mode"`
}

// ValidateEmail handles POST /api/v1/validate/email.
func (vc *ValidationController) ValidateEmail(c *fiber.Ctx) error {
	var req validateEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	return vc.respond(c, req.Email, req.Aggressive)
}

// ValidateEmailQuery handles GET /api/v1/validate/email?email=...&aggressive=true.
func (vc *ValidationController) ValidateEmailQuery(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "email query parameter is required", nil)
	}
	aggressive := c.QueryBool("aggressive", false)

	return vc.respond(c, email, aggressive)
}

func (vc *ValidationController) respond(c *fiber.Ctx, email string, aggressive bool) error {
	result := vc.Validator.Validate(c.Context(), email, aggressive)
	vc.Logger.Printf("validated %s: result=%s confidence=%d in %dms",
		result.Email, result.Result, result.Confidence, result.ExecutionTime)

	// A recovered engine failure still produces a normal result; the report
	// to Sentry happens here, at the boundary that owns error reporting.
	for _, flag := range result.Flags {
		if flag == verifier.FlagInternalError {
			utils.LogError("validation_internal_error", errors.New(result.Message), map[string]interface{}{
				"email": result.Email,
				"ip":    c.IP(),
			})
			break
		}
	}

	utils.LogEvent("email_validated", map[string]interface{}{
		"result":     result.Result,
		"confidence": result.Confidence,
		"aggressive": aggressive,
		"ip":         c.IP(),
	})

	// WHOIS is informational enrichment only; failures never affect the
	// verdict or the status code.
	if vc.WhoisEnabled {
		if _, domain, ok := splitEmailDomain(result.Email); ok {
			whoisInfo, err := whois.Whois(domain)
			if err != nil {
				utils.LogError("whois_lookup_failed", err, map[string]interface{}{"domain": domain})
			} else {
				result.WHOIS = whoisInfo
			}
		}
	}

	return c.JSON(utils.SuccessResponse(result))
}

func splitEmailDomain(email string) (local, domain string, ok bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}
