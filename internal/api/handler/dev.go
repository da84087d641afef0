package handler

import (
	"net/http"
	"strings"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/auth"
)

// DevTokenRequest asks for a signed token for local testing.
type DevTokenRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// DevTokenResponse carries a signed access token.
type DevTokenResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresAt   models.Timestamp `json:"expiresAt"`
}

// DevTokenHandler mints tokens without an identity provider. It must only
// be mounted outside production.
type DevTokenHandler struct {
	tokens *auth.JWTService
}

// NewDevTokenHandler creates a new DevTokenHandler.
func NewDevTokenHandler(tokens *auth.JWTService) *DevTokenHandler {
	return &DevTokenHandler{tokens: tokens}
}

// IssueToken handles POST /v1/dev/tokens.
func (h *DevTokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req DevTokenRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "userId", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	token, expiresAt, err := h.tokens.GenerateAccessToken(auth.Principal{
		UserID: userID,
		Email:  strings.TrimSpace(req.Email),
		Role:   auth.ParseRole(req.Role),
	})
	if err != nil {
		response.InternalError(w, r, "failed to sign token")
		return
	}

	response.JSON(w, r, http.StatusOK, DevTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}
