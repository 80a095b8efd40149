package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shopbilling/auth"
	"shopbilling/ratelimit"
	"shopbilling/validator"
)

type AuthHandler struct {
	Verifier *auth.Verifier
}

// Login checks the admin password. The token handed back is the password
// itself; clients send it as X-Admin-Auth.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in validator.LoginInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	password, err := validator.ValidateLogin(in)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if !h.Verifier.Verify(password) {
		slog.Warn("Failed admin login", "ip", ratelimit.ClientIP(r))
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Login successful",
		Token:   password,
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(auth.HeaderName)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No authentication token provided")
		return
	}
	if !h.Verifier.Verify(token) {
		writeError(w, http.StatusUnauthorized, "Invalid authentication token")
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Authenticated"})
}

const maxBodyBytes = 100 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  verr.Errors,
		})
		return
	}
	writeError(w, http.StatusBadRequest, "Validation failed")
}
