package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"scribeai/internal/auth"
	"scribeai/pkg/models"
)

type registerResponse struct {
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

// Register creates a credential account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusInternalServerError, registerResponse{Message: msgSomething})
		return
	}

	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, registerResponse{Message: vErr.Message})
		case errors.Is(err, auth.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, registerResponse{Message: auth.ErrEmailTaken.Error()})
		default:
			log := requestLogger(r)
			log.Error().Err(err).Msg("Registration failed")
			writeJSON(w, http.StatusInternalServerError, registerResponse{Message: msgSomething})
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{User: user, Message: "User created successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *models.User `json:"user"`
}

// Login checks credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, auth.ErrInvalidCredentials.Error())
		return
	}

	session := auth.NewSession()
	token, err := h.auth.Login(r.Context(), session, req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		log := requestLogger(r)
		log.Error().Err(err).Msg("Login failed")
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, h.auth.Tokens().MaxAge(), r.TLS != nil))
	writeJSON(w, http.StatusOK, loginResponse{User: session.User})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(r.TLS != nil))
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the state of the caller's session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.Resolve(r.Context(), auth.TokenFromRequest(r)))
}
