package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/analytics"
	"github.com/example/anihub/internal/platform/api"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/services/api/internal/store"
	"github.com/example/anihub/services/api/internal/tokens"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

func Register(st store.Store, ap *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req registerRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Email == "" || req.Password == "" {
			api.BadRequest(w, "INVALID_INPUT", "username, email and password are required", rid, nil)
			return
		}

		hash, err := tokens.HashPassword(req.Password)
		if errors.Is(err, tokens.ErrPasswordTooLong) {
			api.BadRequest(w, "INVALID_INPUT", "password must be at most 72 bytes", rid, nil)
			return
		}
		if err != nil {
			log.Error("hash password", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		u, err := st.CreateUser(r.Context(), store.CreateUserParams{Username: req.Username, Email: req.Email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				api.BadRequest(w, "USER_EXISTS", "Usuário já existe", rid, nil)
				return
			}
			log.Error("create user", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}

		ap.Publish(analytics.SubjectAuthRegistered, "user_registered", u.ID, map[string]any{
			"username": u.Username,
		})
		api.WriteJSON(w, http.StatusCreated, messageResponse{Message: "Usuário criado com sucesso!"})
	}
}

func Login(st store.Store, ts tokens.Service, ap *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req loginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		u, err := st.FindUserByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("find user", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		if err != nil || !tokens.CheckPassword(u.PasswordHash, req.Password) {
			api.BadRequest(w, "INVALID_CREDENTIALS", "Usuário ou senha incorretos", rid, nil)
			return
		}

		tok, _, err := ts.NewAccessToken(u.ID, u.Username, time.Now().UTC())
		if err != nil {
			log.Error("issue token", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}

		ap.Publish(analytics.SubjectAuthLoggedIn, "user_logged_in", u.ID, nil)
		api.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: tok, TokenType: tokens.TokenType, Username: u.Username})
	}
}
