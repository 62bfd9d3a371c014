package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/api"
	"github.com/example/anihub/internal/platform/auth"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/services/api/internal/store"
)

type animeItemRequest struct {
	AnimeID int    `json:"anime_id"`
	Title   string `json:"title"`
	Cover   string `json:"cover"`
	Format  string `json:"format"`
}

type historyRequest struct {
	AnimeID int    `json:"anime_id"`
	Title   string `json:"title"`
	Cover   string `json:"cover"`
	Episode int    `json:"episode"`
}

type profileRequest struct {
	Bio         string `json:"bio"`
	AvatarColor string `json:"avatar_color"`
}

type profileResponse struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
	AvatarColor string `json:"avatar_color"`
}

type listMessages struct {
	added, exists, removed string
}

var messages = map[store.List]listMessages{
	store.Favorites: {added: "Adicionado aos favoritos", exists: "Já existe", removed: "Removido"},
	store.Watchlist: {added: "Adicionado à lista", exists: "Já existe na lista", removed: "Removido da lista"},
}

// currentUser returns the authenticated user id or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
		return "", false
	}
	return uid, true
}

func AddListItem(st store.Store, list store.List, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		var req animeItemRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.AnimeID <= 0 {
			api.BadRequest(w, "INVALID_ANIME_ID", "anime_id must be a positive integer", rid, nil)
			return
		}

		err := st.AddItem(r.Context(), list, uid, store.AnimeItem{AnimeID: req.AnimeID, Title: req.Title, Cover: req.Cover, Format: strings.TrimSpace(req.Format)})
		switch {
		case errors.Is(err, store.ErrExists):
			api.WriteJSON(w, http.StatusOK, messageResponse{Message: messages[list].exists})
		case err != nil:
			log.Error("add list item", zap.String("list", string(list)), zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
		default:
			api.WriteJSON(w, http.StatusOK, messageResponse{Message: messages[list].added})
		}
	}
}

func RemoveListItem(st store.Store, list store.List, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		animeID, err := strconv.Atoi(pathParam(r, "anime_id"))
		if err != nil {
			api.BadRequest(w, "INVALID_ANIME_ID", "anime_id must be an integer", rid, nil)
			return
		}
		if err := st.RemoveItem(r.Context(), list, uid, animeID); err != nil {
			log.Error("remove list item", zap.String("list", string(list)), zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: messages[list].removed})
	}
}

func ListItems(st store.Store, list store.List, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		items, err := st.ListItems(r.Context(), list, uid)
		if err != nil {
			log.Error("list items", zap.String("list", string(list)), zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		if items == nil {
			items = []store.AnimeItem{}
		}
		api.WriteJSON(w, http.StatusOK, items)
	}
}

func UpdateHistory(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		var req historyRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.AnimeID <= 0 {
			api.BadRequest(w, "INVALID_ANIME_ID", "anime_id must be a positive integer", rid, nil)
			return
		}
		if req.Episode < 1 {
			api.BadRequest(w, "INVALID_EPISODE", "episode must be >= 1", rid, nil)
			return
		}
		item := store.HistoryItem{AnimeID: req.AnimeID, Title: req.Title, Cover: req.Cover, Episode: req.Episode}
		if err := st.UpsertHistory(r.Context(), uid, item); err != nil {
			log.Error("upsert history", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Histórico atualizado"})
	}
}

func ListHistory(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		items, err := st.ListHistory(r.Context(), uid)
		if err != nil {
			log.Error("list history", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		if items == nil {
			items = []store.HistoryItem{}
		}
		api.WriteJSON(w, http.StatusOK, items)
	}
}

func Me(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		u, err := st.GetUserByID(r.Context(), uid)
		if err != nil {
			writeUserError(w, rid, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, toProfile(u))
	}
}

func UpdateMe(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		var req profileRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if _, err := st.UpdateProfile(r.Context(), uid, strings.TrimSpace(req.Bio), strings.TrimSpace(req.AvatarColor)); err != nil {
			writeUserError(w, rid, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Perfil atualizado!"})
	}
}

func writeUserError(w http.ResponseWriter, rid string, log *zap.Logger, err error) {
	if errors.Is(err, store.ErrNotFound) {
		api.NotFound(w, "USER_NOT_FOUND", "User not found", rid)
		return
	}
	log.Error("user lookup", zap.String("request_id", rid), zap.Error(err))
	api.Internal(w, rid)
}

func toProfile(u store.User) profileResponse {
	return profileResponse{Username: u.Username, Email: u.Email, Bio: u.Bio, AvatarColor: u.AvatarColor}
}
