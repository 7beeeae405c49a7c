package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/owlet-learn/owlet/internal/ai"
	"github.com/owlet-learn/owlet/internal/auth"
	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/learning"
	"github.com/owlet-learn/owlet/internal/profile"
	"github.com/owlet-learn/owlet/internal/progress"
)

// Server wires the learning and auth services into HTTP handlers.
type Server struct {
	learn *learning.Service
	auth  *auth.Service
	ready func(ctx context.Context) error
}

// NewServer creates the HTTP server facade. ready reports backing-store
// connectivity for /readyz; nil means always ready.
func NewServer(learn *learning.Service, authSvc *auth.Service, ready func(ctx context.Context) error) *Server {
	return &Server{learn: learn, auth: authSvc, ready: ready}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /v1/auth/logout", s.requireAuth(s.handleLogout))

	mux.HandleFunc("POST /v1/profiles", s.requireAuth(s.handleCreateProfile))
	mux.HandleFunc("GET /v1/profiles", s.requireAuth(s.handleListProfiles))
	mux.HandleFunc("GET /v1/profiles/{id}", s.requireAuth(s.handleGetProfile))
	mux.HandleFunc("GET /v1/profiles/{id}/overview", s.requireAuth(s.handleOverview))

	mux.HandleFunc("GET /v1/subjects", s.requireAuth(s.handleListSubjects))
	mux.HandleFunc("POST /v1/subjects", s.requireAuth(s.handleGenerateCurriculum))
	mux.HandleFunc("GET /v1/subjects/{id}/chapters", s.requireAuth(s.handleListChapters))

	mux.HandleFunc("GET /v1/chapters/{id}/lesson", s.requireAuth(s.handleGetLesson))
	mux.HandleFunc("GET /v1/chapters/{id}/quiz", s.requireAuth(s.handleGetQuiz))
	mux.HandleFunc("POST /v1/chapters/{id}/quiz/submit", s.requireAuth(s.handleSubmitQuiz))

	mux.HandleFunc("GET /v1/shop", s.requireAuth(s.handleListShop))
	mux.HandleFunc("POST /v1/shop/purchase", s.requireAuth(s.handlePurchase))

	return mux
}

type authedHandler func(w http.ResponseWriter, r *http.Request, identity *auth.Identity)

// requireAuth resolves the Bearer token before the handler runs.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		identity, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, identity)
	}
}

// authorizeProfile checks the profile belongs to the caller's account.
func (s *Server) authorizeProfile(ctx context.Context, identity *auth.Identity, profileID string) (*profile.Profile, error) {
	p, err := s.learn.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p.AccountID != identity.AccountID && !identity.Privileged {
		return nil, auth.ErrSessionExpired
	}
	return p, nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	account, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	token, identity, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "identity": identity})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	var req struct {
		DisplayName string `json:"display_name"`
		Grade       int    `json:"grade"`
		AvatarName  string `json:"avatar_name"`
	}
	if !decode(w, r, &req) {
		return
	}

	p, err := s.learn.CreateProfile(r.Context(), identity.AccountID, req.DisplayName, req.Grade, req.AvatarName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	profiles, err := s.learn.ListProfiles(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	p, err := s.authorizeProfile(r.Context(), identity, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	if _, err := s.authorizeProfile(r.Context(), identity, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	overview, err := s.learn.GetOverview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
	grade := queryInt(r, "grade", 0)
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	subjects, err := s.learn.ListSubjects(r.Context(), grade, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

func (s *Server) handleGenerateCurriculum(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	if !identity.Privileged {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", "curriculum generation requires a privileged account"))
		return
	}

	var req struct {
		Name  string `json:"name"`
		Grade int    `json:"grade"`
	}
	if !decode(w, r, &req) {
		return
	}

	subject, chapters, err := s.learn.GenerateCurriculum(r.Context(), req.Name, req.Grade)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"subject": subject, "chapters": chapters})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request, _ *auth.Identity) {
	chapters, err := s.learn.ListChapters(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	profileID := r.URL.Query().Get("profile")
	if _, err := s.authorizeProfile(r.Context(), identity, profileID); err != nil {
		writeError(w, err)
		return
	}

	lesson, err := s.learn.GetLesson(r.Context(), profileID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	profileID := r.URL.Query().Get("profile")
	if _, err := s.authorizeProfile(r.Context(), identity, profileID); err != nil {
		writeError(w, err)
		return
	}

	quiz, err := s.learn.GetQuiz(r.Context(), profileID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	var req struct {
		ProfileID string            `json:"profile_id"`
		Answers   map[string]string `json:"answers"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.authorizeProfile(r.Context(), identity, req.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	answers := make(map[int]string, len(req.Answers))
	for key, value := range req.Answers {
		idx, err := strconv.Atoi(key)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "answer keys must be question indexes"))
			return
		}
		answers[idx] = value
	}

	result, err := s.learn.SubmitQuiz(r.Context(), req.ProfileID, r.PathValue("id"), answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListShop(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	profileID := r.URL.Query().Get("profile")
	if _, err := s.authorizeProfile(r.Context(), identity, profileID); err != nil {
		writeError(w, err)
		return
	}

	entries, err := s.learn.ListShop(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	var req struct {
		ProfileID string `json:"profile_id"`
		ItemID    string `json:"item_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.authorizeProfile(r.Context(), identity, req.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.learn.PurchaseItem(r.Context(), req.ProfileID, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "malformed JSON body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func errorBody(code, message string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "message": message}}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "authentication required"))
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorBody("email_taken", err.Error()))
	case errors.Is(err, gamification.ErrAlreadyOwned):
		writeJSON(w, http.StatusConflict, errorBody("already_owned", err.Error()))
	case errors.Is(err, profile.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, errorBody("insufficient_funds", err.Error()))
	case errors.Is(err, learning.ErrValidation), errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", err.Error()))
	case errors.Is(err, content.ErrSubjectNotFound),
		errors.Is(err, content.ErrChapterNotFound),
		errors.Is(err, content.ErrBlockNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, progress.ErrRecordNotFound),
		errors.Is(err, gamification.ErrItemNotFound),
		errors.Is(err, gamification.ErrBadgeNotFound),
		errors.Is(err, auth.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", err.Error()))
	case errors.Is(err, ai.ErrGenerationFailed), errors.Is(err, ai.ErrMalformedGeneration):
		writeJSON(w, http.StatusBadGateway, errorBody("generation_failed", "content generation failed, try again"))
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal server error"))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
