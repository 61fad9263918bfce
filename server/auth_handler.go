package server

import (
	"context"
	"errors"
	"net/http"

	"beatstore/core/auth"
	"beatstore/logger"
	"beatstore/model"
	"beatstore/repository"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// userFromContext returns the authenticated user attached to the request
// context, or nil for anonymous requests.
func userFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// withUser resolves the session's user, if any, and attaches it to the
// request context. Anonymous requests pass through.
func (h *Handler) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok, err := h.sessions.UserID(r.Context(), r)
		if err != nil {
			logger.Error("Failed to resolve session", logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if ok {
			user, err := h.userRepo.GetByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load session user", logger.Int64("userId", userID), logger.ErrorField(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
			}
		}
		next.ServeHTTP(w, r)
	}
}

// requireAuth gates a route on an authenticated session; without one the
// request is redirected to the login view with a notice.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return h.withUser(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			h.flashAndRedirect(w, r, "Please log in to access this page", "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterPageHandler renders the registration form.
func (h *Handler) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", nil)
}

// RegisterHandler handles registration form submissions. Username is checked
// before email; either conflict redirects back with a notice.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if username == "" || email == "" || password == "" {
		h.flashAndRedirect(w, r, "Username, email and password are required", "/register")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			h.flashAndRedirect(w, r, "Username already exists", "/register")
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.flashAndRedirect(w, r, "Email already registered", "/register")
		default:
			logger.Error("Failed to create user", logger.String("username", username), logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, user.ID); err != nil {
		logger.Error("Failed to establish session", logger.Int64("userId", user.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("User registered", logger.String("username", username), logger.Int64("userId", user.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// LoginPageHandler renders the login form.
func (h *Handler) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", nil)
}

// LoginHandler handles login form submissions.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.userRepo.GetByUsername(r.Context(), username)
	if err != nil {
		logger.Error("Failed to query user", logger.String("username", username), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Login failed", logger.String("username", username))
		h.flashAndRedirect(w, r, "Invalid username or password", "/login")
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, user.ID); err != nil {
		logger.Error("Failed to establish session", logger.Int64("userId", user.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("User logged in", logger.String("username", username), logger.Int64("userId", user.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// LogoutHandler ends the current session.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		logger.Error("Failed to end session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
