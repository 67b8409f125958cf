package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"mailmind/internal/config"
	"mailmind/internal/model"
	"mailmind/internal/service"
)

// UserContextKey holds the *model.User resolved by the auth middleware.
const UserContextKey = "user"

var ErrNotAuthenticated = errors.New("user not authenticated")

// UserResolver resolves the signed-in user of a request.
type UserResolver interface {
	GetCurrentUser(c echo.Context) (*model.User, error)
}

type AuthHandler struct {
	authService  service.AuthService
	inboxService service.InboxService
	store        sessions.Store
	aiEnabled    bool
	logger       echo.Logger
}

func NewAuthHandler(
	authService service.AuthService,
	inboxService service.InboxService,
	cfg *config.Config,
	store sessions.Store,
	logger echo.Logger,
) *AuthHandler {
	gothic.Store = store

	if cfg.GoogleClientID != "" {
		goth.UseProviders(
			google.New(
				cfg.GoogleClientID,
				cfg.GoogleClientSecret,
				cfg.BaseURL+"/auth/google/callback",
				"https://www.googleapis.com/auth/gmail.readonly",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			),
		)
	}

	return &AuthHandler{
		authService:  authService,
		inboxService: inboxService,
		store:        store,
		aiEnabled:    cfg.AIEnabled(),
		logger:       logger,
	}
}

// withProvider sets the provider query parameter so goth can recognize it.
func withProvider(c echo.Context) *http.Request {
	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", "google")
	req.URL.RawQuery = q.Encode()
	return req
}

// BeginAuthHandler initiates the OAuth flow
func (h *AuthHandler) BeginAuthHandler(c echo.Context) error {
	if c.Param("provider") != "google" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid provider",
		})
	}

	gothic.BeginAuthHandler(c.Response(), withProvider(c))
	return nil
}

// CallbackHandler handles the OAuth callback
func (h *AuthHandler) CallbackHandler(c echo.Context) error {
	req := withProvider(c)

	googleUser, err := gothic.CompleteUserAuth(c.Response(), req)
	if err != nil {
		h.logger.Error("Failed to complete user auth:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Authentication failed",
		})
	}

	user, err := h.authService.GetOrCreateUser(
		req.Context(),
		googleUser.Provider+"_"+googleUser.UserID,
		googleUser.Email,
		googleUser.Name,
		googleUser.AccessToken,
		googleUser.RefreshToken,
		googleUser.ExpiresAt,
	)
	if err != nil {
		h.logger.Error("Failed to get or create user:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to process user",
		})
	}

	if err := h.saveSessionUser(c, user.ID); err != nil {
		h.logger.Error("Failed to save session:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to save session",
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// LogoutHandler discards the user's working set and clears the session.
// Processed records stay in storage.
func (h *AuthHandler) LogoutHandler(c echo.Context) error {
	if userID, err := h.sessionUserID(c); err == nil {
		h.inboxService.CloseWorkspace(userID)
	}

	if err := h.saveSessionUser(c, ""); err != nil {
		h.logger.Warn("Failed to clear session:", err)
	}
	if err := gothic.Logout(c.Response(), withProvider(c)); err != nil {
		h.logger.Warn("Failed to clear provider session:", err)
	}

	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// Me returns the signed-in user and whether AI features are available.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":       user,
		"ai_enabled": h.aiEnabled,
	})
}

// GetCurrentUser returns the current authenticated user
func (h *AuthHandler) GetCurrentUser(c echo.Context) (*model.User, error) {
	if user, ok := c.Get(UserContextKey).(*model.User); ok {
		return user, nil
	}

	userID, err := h.sessionUserID(c)
	if err != nil {
		return nil, err
	}

	user, err := h.authService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from database: %w", err)
	}

	return user, nil
}

func (h *AuthHandler) sessionUserID(c echo.Context) (string, error) {
	session, err := h.store.Get(c.Request(), sessionName)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	userID, ok := session.Values[sessionUserKey].(string)
	if !ok || userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}

// saveSessionUser stores userID in the session. An empty id expires it.
func (h *AuthHandler) saveSessionUser(c echo.Context, userID string) error {
	session, _ := h.store.Get(c.Request(), sessionName)
	if userID == "" {
		delete(session.Values, sessionUserKey)
		if session.Options != nil {
			session.Options.MaxAge = -1
		}
	} else {
		session.Values[sessionUserKey] = userID
	}
	return session.Save(c.Request(), c.Response())
}
