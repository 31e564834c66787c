package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/middleware"
	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/repository"
	"github.com/eventify/ticketing/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, u UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const minPasswordLen = 6

// Register creates a USER account. Admins are never created here.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = repository.NormalizeEmail(req.Email)
	switch {
	case req.Name == "" || req.Email == "" || req.Password == "":
		return badRequest(c, "name, email and password are required")
	case !validEmail(req.Email):
		return badRequest(c, "email is not valid")
	case len(req.Password) < minPasswordLen:
		return badRequest(c, "password must be at least 6 characters")
	case len(req.Password) > utils.MaxPasswordBytes:
		return badRequest(c, utils.ErrPasswordTooLong.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return writeError(c, http.StatusConflict, model.CodeConflict, "Error: Email is already in use!")
		}
		return fail(c, err)
	}
	return message(c, http.StatusCreated, "User registered successfully!")
}

// Login verifies credentials and returns the user with a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return writeError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Invalid email or password")
		}
		return fail(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return writeError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Invalid email or password")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, err)
	}
	return item(c, http.StatusOK, model.AuthResult{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, model.CodeUnauthorized, "unauthorized")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return writeError(c, http.StatusUnauthorized, model.CodeUnauthorized, "account no longer exists")
	}
	if err != nil {
		return fail(c, err)
	}
	return item(c, http.StatusOK, u)
}

// SeedAdmin creates the configured admin account unless it exists. It is
// a no-op when ADMIN_EMAIL is unset.
func SeedAdmin(ctx context.Context, cfg config.Config, users UserStore, log logrus.FieldLogger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	id, err := users.Create(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, model.RoleAdmin, cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"user_id": id, "email": cfg.AdminEmail}).Info("admin account seeded")
	return nil
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
