package handler

import (
	"context"      // context for store interfaces
	"database/sql" // sql.ErrNoRows signals unknown users and tokens
	"errors"       // errors.Is for sentinel matching
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // token expiry timestamps

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/quickcourt/quickcourt-api/internal/model"      // user roles
	"github.com/quickcourt/quickcourt-api/internal/repository" // sentinel errors
	"github.com/quickcourt/quickcourt-api/internal/utils"      // hashing and token issuing
)

// UserStore is the part of the user repository used by auth.
type UserStore interface {
	Create(ctx context.Context, email, fullName, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      UserStore
	Tokens     TokenStore
	Issuer     *utils.TokenIssuer
	BcryptCost int
	Log        *zap.Logger
}

func NewAuthHandler(u UserStore, t TokenStore, issuer *utils.TokenIssuer, bcryptCost int, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, Issuer: issuer, BcryptCost: bcryptCost, Log: orNop(log)}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"` // USER | OWNER
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return errorJSON(c, http.StatusBadRequest, "email, full_name and password required")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	// admins are provisioned out of band, never through self sign-up
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleOwner {
		role = model.RoleUser
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.FullName, req.Password, role, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return errorJSON(c, http.StatusConflict, "email already exists")
		}
		return internalError(c, h.Log, "create user failed", err)
	}

	u := model.User{ID: uid, Email: req.Email, FullName: req.FullName, Role: role}
	return h.issuePair(ctx, c, http.StatusCreated, u)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, h.Log, "query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return errorJSON(c, http.StatusForbidden, "account is banned")
	}
	return h.issuePair(ctx, c, http.StatusOK, u)
}

// Refresh: exchange a refresh token for a new pair.  The old token is
// revoked in the same transaction, so each token works once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errorJSON(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestContext(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return internalError(c, h.Log, "validate refresh failed", err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return internalError(c, h.Log, "load user failed", err)
	}
	if !u.IsActive {
		return errorJSON(c, http.StatusForbidden, "account is banned")
	}

	access, err := h.Issuer.Access(u.ID, u.Role)
	if err != nil {
		return internalError(c, h.Log, "issue access failed", err)
	}
	newRef, err := h.Issuer.Refresh()
	if err != nil {
		return internalError(c, h.Log, "issue refresh failed", err)
	}
	if err := h.Tokens.Rotate(ctx, u.ID, hash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		if errors.Is(err, sql.ErrNoRows) { // lost a race with another exchange
			return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return internalError(c, h.Log, "rotate refresh failed", err)
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout revokes the refresh token in the body.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errorJSON(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid refresh token")
		}
		return internalError(c, h.Log, "logout failed", err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return internalError(c, h.Log, "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the authenticated user (protected).
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return internalError(c, h.Log, "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusNotFound, "user not found")
		}
		return internalError(c, h.Log, "load user failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

// issuePair mints and stores a fresh token pair for u.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, status int, u model.User) error {
	access, err := h.Issuer.Access(u.ID, u.Role)
	if err != nil {
		return internalError(c, h.Log, "issue access failed", err)
	}
	refresh, err := h.Issuer.Refresh()
	if err != nil {
		return internalError(c, h.Log, "issue refresh failed", err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return internalError(c, h.Log, "save refresh failed", err)
	}
	return c.JSON(status, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
