package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// ProfileHandler covers self-service profile editing and the admin user
// management surface (staff creation, client search, deactivation and
// soft deletion).
type ProfileHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewProfileHandler(cfg config.Config, users *repository.UserRepo) *ProfileHandler {
	if users == nil {
		panic("nil repository passed to NewProfileHandler")
	}
	return &ProfileHandler{Cfg: cfg, Users: users}
}

type updateProfileReq struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// UpdateProfile handles PUT /v1/me/profile. Users may only edit their
// own row; role and email changes go through admin operations.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.UpdateProfile(ctx, uid, req.FirstName, req.LastName, req.Phone, req.AvatarURL); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toUserPart(u)})
}

// SearchClients handles GET /v1/admin/clients/search?q=. Matching is a
// substring search over name and email.
func (h *ProfileHandler) SearchClients(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	users, err := h.Users.SearchClients(ctx, query, 25)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

type createStaffReq struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=instructor admin"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// CreateStaff handles POST /v1/admin/users and creates instructor or
// admin accounts. Client accounts come from public sign-up.
func (h *ProfileHandler) CreateStaff(c echo.Context) error {
	var req createStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Role, req.FirstName, req.LastName, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": userPart{
		ID: uid, Email: req.Email, Role: req.Role, FirstName: req.FirstName, LastName: req.LastName,
	}})
}

type deactivateReq struct {
	Deactivated *bool `json:"deactivated" validate:"required"`
}

// SetDeactivated handles PUT /v1/admin/users/:id/deactivate.
func (h *ProfileHandler) SetDeactivated(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req deactivateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.SetDeactivated(ctx, id, *req.Deactivated); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/admin/users/:id. The row is soft-deleted;
// a user with active bookings cannot be removed while those bookings
// still reference them.
func (h *ProfileHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.SoftDelete(ctx, id); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "user still has active bookings"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// displayName builds the name snapshotted onto classes and orders.
func displayName(u model.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
