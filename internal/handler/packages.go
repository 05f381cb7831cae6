package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// PackageHandler serves the package catalog: a public listing for
// clients and full CRUD for admins.
type PackageHandler struct {
	Packages *repository.PackageRepo
}

func NewPackageHandler(packages *repository.PackageRepo) *PackageHandler {
	if packages == nil {
		panic("nil repository passed to NewPackageHandler")
	}
	return &PackageHandler{Packages: packages}
}

type packageResp struct {
	ID                uint64  `json:"id"`
	Title             string  `json:"title"`
	PriceCents        uint32  `json:"price_cents"`
	Credits           *uint32 `json:"credits"` // null = unlimited
	ValidityDays      uint32  `json:"validity_days"`
	OfferedForClients bool    `json:"offered_for_clients"`
	Promo             bool    `json:"promo"`
}

func toPackageResp(p model.Package) packageResp {
	return packageResp{
		ID: p.ID, Title: p.Title, PriceCents: p.PriceCents, Credits: p.Credits,
		ValidityDays: p.ValidityDays, OfferedForClients: p.OfferedForClients, Promo: p.Promo,
	}
}

// List handles GET /v1/packages. Clients only see offered packages;
// admins see the whole catalog via the same route.
func (h *PackageHandler) List(c echo.Context) error {
	offeredOnly := getRole(c) != model.RoleAdmin
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	packages, err := h.Packages.List(ctx, offeredOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]packageResp, 0, len(packages))
	for _, p := range packages {
		out = append(out, toPackageResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

type packageReq struct {
	Title             string  `json:"title" validate:"required"`
	PriceCents        uint32  `json:"price_cents"`
	Credits           *uint32 `json:"credits" validate:"omitempty,gt=0"` // null = unlimited
	ValidityDays      uint32  `json:"validity_days" validate:"required,gt=0"`
	OfferedForClients bool    `json:"offered_for_clients"`
	Promo             bool    `json:"promo"`
}

// Create handles POST /v1/admin/packages.
func (h *PackageHandler) Create(c echo.Context) error {
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p := model.Package{
		Title: req.Title, PriceCents: req.PriceCents, Credits: req.Credits,
		ValidityDays: req.ValidityDays, OfferedForClients: req.OfferedForClients, Promo: req.Promo,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Packages.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": toPackageResp(p)})
}

// Update handles PUT /v1/admin/packages/:id. Existing client_packages
// keep their purchase-time snapshot and are not touched.
func (h *PackageHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p := model.Package{
		ID: id, Title: req.Title, PriceCents: req.PriceCents, Credits: req.Credits,
		ValidityDays: req.ValidityDays, OfferedForClients: req.OfferedForClients, Promo: req.Promo,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Packages.Update(ctx, &p); err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toPackageResp(p)})
}

// Delete handles DELETE /v1/admin/packages/:id (soft delete).
func (h *PackageHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Packages.Delete(ctx, id); err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
