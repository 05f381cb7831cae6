package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// ClassHandler serves the class schedule: a filterable listing for
// everyone and CRUD for admins. The instructor name is snapshotted onto
// the class row at scheduling time so the schedule stays readable after
// an instructor account is removed.
type ClassHandler struct {
	Classes *repository.ClassRepo
	Users   *repository.UserRepo
}

func NewClassHandler(classes *repository.ClassRepo, users *repository.UserRepo) *ClassHandler {
	if classes == nil || users == nil {
		panic("nil repository passed to NewClassHandler")
	}
	return &ClassHandler{Classes: classes, Users: users}
}

type classResp struct {
	ID             uint64  `json:"id"`
	InstructorID   *uint64 `json:"instructor_id,omitempty"`
	InstructorName string  `json:"instructor_name"`
	Title          string  `json:"title"`
	StartsAt       string  `json:"starts_at"`
	EndsAt         string  `json:"ends_at"`
	AvailableSlots uint32  `json:"available_slots"`
	TakenSlots     uint32  `json:"taken_slots"`
}

func toClassResp(cl model.Class) classResp {
	return classResp{
		ID: cl.ID, InstructorID: cl.InstructorID, InstructorName: cl.InstructorName,
		Title: cl.Title,
		StartsAt: cl.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:   cl.EndsAt.UTC().Format(time.RFC3339),
		AvailableSlots: cl.AvailableSlots, TakenSlots: cl.TakenSlots,
	}
}

// List handles GET /v1/classes?date=YYYY-MM-DD&instructor_id=N. Without
// a date the listing starts at "now" so past classes drop off. The
// route sits behind the response-cache middleware.
func (h *ClassHandler) List(c echo.Context) error {
	var filter repository.ListFilter
	if d := c.QueryParam("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
		filter.From = day
		filter.To = day.Add(24 * time.Hour)
	} else {
		filter.From = time.Now().UTC()
	}
	if iid := c.QueryParam("instructor_id"); iid != "" {
		id, err := strconv.ParseUint(iid, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instructor_id"})
		}
		filter.InstructorID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	classes, err := h.Classes.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]classResp, 0, len(classes))
	for _, cl := range classes {
		out = append(out, toClassResp(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Get handles GET /v1/classes/:id.
func (h *ClassHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toClassResp(cl)})
}

type classReq struct {
	InstructorID   uint64 `json:"instructor_id" validate:"required"`
	Title          string `json:"title" validate:"required"`
	StartsAt       string `json:"starts_at" validate:"required"`
	EndsAt         string `json:"ends_at" validate:"required"`
	AvailableSlots uint32 `json:"available_slots" validate:"required,gt=0"`
}

func (h *ClassHandler) bindClass(c echo.Context) (model.Class, bool, error) {
	var req classReq
	if err := c.Bind(&req); err != nil {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
	}
	if !endsAt.After(startsAt) {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	instructor, err := h.Users.GetByID(ctx, req.InstructorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Class{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "instructor not found"})
		}
		return model.Class{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if instructor.Role != model.RoleInstructor {
		return model.Class{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "user is not an instructor"})
	}
	iid := instructor.ID
	return model.Class{
		InstructorID:   &iid,
		InstructorName: displayName(instructor),
		Title:          req.Title,
		StartsAt:       startsAt.UTC(),
		EndsAt:         endsAt.UTC(),
		AvailableSlots: req.AvailableSlots,
	}, true, nil
}

// Create handles POST /v1/admin/classes.
func (h *ClassHandler) Create(c echo.Context) error {
	cl, ok, errResp := h.bindClass(c)
	if !ok {
		return errResp
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Classes.Create(ctx, &cl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": toClassResp(cl)})
}

// Update handles PUT /v1/admin/classes/:id. Shrinking capacity below
// the spots already taken is rejected with 409.
func (h *ClassHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	cl, ok, errResp := h.bindClass(c)
	if !ok {
		return errResp
	}
	cl.ID = id
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Classes.Update(ctx, &cl); err != nil {
		switch err {
		case repository.ErrClassNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below taken slots"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	fresh, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"data": toClassResp(cl)})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toClassResp(fresh)})
}

// Delete handles DELETE /v1/admin/classes/:id. Classes with booking
// history are kept (409) because bookings are never physically deleted.
func (h *ClassHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Classes.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrClassNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
