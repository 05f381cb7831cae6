package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/notify"
	"github.com/lunafit/studio-booking/internal/queue"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// BookingHandler implements class booking, walk-ins, cancellation and
// attendance marking. Slot reservation and credit spending happen in one
// transaction per booking so a full class and an empty balance can never
// disagree.
type BookingHandler struct {
	Cfg      config.Config
	Classes  *repository.ClassRepo
	Bookings *repository.BookingRepo
	Credits  *repository.CreditRepo
	ClientPk *repository.ClientPackageRepo
	Users    *repository.UserRepo
}

func NewBookingHandler(cfg config.Config, classes *repository.ClassRepo, bookings *repository.BookingRepo,
	credits *repository.CreditRepo, clientPk *repository.ClientPackageRepo, users *repository.UserRepo) *BookingHandler {
	if classes == nil || bookings == nil || credits == nil || clientPk == nil || users == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Classes: classes, Bookings: bookings, Credits: credits, ClientPk: clientPk, Users: users}
}

type bookingResp struct {
	ID          uint64  `json:"id"`
	ClassID     uint64  `json:"class_id"`
	UserID      *uint64 `json:"user_id,omitempty"`
	WalkInName  string  `json:"walk_in_name,omitempty"`
	WalkInPhone string  `json:"walk_in_phone,omitempty"`
	ClassDate   string  `json:"class_date"`
	Status      string  `json:"status"`
}

func toBookingResp(b model.ClassBooking) bookingResp {
	return bookingResp{
		ID: b.ID, ClassID: b.ClassID, UserID: b.UserID,
		WalkInName: b.WalkInName, WalkInPhone: b.WalkInPhone,
		ClassDate: b.ClassDate.UTC().Format(time.RFC3339),
		Status:    b.Status,
	}
}

// refundEligible reports whether cancelling at "now" returns the
// consumed credit. The cutoff is measured against the class start.
func refundEligible(classStart, now time.Time, cutoffHours int) bool {
	return classStart.Sub(now) > time.Duration(cutoffHours)*time.Hour
}

// Create handles POST /v1/classes/:id/bookings. In one transaction: the
// slot is reserved with a conditional update, the active package is
// checked, a credit is spent unless the package is unlimited, and the
// booking row is inserted. Any failure rolls the whole thing back.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Classes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cl, err := h.Classes.GetByIDTx(ctx, tx, classID)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !cl.StartsAt.After(time.Now().UTC()) && getRole(c) == model.RoleClient {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class already started"})
	}

	if err := h.Classes.ReserveSlotTx(ctx, tx, classID); err != nil {
		if err == repository.ErrClassFull {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "class is full"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}

	cp, err := h.ClientPk.GetActiveByUserTx(ctx, tx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active package"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !cp.Unlimited() {
		if err := h.Credits.SpendOneTx(ctx, tx, uid); err != nil {
			if err == repository.ErrInsufficientCredits {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient credits"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "spend credit failed"})
		}
	}

	b := model.ClassBooking{
		ClassID:   classID,
		UserID:    &uid,
		ClassDate: cl.StartsAt,
		Status:    model.BookingActive,
	}
	if err := h.Bookings.CreateTx(ctx, tx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if u, err := h.Users.GetByID(ctx, uid); err == nil {
		_ = notify.Publish(ctx, queue.NotificationEvent{
			Kind:           queue.KindBookingConfirmed,
			UserID:         uid,
			RecipientEmail: u.Email,
			RecipientName:  u.FirstName,
			ClassTitle:     cl.Title,
			InstructorName: cl.InstructorName,
			StartsAt:       cl.StartsAt.UTC().Format(time.RFC3339),
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		})
	} else {
		log.Printf("booking: skip confirmation mail, load user %d: %v", uid, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"data": toBookingResp(b)})
}

type walkInReq struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// CreateWalkIn handles POST /v1/classes/:id/walkins. Walk-ins take
// a slot like any booking but carry no user account and spend no
// credits; the person's name and phone are stored inline.
func (h *BookingHandler) CreateWalkIn(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req walkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Classes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cl, err := h.Classes.GetByIDTx(ctx, tx, classID)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Classes.ReserveSlotTx(ctx, tx, classID); err != nil {
		if err == repository.ErrClassFull {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "class is full"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}

	b := model.ClassBooking{
		ClassID:     classID,
		WalkInName:  req.Name,
		WalkInPhone: req.Phone,
		ClassDate:   cl.StartsAt,
		Status:      model.BookingActive,
	}
	if err := h.Bookings.CreateTx(ctx, tx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{"data": toBookingResp(b)})
}

// Cancel handles POST /v1/bookings/:id/cancel. The slot is always
// released; the credit comes back only when cancellation happens early
// enough before the class start. Clients may only cancel their own
// bookings, staff may cancel any.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := getRole(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Classes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if role == model.RoleClient && (b.UserID == nil || *b.UserID != uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	now := time.Now().UTC()
	if !b.ClassDate.After(now) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class already started"})
	}

	if err := h.Bookings.CancelTx(ctx, tx, id); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if err := h.Classes.ReleaseSlotTx(ctx, tx, b.ClassID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release slot failed"})
	}

	refunded := false
	if !b.WalkIn() && refundEligible(b.ClassDate, now, h.Cfg.RefundCutoffHours) {
		// Unlimited packages spent no credit, so there is nothing to
		// refund. A missing active package still refunds: the credit was
		// spent from the shared balance and remains usable.
		cp, err := h.ClientPk.GetActiveByUserTx(ctx, tx, *b.UserID)
		spent := err == sql.ErrNoRows || (err == nil && !cp.Unlimited())
		if err != nil && err != sql.ErrNoRows {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if spent {
			if err := h.Credits.RefundOneTx(ctx, tx, *b.UserID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
			}
			refunded = true
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"status": model.BookingCancelled, "credit_refunded": refunded}})
}

type attendanceReq struct {
	Status string `json:"status" validate:"required,oneof=attended no_show"`
}

// MarkAttendance handles PUT /v1/bookings/:id/attendance and moves
// an active booking to attended or no_show.
func (h *BookingHandler) MarkAttendance(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req attendanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Bookings.MarkAttendance(ctx, id, req.Status); err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not active"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"status": req.Status}})
}

// ListMine handles GET /v1/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	bookings, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// ListByClass handles GET /v1/classes/:id/bookings so instructors
// can see the roster, walk-ins included.
func (h *BookingHandler) ListByClass(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	bookings, err := h.Bookings.ListByClass(ctx, classID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}
