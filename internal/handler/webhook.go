package handler

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/notify"
	"github.com/lunafit/studio-booking/internal/payment"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// WebhookHandler receives asynchronous payment callbacks. Every delivery
// is appended to purchase_history first, terminal transitions are then
// applied through a conditional update so retries and duplicates become
// acknowledged no-ops.
type WebhookHandler struct {
	Orders   *repository.OrderRepo
	Packages *repository.PackageRepo
	ClientPk *repository.ClientPackageRepo
	Credits  *repository.CreditRepo
	Users    *repository.UserRepo
}

func NewWebhookHandler(orders *repository.OrderRepo, packages *repository.PackageRepo,
	clientPk *repository.ClientPackageRepo, credits *repository.CreditRepo, users *repository.UserRepo) *WebhookHandler {
	if orders == nil || packages == nil || clientPk == nil || credits == nil || users == nil {
		panic("nil repository passed to NewWebhookHandler")
	}
	return &WebhookHandler{Orders: orders, Packages: packages, ClientPk: clientPk, Credits: credits, Users: users}
}

// Receive handles POST /v1/orders/webhook. An unknown vendor status is
// rejected with 400 so the gateway retries instead of the order silently
// staying PENDING. A successful payment activates the package in the
// same transaction that flips the order.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload payment.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	amountCents := uint32(math.Round(payload.TotalAmount * 100))

	// The audit trail records every delivery, valid or not, before any
	// state change is attempted.
	if err := h.Orders.InsertHistory(ctx, &model.PurchaseHistory{
		CheckoutRef: payload.RequestReferenceNumber,
		CheckoutID:  payload.CheckoutID,
		RawStatus:   payload.Status,
		AmountCents: amountCents,
		ReceivedAt:  time.Now().UTC(),
	}); err != nil {
		log.Printf("webhook: history insert failed for %s: %v", payload.RequestReferenceNumber, err)
	}

	status, known := payment.MapStatus(payload.Status)
	if !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid webhook"})
	}

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := h.Orders.GetByCheckoutRefTx(ctx, tx, payload.RequestReferenceNumber)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var approvedAt *time.Time
	if status == model.OrderSuccessful {
		now := time.Now().UTC()
		approvedAt = &now
	}
	flipped, err := h.Orders.MarkTerminalTx(ctx, tx, order.CheckoutRef, status, approvedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !flipped {
		// Duplicate delivery or a late callback for an already-terminal
		// order. Acknowledge so the gateway stops retrying.
		if err := tx.Commit(); err == nil {
			committed = true
		}
		return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"status": order.Status, "duplicate": true}})
	}

	var ev *model.ClientPackage
	var buyer model.User
	if status == model.OrderSuccessful {
		pkg, err := h.Packages.GetByID(ctx, order.PackageID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load package failed"})
		}
		cp, err := activatePackage(ctx, tx, h.ClientPk, h.Credits, order.UserID, pkg, model.PaymentMethodGateway, time.Now().UTC())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activation failed"})
		}
		ev = &cp
		if u, err := h.Users.GetByID(ctx, order.UserID); err == nil {
			buyer = u
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if ev != nil && buyer.ID != 0 {
		_ = notify.Publish(ctx, activationEvent(buyer, *ev, order.AmountCents, order.CheckoutRef))
	}

	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"status": status}})
}
