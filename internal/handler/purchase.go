package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/notify"
	"github.com/lunafit/studio-booking/internal/payment"
	"github.com/lunafit/studio-booking/internal/queue"
	"github.com/lunafit/studio-booking/internal/repository"
	"github.com/lunafit/studio-booking/internal/validate"
)

// PurchaseHandler covers package purchases: gateway checkout initiation,
// admin cash grants, the client's own ledger views and admin corrections
// to individual ledger entries.
type PurchaseHandler struct {
	Cfg      config.Config
	Packages *repository.PackageRepo
	Orders   *repository.OrderRepo
	ClientPk *repository.ClientPackageRepo
	Credits  *repository.CreditRepo
	Users    *repository.UserRepo
	Gateway  *payment.Client
}

func NewPurchaseHandler(cfg config.Config, packages *repository.PackageRepo, orders *repository.OrderRepo,
	clientPk *repository.ClientPackageRepo, credits *repository.CreditRepo, users *repository.UserRepo,
	gateway *payment.Client) *PurchaseHandler {
	if packages == nil || orders == nil || clientPk == nil || credits == nil || users == nil || gateway == nil {
		panic("nil dependency passed to NewPurchaseHandler")
	}
	return &PurchaseHandler{Cfg: cfg, Packages: packages, Orders: orders, ClientPk: clientPk,
		Credits: credits, Users: users, Gateway: gateway}
}

// activatePackage applies a confirmed purchase inside tx: the previous
// active entry (if any) expires, a new snapshot row is inserted and the
// credit balance is overwritten with the new package's credits. Unused
// credits from the previous package do not carry over.
func activatePackage(ctx context.Context, tx *sql.Tx, clientPk *repository.ClientPackageRepo,
	credits *repository.CreditRepo, userID uint64, pkg model.Package, paymentMethod string, now time.Time) (model.ClientPackage, error) {
	if err := clientPk.ExpireActiveTx(ctx, tx, userID, now); err != nil {
		return model.ClientPackage{}, err
	}
	cp := model.ClientPackage{
		UserID:        userID,
		PackageID:     pkg.ID,
		Title:         pkg.Title,
		Credits:       pkg.Credits,
		ValidityDays:  pkg.ValidityDays,
		Status:        model.ClientPackageActive,
		PaymentMethod: paymentMethod,
		PurchasedAt:   now,
		ExpiresAt:     now.Add(time.Duration(pkg.ValidityDays) * 24 * time.Hour),
	}
	if err := clientPk.InsertTx(ctx, tx, &cp); err != nil {
		return model.ClientPackage{}, err
	}
	var balance uint32
	if pkg.Credits != nil {
		balance = *pkg.Credits
	}
	if err := credits.SetBalanceTx(ctx, tx, userID, balance); err != nil {
		return model.ClientPackage{}, err
	}
	return cp, nil
}

// activationEvent builds the purchase-confirmed notification for a
// freshly activated ledger entry.
func activationEvent(u model.User, cp model.ClientPackage, amountCents uint32, ref string) queue.NotificationEvent {
	ev := queue.NotificationEvent{
		Kind:           queue.KindPurchaseConfirmed,
		UserID:         u.ID,
		RecipientEmail: u.Email,
		RecipientName:  u.FirstName,
		PackageTitle:   cp.Title,
		Unlimited:      cp.Unlimited(),
		ExpiresAt:      cp.ExpiresAt.UTC().Format(time.RFC3339),
		AmountCents:    amountCents,
		CheckoutRef:    ref,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if cp.Credits != nil {
		ev.Credits = *cp.Credits
	}
	return ev
}

type checkoutResp struct {
	CheckoutRef string `json:"checkout_ref"`
	RedirectURL string `json:"redirect_url"`
}

// Checkout handles POST /v1/packages/:id/purchase. A PENDING order is
// created first, then a hosted checkout session is registered with the
// gateway; activation waits for the webhook.
func (h *PurchaseHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	pkg, err := h.Packages.GetByID(ctx, pkgID)
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !pkg.OfferedForClients {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	ref := uuid.NewString()
	order := model.Order{
		CheckoutRef:   ref,
		UserID:        uid,
		PackageID:     pkg.ID,
		CustomerName:  displayName(u),
		CustomerEmail: u.Email,
		AmountCents:   pkg.PriceCents,
		Status:        model.OrderPending,
	}
	if err := h.Orders.Create(ctx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	session, err := h.Gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		ReferenceNumber: ref,
		Description:     pkg.Title,
		AmountCents:     pkg.PriceCents,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ReturnURL:       h.Cfg.CheckoutReturnURL,
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}

	_ = notify.Publish(ctx, queue.NotificationEvent{
		Kind:           queue.KindPurchasePending,
		UserID:         uid,
		RecipientEmail: u.Email,
		RecipientName:  u.FirstName,
		PackageTitle:   pkg.Title,
		AmountCents:    pkg.PriceCents,
		CheckoutRef:    ref,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"data": checkoutResp{CheckoutRef: ref, RedirectURL: session.RedirectURL}})
}

type cashGrantReq struct {
	PackageID uint64 `json:"package_id" validate:"required"`
}

// CashGrant handles POST /v1/admin/clients/:id/packages: an admin
// records an in-person cash sale and the package activates immediately,
// bypassing the gateway.
func (h *PurchaseHandler) CashGrant(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req cashGrantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	pkg, err := h.Packages.GetByID(ctx, req.PackageID)
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tx, err := h.ClientPk.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cp, err := activatePackage(ctx, tx, h.ClientPk, h.Credits, userID, pkg, model.PaymentMethodCash, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	_ = notify.Publish(ctx, activationEvent(u, cp, pkg.PriceCents, ""))

	return c.JSON(http.StatusCreated, echo.Map{"data": toClientPackageResp(cp)})
}

type clientPackageResp struct {
	ID            uint64  `json:"id"`
	PackageID     uint64  `json:"package_id"`
	Title         string  `json:"title"`
	Credits       *uint32 `json:"credits"` // null = unlimited
	ValidityDays  uint32  `json:"validity_days"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	PurchasedAt   string  `json:"purchased_at"`
	ExpiresAt     string  `json:"expires_at"`
}

func toClientPackageResp(cp model.ClientPackage) clientPackageResp {
	return clientPackageResp{
		ID: cp.ID, PackageID: cp.PackageID, Title: cp.Title, Credits: cp.Credits,
		ValidityDays: cp.ValidityDays, Status: cp.Status, PaymentMethod: cp.PaymentMethod,
		PurchasedAt: cp.PurchasedAt.UTC().Format(time.RFC3339),
		ExpiresAt:   cp.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// ListMine handles GET /v1/me/packages: the user's full ledger, newest
// first, plus the running credit balance.
func (h *PurchaseHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entries, err := h.ClientPk.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	credits, err := h.Credits.GetBalance(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]clientPackageResp, 0, len(entries))
	for _, cp := range entries {
		out = append(out, toClientPackageResp(cp))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{
		"packages": out,
		"balance":  credits.Balance,
	}})
}

type orderResp struct {
	ID          uint64 `json:"id"`
	CheckoutRef string `json:"checkout_ref"`
	PackageID   uint64 `json:"package_id"`
	AmountCents uint32 `json:"amount_cents"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ListOrders handles GET /v1/me/orders.
func (h *PurchaseHandler) ListOrders(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	orders, err := h.Orders.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResp{
			ID: o.ID, CheckoutRef: o.CheckoutRef, PackageID: o.PackageID,
			AmountCents: o.AmountCents, Status: o.Status,
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

type adminClientPackageReq struct {
	Status    string  `json:"status" validate:"required,oneof=active expired inactive"`
	Credits   *uint32 `json:"credits"` // null = unlimited
	ExpiresAt string  `json:"expires_at" validate:"required"`
	Balance   *uint32 `json:"balance"` // optional override of the running balance
}

// AdminUpdate handles PUT /v1/admin/client-packages/:id: manual
// corrections to a single ledger entry (support cases, goodwill
// extensions). When balance is present the owner's running credit
// balance is overwritten in the same transaction.
func (h *PurchaseHandler) AdminUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client package id"})
	}
	var req adminClientPackageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expires_at format"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Balance == nil {
		if err := h.ClientPk.AdminUpdate(ctx, id, req.Status, req.Credits, expiresAt.UTC()); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "client package not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	tx, err := h.ClientPk.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	cp, err := h.ClientPk.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.ClientPk.AdminUpdateTx(ctx, tx, id, req.Status, req.Credits, expiresAt.UTC()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Credits.SetBalanceTx(ctx, tx, cp.UserID, *req.Balance); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
