package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/movietix/booking-api/internal/model"
	"github.com/movietix/booking-api/internal/payment"
	"github.com/movietix/booking-api/internal/repository"
	queue_publisher "github.com/movietix/booking-api/internal/service"

	q "github.com/movietix/booking-api/internal/queue"
	"github.com/movietix/booking-api/internal/utils"
)

// PaymentHandler drives the payment-order lifecycle: gateway order
// creation for a pending booking, signature-verified confirmation from
// the checkout callback, idempotent webhook reconciliation, and guarded
// refunds.  Precondition failures are detected before any remote or
// persistence call; gateway and store failures are logged with operation
// context and surfaced as generic errors.
type PaymentHandler struct {
	Store   repository.BookingStore
	Users   *repository.UserRepo
	Gateway payment.Gateway
	PayCfg  payment.Config
}

// NewPaymentHandler wires the handler.  Gateway may be nil when the
// integration keys are not configured; the affected endpoints then answer
// 503 instead of panicking.
func NewPaymentHandler(store repository.BookingStore, users *repository.UserRepo, gw payment.Gateway, cfg payment.Config) *PaymentHandler {
	if store == nil {
		panic("nil store passed to NewPaymentHandler")
	}
	return &PaymentHandler{Store: store, Users: users, Gateway: gw, PayCfg: cfg}
}

type createOrderReq struct {
	BookingID string `json:"booking_id"`
}

type verifyReq struct {
	BookingID         string `json:"booking_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type refundReq struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"` // optional override; 0 means use the booking's entitlement
}

// CreateOrder handles POST /v1/payments/order.  It binds a gateway order
// to a pending booking owned by the caller and returns exactly what the
// hosted checkout widget needs; the gateway secret never appears in the
// response.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if _, err := uuid.Parse(req.BookingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id must be a valid id"})
	}
	if h.Gateway == nil || !h.PayCfg.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}

	ctx := c.Request().Context()
	booking, err := h.Store.FindByID(ctx, req.BookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if booking.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if booking.Status != model.BookingStatusPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not pending"})
	}
	if booking.Payment.RazorpayOrderID != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order already created"})
	}

	amountMinor := payment.ToMinorUnits(booking.TotalAmount)
	// Opaque metadata for gateway-side reconciliation and support lookups.
	notes := map[string]string{
		"booking_id":     booking.ID,
		"booking_number": booking.BookingNumber,
		"user_id":        strconv.FormatUint(booking.UserID, 10),
		"movie":          booking.MovieTitle,
		"theater":        booking.TheaterName,
	}
	order, err := h.Gateway.CreateOrder(ctx, amountMinor, h.PayCfg.Currency, booking.BookingNumber, notes)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "create-order",
			"booking": booking.BookingNumber,
		}).Error("gateway order creation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment gateway error"})
	}

	if err := h.Store.AttachOrder(ctx, booking.ID, order.ID); err != nil {
		if err == repository.ErrOrderAlreadyCreated {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order already created"})
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "create-order",
			"booking": booking.BookingNumber,
			"order":   order.ID,
		}).Error("failed to persist gateway order id")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save order"})
	}

	prefill := echo.Map{"name": "", "email": ""}
	if h.Users != nil {
		if u, err := h.Users.GetByID(ctx, userID); err == nil {
			prefill = echo.Map{"name": u.Name, "email": u.Email}
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":       order.ID,
		"amount":         amountMinor,
		"currency":       h.PayCfg.Currency,
		"key_id":         h.PayCfg.KeyID,
		"booking_number": booking.BookingNumber,
		"prefill":        prefill,
	})
}

// VerifyPayment handles POST /v1/payments/verify: the client-confirmation
// path.  The checkout callback signature is recomputed over
// "orderID|paymentID" with the key secret; on a match the booking is
// finalized and the confirmation notification dispatched fire-and-forget.
// Repeated calls re-apply the same outcome.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BookingID == "" || req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "booking_id, razorpay_order_id, razorpay_payment_id and razorpay_signature are required",
		})
	}
	if !h.PayCfg.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}

	ctx := c.Request().Context()
	booking, err := h.Store.FindByID(ctx, req.BookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if booking.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	msg := payment.CheckoutMessage(req.RazorpayOrderID, req.RazorpayPaymentID)
	if !payment.VerifySignature(h.PayCfg.KeySecret, []byte(msg), req.RazorpaySignature) {
		// Generic outcome; nothing about the mismatch is leaked.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	now := time.Now().UTC()
	booking.Status = model.BookingStatusConfirmed
	booking.Payment.Status = model.PaymentStatusCompleted
	booking.Payment.RazorpayOrderID = req.RazorpayOrderID
	booking.Payment.RazorpayPaymentID = req.RazorpayPaymentID
	booking.Payment.RazorpaySignature = req.RazorpaySignature
	booking.Payment.TransactionID = req.RazorpayPaymentID
	booking.Payment.PaidAt = &now
	booking.QRPayload = utils.BuildQRPayload(booking)
	// The attempt is recorded as sent regardless of delivery; the marker
	// is an audit flag, not a delivery receipt.
	booking.Notifications.Sent = true
	booking.Notifications.SentAt = &now

	if err := h.Store.SaveConfirmation(ctx, booking); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "verify-payment",
			"booking": booking.BookingNumber,
		}).Error("failed to persist confirmation")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
	}

	h.dispatchConfirmation(booking)

	return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// dispatchConfirmation hands the confirmation event to the background
// notification queue.  Publish failures are logged inside the publisher
// and swallowed here; the confirming request never waits on or fails
// because of notification delivery.
func (h *PaymentHandler) dispatchConfirmation(b *model.Booking) {
	email := ""
	if h.Users != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if u, err := h.Users.GetByID(ctx, b.UserID); err == nil {
			email = u.Email
		}
	}
	ev := q.BookingConfirmedEvent{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		UserID:        b.UserID,
		UserEmail:     email,
		MovieTitle:    b.MovieTitle,
		TheaterName:   b.TheaterName,
		ShowTime:      b.ShowTime.UTC().Format(time.RFC3339),
		SeatLabels:    b.SeatLabels(),
		TotalAmount:   b.TotalAmount,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingConfirmed(ctx, ev)
	}()
}

// webhookEvent mirrors the slice of the gateway's webhook body we care
// about; everything else is ignored.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook handles POST /v1/payments/webhook: the provider-initiated
// reconciliation path.  The signature is verified over the raw body with
// the webhook secret; with no secret configured the event is accepted
// unauthenticated, a deliberate low-security fallback that is logged.
// Apart from a signature mismatch the handler always acknowledges with
// 200 so the provider does not retry-storm over application-level
// failures; internal errors are logged, never surfaced.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		logrus.WithError(err).Error("webhook: failed to read body")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if h.PayCfg.WebhookSecret != "" {
		sig := c.Request().Header.Get("X-Razorpay-Signature")
		if !payment.VerifySignature(h.PayCfg.WebhookSecret, body, sig) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
		}
	} else {
		logrus.Warn("webhook: no webhook secret configured, accepting event unauthenticated")
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		logrus.WithError(err).Error("webhook: malformed event body")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	if ev.Event != "payment.captured" {
		// Accepted and ignored.
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	orderID := ev.Payload.Payment.Entity.OrderID
	paymentID := ev.Payload.Payment.Entity.ID
	if orderID == "" || paymentID == "" {
		logrus.WithField("event", ev.Event).Error("webhook: captured event without payment ids")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	ctx := c.Request().Context()
	booking, err := h.Store.FindByOrderID(ctx, orderID)
	if err != nil {
		if err != repository.ErrBookingNotFound {
			logrus.WithError(err).WithField("order", orderID).Error("webhook: booking lookup failed")
		}
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	// Fire only from pending; if the client-confirmation path already won
	// the race this is a no-op, which makes redelivery and reordering safe.
	if booking.Status != model.BookingStatusPending {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	now := time.Now().UTC()
	booking.Status = model.BookingStatusConfirmed
	booking.Payment.Status = model.PaymentStatusCompleted
	booking.Payment.RazorpayPaymentID = paymentID
	booking.Payment.TransactionID = paymentID
	booking.Payment.PaidAt = &now
	// No QR payload and no notification on this path; those stay
	// exclusive to the client-confirmation flow.

	if err := h.Store.SaveConfirmation(ctx, booking); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "webhook",
			"booking": booking.BookingNumber,
			"order":   orderID,
		}).Error("failed to persist webhook confirmation")
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// Refund handles POST /v1/payments/refund.  Owners and admins may refund
// a cancelled booking once; the conditional store update guarantees a
// single recorded refund even under concurrent submission.  If the
// gateway call fails no local state changes.
func (h *PaymentHandler) Refund(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req refundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if _, err := uuid.Parse(req.BookingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id must be a valid id"})
	}
	if h.Gateway == nil || !h.PayCfg.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}

	ctx := c.Request().Context()
	booking, err := h.Store.FindByID(ctx, req.BookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if !booking.Cancellation.IsCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not cancelled"})
	}
	if booking.Cancellation.RefundStatus == model.RefundStatusProcessed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund already processed"})
	}
	amount := booking.Cancellation.RefundAmount
	if req.Amount > 0 {
		amount = req.Amount
	}
	if amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refund amount"})
	}
	if booking.Payment.RazorpayPaymentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no payment reference on booking"})
	}

	notes := map[string]string{
		"booking_number": booking.BookingNumber,
		"reason":         "booking cancelled",
	}
	refund, err := h.Gateway.RefundPayment(ctx, booking.Payment.RazorpayPaymentID, payment.ToMinorUnits(amount), notes)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "refund",
			"booking": booking.BookingNumber,
		}).Error("gateway refund failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment gateway error"})
	}

	if err := h.Store.MarkRefunded(ctx, booking.ID, amount, refund.ID); err != nil {
		if err == repository.ErrRefundAlreadyProcessed {
			// A concurrent request won between our pre-check and the
			// write; its transaction id stays, ours is reported lost.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund already processed"})
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":      "refund",
			"booking": booking.BookingNumber,
			"refund":  refund.ID,
		}).Error("failed to persist refund")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record refund"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"refund": echo.Map{
			"id":     refund.ID,
			"amount": amount,
			"status": refund.Status,
		},
	})
}

// PaymentStatus handles GET /v1/bookings/:id/payment-status.
func (h *PaymentHandler) PaymentStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Store.FindByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_number": booking.BookingNumber,
		"status":         booking.Status,
		"payment_status": booking.Payment.Status,
		"paid_at":        booking.Payment.PaidAt,
	})
}

// Config handles GET /v1/payments/config.  Only the public key id is
// exposed; clients use it to initialize the hosted checkout.
func (h *PaymentHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"key_id":     h.PayCfg.KeyID,
		"configured": h.PayCfg.Configured(),
	})
}
