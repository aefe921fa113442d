package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/middleware"
	"github.com/vaultbank/vaultbank/internal/money"
	"github.com/vaultbank/vaultbank/internal/notification"
)

var accountNumberPattern = regexp.MustCompile(`^\d{8,12}$`)

// Handler exposes the transfer, deposit, balance, and admin resolution endpoints.
type Handler struct {
	ledger   Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewHandler constructs a ledger HTTP handler.
func NewHandler(l Ledger, notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{ledger: l, notifier: notifier, logger: logger}
}

// amountField accepts the amount as either a JSON string or a bare number;
// the exact decimal text is preserved for validation.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, `"`)
	*a = amountField(s)
	return nil
}

type transferView struct {
	ID              string     `json:"id"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	Amount          string     `json:"amount"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	RequestedBy     string     `json:"requestedBy,omitempty"`
	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	Date            time.Time  `json:"date"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

func viewOf(t Transfer) transferView {
	return transferView{
		ID:              t.ID,
		From:            t.From,
		To:              t.To,
		Amount:          money.Format(t.AmountCents),
		Status:          t.Status,
		Type:            t.Type,
		RequestedBy:     t.RequestedBy,
		ResolvedBy:      t.ResolvedBy,
		RejectionReason: t.RejectionReason,
		Date:            t.CreatedAt,
		ResolvedAt:      t.ResolvedAt,
	}
}

func viewsOf(transfers []Transfer) []transferView {
	views := make([]transferView, 0, len(transfers))
	for _, t := range transfers {
		views = append(views, viewOf(t))
	}
	return views
}

type transferRequest struct {
	ToAccountNumber string      `json:"toAccountNumber"`
	Amount          amountField `json:"amount"`
}

// Transfer records a pending transfer request on behalf of the authenticated
// sender. Balances are untouched until an admin approves.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	claims, ok := middleware.SessionFromCtx(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	to := strings.TrimSpace(req.ToAccountNumber)
	if !accountNumberPattern.MatchString(to) {
		return fiber.NewError(http.StatusBadRequest, "recipient account number must be 8-12 digits")
	}
	if to == claims.AccountNumber {
		return fiber.NewError(http.StatusBadRequest, "cannot transfer to your own account")
	}

	cents, err := money.Parse(string(req.Amount))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	t, err := h.ledger.SubmitTransfer(c.UserContext(), SubmitInput{
		From:        claims.AccountNumber,
		To:          to,
		AmountCents: cents,
		RequestedBy: claims.Username,
	})
	if err != nil {
		h.logger.Error("submit transfer", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "transfer request failed")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":    "transfer request submitted, waiting for admin approval",
		"transferId": t.ID,
		"status":     t.Status,
	})
}

type addFundsRequest struct {
	Amount amountField `json:"amount"`
}

// AddFunds credits the authenticated account and logs an approved deposit.
func (h *Handler) AddFunds(c *fiber.Ctx) error {
	claims, ok := middleware.SessionFromCtx(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req addFundsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	cents, err := money.Parse(string(req.Amount))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	newBalance, err := h.ledger.Deposit(c.UserContext(), SystemAccount, claims.AccountNumber, cents, TypeDeposit)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		h.logger.Error("add funds", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "failed to add funds")
	}

	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindDeposit,
			Destination: claims.AccountNumber,
			Body:        fmt.Sprintf("Deposit of %s credited to your account", money.Format(cents)),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "funds added successfully",
		"amount":  money.Format(cents),
		"balance": money.Format(newBalance),
	})
}

// Balance returns the stored balance plus sent/received aggregates for the
// authenticated account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	claims, ok := middleware.SessionFromCtx(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	s, err := h.ledger.Summary(c.UserContext(), claims.AccountNumber)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		h.logger.Error("balance summary", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "error fetching balance data")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"accountNumber": s.AccountNumber,
		"name":          claims.Username,
		"balance":       money.Format(s.BalanceCents),
		"totalSent":     money.Format(s.TotalSentCents),
		"totalReceived": money.Format(s.TotalReceivedCents),
	})
}

// History lists the authenticated account's transfers, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	claims, ok := middleware.SessionFromCtx(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	transfers, err := h.ledger.History(c.UserContext(), claims.AccountNumber, 50)
	if err != nil {
		h.logger.Error("transfer history", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "could not fetch transfers")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transfers": viewsOf(transfers)})
}

// Pending lists unresolved transfers for the admin queue.
func (h *Handler) Pending(c *fiber.Ctx) error {
	transfers, err := h.ledger.Pending(c.UserContext())
	if err != nil {
		h.logger.Error("pending transfers", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "could not fetch pending transfers")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transfers": viewsOf(transfers)})
}

type resolveRequest struct {
	TransferID string `json:"transferId"`
	Reason     string `json:"reason"`
}

// Approve drives the pending -> approved transition, moving money atomically.
func (h *Handler) Approve(c *fiber.Ctx) error {
	claims, _ := middleware.SessionFromCtx(c)

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if req.TransferID == "" {
		return fiber.NewError(http.StatusBadRequest, "transferId is required")
	}

	t, err := h.ledger.Approve(c.UserContext(), req.TransferID, claims.Username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "transfer not found")
		case errors.Is(err, ErrAlreadyResolved):
			return fiber.NewError(http.StatusConflict, "transfer already processed")
		case errors.Is(err, ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds in sender account")
		default:
			h.logger.Error("approve transfer", "transfer_id", req.TransferID, "error", err)
			return fiber.NewError(http.StatusInternalServerError, "transfer approval failed")
		}
	}

	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindTransferApproved,
			Destination: t.To,
			Body:        fmt.Sprintf("You received %s from account %s", money.Format(t.AmountCents), t.From),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":  "transfer approved",
		"transfer": viewOf(t),
	})
}

// Reject drives the pending -> rejected transition. The pending request never
// touched balances, so no money moves.
func (h *Handler) Reject(c *fiber.Ctx) error {
	claims, _ := middleware.SessionFromCtx(c)

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if req.TransferID == "" {
		return fiber.NewError(http.StatusBadRequest, "transferId is required")
	}

	t, err := h.ledger.Reject(c.UserContext(), req.TransferID, claims.Username, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "transfer not found")
		case errors.Is(err, ErrAlreadyResolved):
			return fiber.NewError(http.StatusConflict, "transfer already processed")
		default:
			h.logger.Error("reject transfer", "transfer_id", req.TransferID, "error", err)
			return fiber.NewError(http.StatusInternalServerError, "transfer rejection failed")
		}
	}

	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindTransferRejected,
			Destination: t.From,
			Body:        fmt.Sprintf("Your transfer of %s to account %s was rejected", money.Format(t.AmountCents), t.To),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":  "transfer rejected",
		"transfer": viewOf(t),
	})
}
