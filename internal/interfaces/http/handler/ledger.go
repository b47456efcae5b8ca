package handler

import (
	"context"

	ledgerapp "github.com/erp/retailcore/internal/application/ledger"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves the branch, supplier and investor pool ledgers
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// SupplierMovementRequest records a purchase from or payment to a supplier
type SupplierMovementRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"decimal_positive"`
	ReferenceID string          `json:"reference_id" binding:"max=100"`
}

func (h *LedgerHandler) kind(c *gin.Context) (ledger.OwnerKind, bool) {
	kind, err := ledger.ParseOwnerKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return kind, true
}

func (h *LedgerHandler) owner(c *gin.Context) (ledger.OwnerKind, uuid.UUID, bool) {
	kind, ok := h.kind(c)
	if !ok {
		return "", uuid.Nil, false
	}
	ownerID, ok := h.uuidParam(c, "owner_id")
	if !ok {
		return "", uuid.Nil, false
	}
	return kind, ownerID, true
}

// OpenAccount opens the ledger of an owner; opening it again returns it unchanged
// POST /ledgers/:kind/accounts
func (h *LedgerHandler) OpenAccount(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var req ledgerapp.OpenAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.ledgerService.OpenAccount(c.Request.Context(), kind, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// ListAccounts returns a page of the accounts of one kind
// GET /ledgers/:kind/accounts
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var filter ledgerapp.AccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.ledgerService.ListAccounts(c.Request.Context(), kind, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetAccount returns an owner's account with its current balance
// GET /ledgers/:kind/:owner_id
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	kind, ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	account, err := h.ledgerService.GetAccount(c.Request.Context(), kind, ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Post appends an entry to an owner's ledger
// POST /ledgers/:kind/:owner_id/entries
func (h *LedgerHandler) Post(c *gin.Context) {
	kind, ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var req ledgerapp.PostEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerService.Post(c.Request.Context(), kind, ownerID, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// GetEntries returns an owner's entries in sequence order
// GET /ledgers/:kind/:owner_id/entries
func (h *LedgerHandler) GetEntries(c *gin.Context) {
	kind, ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var q ledgerapp.EntryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.ledgerService.GetEntries(c.Request.Context(), kind, ownerID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetSummary totals an owner's ledger over an optional from/to window
// GET /ledgers/:kind/:owner_id/summary
func (h *LedgerHandler) GetSummary(c *gin.Context) {
	kind, ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var q ledgerapp.EntryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	summary, err := h.ledgerService.GetSummary(c.Request.Context(), kind, ownerID, q.Window())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Reverse posts the opposite of an earlier entry
// POST /ledgers/entries/:id/reverse
func (h *LedgerHandler) Reverse(c *gin.Context) {
	entryID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ledgerapp.ReverseEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerService.Reverse(c.Request.Context(), entryID, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// RecordPurchase credits a supplier with goods bought on account
// POST /suppliers/:id/purchases
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	h.supplierMovement(c, h.ledgerService.PostPurchase)
}

// RecordPayment debits a supplier with a payment made
// POST /suppliers/:id/payments
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	h.supplierMovement(c, h.ledgerService.PostSupplierPayment)
}

type supplierPostFunc func(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal, referenceID, actorID string) (*ledgerapp.EntryResponse, error)

func (h *LedgerHandler) supplierMovement(c *gin.Context, post supplierPostFunc) {
	supplierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req SupplierMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entry, err := post(c.Request.Context(), supplierID, req.Amount, req.ReferenceID, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}
