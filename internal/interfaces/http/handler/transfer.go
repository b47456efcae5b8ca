package handler

import (
	"context"

	transferapp "github.com/erp/retailcore/internal/application/transfer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler serves the inter-branch transfer workflow
type TransferHandler struct {
	BaseHandler
	transferService *transferapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *transferapp.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// Create proposes a transfer of serialized items between two branches
// POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req transferapp.CreateTransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.transferService.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// Get returns a transfer by ID
// GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	t, err := h.transferService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// GetByNo returns a transfer by its business number
// GET /transfers/no/:transfer_no
func (h *TransferHandler) GetByNo(c *gin.Context) {
	t, err := h.transferService.GetByNo(c.Request.Context(), c.Param("transfer_no"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// List returns a page of transfers
// GET /transfers
func (h *TransferHandler) List(c *gin.Context) {
	var filter transferapp.TransferListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.FromBranchID, ok = h.uuidQuery(c, "from_branch_id"); !ok {
		return
	}
	if filter.ToBranchID, ok = h.uuidQuery(c, "to_branch_id"); !ok {
		return
	}
	if filter.BranchID, ok = h.uuidQuery(c, "branch_id"); !ok {
		return
	}

	page, err := h.transferService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// History returns the status transitions of a transfer
// GET /transfers/:id/history
func (h *TransferHandler) History(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	history, err := h.transferService.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Approve accepts a pending transfer
// POST /transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	h.act(c, h.transferService.Approve)
}

// Dispatch puts an approved transfer's items in transit
// POST /transfers/:id/dispatch
func (h *TransferHandler) Dispatch(c *gin.Context) {
	h.act(c, h.transferService.Dispatch)
}

// Complete receives the items at the destination and settles profit
// POST /transfers/:id/complete
func (h *TransferHandler) Complete(c *gin.Context) {
	h.act(c, h.transferService.Complete)
}

// Reject declines a pending transfer
// POST /transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req transferapp.RejectTransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.transferService.Reject(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Cancel withdraws a pending or approved transfer. The body is optional.
// POST /transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req transferapp.CancelTransferRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	t, err := h.transferService.Cancel(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

type transferActionFunc func(ctx context.Context, id uuid.UUID, actorID string) (*transferapp.TransferResponse, error)

func (h *TransferHandler) act(c *gin.Context, action transferActionFunc) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	t, err := action(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}
