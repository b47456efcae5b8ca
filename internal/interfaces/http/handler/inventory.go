package handler

import (
	inventoryapp "github.com/erp/retailcore/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// InventoryHandler serves serialized items, bulk holds and stock levels
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ReceiveStock registers a serialized unit at a branch
// POST /inventory/items
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	var req inventoryapp.ReceiveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.ReceiveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem returns an item by ID
// GET /inventory/items/:id
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetItemBySerial returns an item by serial number
// GET /inventory/items/serial/:serial
func (h *InventoryHandler) GetItemBySerial(c *gin.Context) {
	item, err := h.inventoryService.GetItemBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListItems returns a page of items filtered by product, branch and status
// GET /inventory/items
func (h *InventoryHandler) ListItems(c *gin.Context) {
	var filter inventoryapp.ItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.ProductID, ok = h.uuidQuery(c, "product_id"); !ok {
		return
	}
	if filter.BranchID, ok = h.uuidQuery(c, "branch_id"); !ok {
		return
	}

	page, err := h.inventoryService.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// TransitionItem moves an item between statuses if it is still in from_status
// POST /inventory/items/:id/transition
func (h *InventoryHandler) TransitionItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.TransitionItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.TransitionItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// WriteOff marks an item DAMAGED
// POST /inventory/items/:id/write-off
func (h *InventoryHandler) WriteOff(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.WriteOffRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.WriteOff(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Reserve places a bulk hold on available units
// POST /inventory/reservations
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req inventoryapp.ReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	level, err := h.inventoryService.Reserve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// Release returns held units to availability
// POST /inventory/reservations/release
func (h *InventoryHandler) Release(c *gin.Context) {
	var req inventoryapp.ReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	level, err := h.inventoryService.Release(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// GetAvailableCount returns the stock level of a product at a branch
// GET /inventory/stock?product_id=&branch_id=
func (h *InventoryHandler) GetAvailableCount(c *gin.Context) {
	productID, ok := h.uuidQuery(c, "product_id")
	if !ok {
		return
	}
	branchID, ok := h.uuidQuery(c, "branch_id")
	if !ok {
		return
	}
	if productID == nil || branchID == nil {
		h.BadRequest(c, "product_id and branch_id are required")
		return
	}
	level, err := h.inventoryService.GetAvailableCount(c.Request.Context(), *productID, *branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}
