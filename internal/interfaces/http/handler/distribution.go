package handler

import (
	distributionapp "github.com/erp/retailcore/internal/application/distribution"
	"github.com/gin-gonic/gin"
)

// DistributionHandler serves profit previews, finalized periods and investors
type DistributionHandler struct {
	BaseHandler
	distributionService *distributionapp.DistributionService
}

// NewDistributionHandler creates a new DistributionHandler
func NewDistributionHandler(distributionService *distributionapp.DistributionService) *DistributionHandler {
	return &DistributionHandler{distributionService: distributionService}
}

// Preview computes a period's split without persisting it
// GET /distributions/preview?period=YYYY-MM
func (h *DistributionHandler) Preview(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		h.BadRequest(c, "period is required")
		return
	}
	preview, err := h.distributionService.Preview(c.Request.Context(), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Finalize persists a period's split; a period finalizes once
// POST /distributions/finalize
func (h *DistributionHandler) Finalize(c *gin.Context) {
	var req distributionapp.FinalizeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.distributionService.Finalize(c.Request.Context(), req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, d)
}

// History returns finalized distributions, newest first
// GET /distributions
func (h *DistributionHandler) History(c *gin.Context) {
	var q distributionapp.ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.distributionService.History(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Details returns a finalized distribution with its per-investor lines
// GET /distributions/:id
func (h *DistributionHandler) Details(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	d, err := h.distributionService.Details(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// RegisterInvestor adds an investor
// POST /investors
func (h *DistributionHandler) RegisterInvestor(c *gin.Context) {
	var req distributionapp.RegisterInvestorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.distributionService.RegisterInvestor(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// ListInvestors returns investors with their current capital
// GET /investors
func (h *DistributionHandler) ListInvestors(c *gin.Context) {
	var q distributionapp.ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.distributionService.ListInvestors(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// AddCapital records a capital contribution (negative for a withdrawal)
// POST /investors/:id/capital
func (h *DistributionHandler) AddCapital(c *gin.Context) {
	investorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req distributionapp.AddCapitalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contribution, err := h.distributionService.AddCapital(c.Request.Context(), investorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contribution)
}
