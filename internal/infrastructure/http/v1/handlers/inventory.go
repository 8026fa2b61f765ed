package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/dto"
)

type (
	receptionRun func(context.Context, id.ID, []reconciliation.BatchCount) (*reconciliation.Result, error)
	globalRun    func(context.Context, []reconciliation.ProductCount) (*reconciliation.Result, error)
)

// InventoryHandler serves stock counts: per-reception and global check/apply,
// the global overview and the journal of applied reconciliations.
type InventoryHandler struct {
	*BaseHandler
	engine   *reconciliation.Engine
	products *product.Service
}

func NewInventoryHandler(base *BaseHandler, engine *reconciliation.Engine, products *product.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, engine: engine, products: products}
}

// CheckReception handles POST /receptions/:id/inventory/check. Nothing is written.
func (h *InventoryHandler) CheckReception(c *gin.Context) {
	h.reception(c, h.engine.CheckReception)
}

// ApplyReception handles POST /receptions/:id/inventory/apply.
func (h *InventoryHandler) ApplyReception(c *gin.Context) {
	h.reception(c, h.engine.ApplyReception)
}

func (h *InventoryHandler) reception(c *gin.Context, run receptionRun) {
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceptionCountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	counts, err := req.ToCounts()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := run(c.Request.Context(), receptionID, counts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(result))
}

// Global handles GET /inventory/global.
func (h *InventoryHandler) Global(c *gin.Context) {
	ctx := c.Request.Context()

	aggregates, err := h.engine.Overview(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := productNames(ctx, h.products)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromAggregates(aggregates, names)))
}

// CheckGlobal handles POST /inventory/global/check. Nothing is written.
func (h *InventoryHandler) CheckGlobal(c *gin.Context) {
	h.global(c, h.engine.CheckGlobal)
}

// ApplyGlobal handles POST /inventory/global/apply.
func (h *InventoryHandler) ApplyGlobal(c *gin.Context) {
	h.global(c, h.engine.ApplyGlobal)
}

func (h *InventoryHandler) global(c *gin.Context, run globalRun) {
	var req dto.GlobalCountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	counts, err := req.ToCounts()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := run(c.Request.Context(), counts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(result))
}

// ListSessions handles GET /inventory/reconciliations?mode=&receptionId=&limit=.
func (h *InventoryHandler) ListSessions(c *gin.Context) {
	filter := reconciliation.SessionFilter{Limit: h.ParseIntQuery(c, "limit", 50)}

	if mode := c.Query("mode"); mode != "" {
		m := reconciliation.Mode(mode)
		if m != reconciliation.ModeReception && m != reconciliation.ModeGlobal {
			h.Error(c, apperror.NewValidation("unknown reconciliation mode").WithDetail("mode", mode))
			return
		}
		filter.Mode = &m
	}
	if raw := c.Query("receptionId"); raw != "" {
		receptionID, err := dto.ParseID("receptionId", raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.ReceptionID = &receptionID
	}

	sessions, err := h.engine.ListSessions(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromSessions(sessions)))
}

// GetSession handles GET /inventory/reconciliations/:id.
func (h *InventoryHandler) GetSession(c *gin.Context) {
	sessionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	session, err := h.engine.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSession(session))
}
