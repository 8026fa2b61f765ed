package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/dto"
)

// ReceptionHandler serves the reception lifecycle and the per-reception stock view.
type ReceptionHandler struct {
	*BaseHandler
	receptions *reception.Service
	batches    *batch.Service
	writeOffs  *writeoff.Service
	products   *product.Service
}

func NewReceptionHandler(
	base *BaseHandler,
	receptions *reception.Service,
	batches *batch.Service,
	writeOffs *writeoff.Service,
	products *product.Service,
) *ReceptionHandler {
	return &ReceptionHandler{
		BaseHandler: base,
		receptions:  receptions,
		batches:     batches,
		writeOffs:   writeOffs,
		products:    products,
	}
}

// Create handles POST /receptions.
func (h *ReceptionHandler) Create(c *gin.Context) {
	var req dto.CreateReceptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	details, err := req.ToDetails()
	if err != nil {
		h.Error(c, err)
		return
	}

	r, err := h.receptions.Create(c.Request.Context(), details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromReception(r))
}

// List handles GET /receptions?closed=true|false.
func (h *ReceptionHandler) List(c *gin.Context) {
	closed, err := h.ParseBoolQuery(c, "closed")
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.receptions.List(c.Request.Context(), reception.ListFilter{IsClosed: closed})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromReceptions(items)))
}

// Get handles GET /receptions/:id.
func (h *ReceptionHandler) Get(c *gin.Context) {
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := h.receptions.Get(c.Request.Context(), receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReception(r))
}

// Update handles PATCH /receptions/:id.
func (h *ReceptionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateReceptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	current, err := h.receptions.Get(ctx, receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	details, err := req.ApplyTo(current)
	if err != nil {
		h.Error(c, err)
		return
	}

	r, err := h.receptions.Update(ctx, receptionID, details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReception(r))
}

// Close handles POST /receptions/:id/close.
func (h *ReceptionHandler) Close(c *gin.Context) {
	h.transition(c, h.receptions.Close)
}

// Reopen handles POST /receptions/:id/reopen.
func (h *ReceptionHandler) Reopen(c *gin.Context) {
	h.transition(c, h.receptions.Reopen)
}

func (h *ReceptionHandler) transition(c *gin.Context, fn func(context.Context, id.ID) (*reception.Reception, error)) {
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := fn(c.Request.Context(), receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReception(r))
}

// Delete handles DELETE /receptions/:id.
// Refused while any batch of the reception still holds stock.
func (h *ReceptionHandler) Delete(c *gin.Context) {
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.receptions.Delete(c.Request.Context(), receptionID, h.batches.RequireEmpty); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Inventory handles GET /receptions/:id/inventory.
func (h *ReceptionHandler) Inventory(c *gin.Context) {
	ctx := c.Request.Context()
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := h.receptions.Get(ctx, receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	batches, err := h.batches.ListByReception(ctx, receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	writtenOff, err := h.writeOffs.TotalsByReception(ctx, receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := productNames(ctx, h.products)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ReceptionInventoryResponse{
		Reception:  dto.FromReception(r),
		Items:      dto.FromBatches(batches, h.batches.Today()),
		TotalValue: dto.Amount(types.Zero()),
	}
	value := types.Zero()
	for i := range batches {
		item := &resp.Items[i]
		item.ProductName = names[item.ProductID]
		item.WrittenOffQuantity = writtenOff[batches[i].ID]
		resp.TotalRemaining += batches[i].RemainingQuantity
		resp.TotalWrittenOff += item.WrittenOffQuantity
		value = value.Add(batches[i].RemainingValue())
	}
	resp.TotalValue = dto.Amount(value)
	h.OK(c, resp)
}

// WriteOffs handles GET /receptions/:id/write-offs.
func (h *ReceptionHandler) WriteOffs(c *gin.Context) {
	ctx := c.Request.Context()
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if _, err := h.receptions.Get(ctx, receptionID); err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.writeOffs.ListByReception(ctx, receptionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, writeOffList(entries))
}

func writeOffList(entries []writeoff.Entry) dto.WriteOffListResponse {
	total := types.Zero()
	for i := range entries {
		total = total.Add(entries[i].LossAmount())
	}
	items := dto.FromWriteOffEntries(entries)
	return dto.WriteOffListResponse{Items: items, Count: len(items), TotalLoss: dto.Amount(total)}
}

func productNames(ctx context.Context, products *product.Service) (map[string]string, error) {
	items, err := products.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, p := range items {
		names[p.ID.String()] = p.Name
	}
	return names, nil
}
