package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/excel"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves reception items: receiving, sales, write-offs and history.
type BatchHandler struct {
	*BaseHandler
	batches        *batch.Service
	writeOffs      *writeoff.Service
	products       *product.Service
	maxUploadBytes int64
}

func NewBatchHandler(
	base *BaseHandler,
	batches *batch.Service,
	writeOffs *writeoff.Service,
	products *product.Service,
	maxUploadBytes int64,
) *BatchHandler {
	return &BatchHandler{
		BaseHandler:    base,
		batches:        batches,
		writeOffs:      writeOffs,
		products:       products,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateItems handles POST /receptions/:id/items.
func (h *BatchHandler) CreateItems(c *gin.Context) {
	ctx := c.Request.Context()
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inputs, err := req.ToInputs(h.resolver(ctx))
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.batches.CreateBatches(ctx, receptionID, inputs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewListResponse(dto.FromBatches(created, h.batches.Today())))
}

// ImportItems handles POST /receptions/:id/items/import with an xlsx "file" part.
// The whole sheet is received or nothing is.
func (h *BatchHandler) ImportItems(c *gin.Context) {
	ctx := c.Request.Context()
	receptionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart field \"file\" is required").WithCause(err))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewValidation("uploaded file cannot be read").WithCause(err))
		return
	}
	defer file.Close()

	rows, err := excel.ParseReceptionItems(file)
	if err != nil {
		h.Error(c, err)
		return
	}

	resolve := h.resolver(ctx)
	inputs := make([]batch.CreateInput, len(rows))
	for i, row := range rows {
		productID, err := resolve(row.Product)
		if err != nil {
			h.Error(c, withRow(err, row.Row))
			return
		}
		inputs[i] = batch.CreateInput{
			ProductID:       productID,
			QuantityInitial: row.Quantity,
			PricePerUnit:    row.PricePerUnit,
			ShelfLifeDays:   row.ShelfLifeDays,
			ArrivalDate:     row.ArrivalDate,
		}
	}

	created, err := h.batches.CreateBatches(ctx, receptionID, inputs)
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			if line, ok := appErr.Details["line"].(int); ok {
				err = withRow(appErr, rows[line].Row)
			}
		}
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewListResponse(dto.FromBatches(created, h.batches.Today())))
}

// Get handles GET /reception-items/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	b, err := h.batches.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatch(b, h.batches.Today()))
}

// Delete handles DELETE /reception-items/:id.
func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.batches.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// WriteOff handles POST /reception-items/:id/write-off.
func (h *BatchHandler) WriteOff(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.writeOffs.WriteOff(c.Request.Context(), batchID, req.Quantity, writeoff.Reason(req.Reason), req.Comment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromWriteOffResult(result))
}

// WriteOffs handles GET /reception-items/:id/write-offs.
func (h *BatchHandler) WriteOffs(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.writeOffs.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, writeOffList(entries))
}

// History handles GET /reception-items/:id/history.
func (h *BatchHandler) History(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	changes, err := h.batches.History(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromChanges(changes)))
}

// RecordSale handles POST /reception-items/:id/sales.
func (h *BatchHandler) RecordSale(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	price, err := dto.ParseMoney("unitPrice", req.UnitPrice)
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.batches.RecordSale(c.Request.Context(), batchID, req.Quantity, price, req.OrderRef)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatch(b, h.batches.Today()))
}

func (h *BatchHandler) resolver(ctx context.Context) dto.ProductResolver {
	return func(ref string) (id.ID, error) {
		p, err := h.products.Resolve(ctx, ref)
		if err != nil {
			return id.ID{}, err
		}
		return p.ID, nil
	}
}

func withRow(err error, row int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("row", row)
	}
	return err
}
