// Package excel reads delivery sheets into reception items.
package excel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
)

const (
	colProduct   = "product"
	colQuantity  = "quantity"
	colPrice     = "price"
	colShelfLife = "shelf_life_days"
	colArrival   = "arrival_date"
)

// Keys are normalized: lower case, underscores as spaces.
var headerAliases = map[string]string{
	"product":         colProduct,
	"product id":      colProduct,
	"product name":    colProduct,
	"flower":          colProduct,
	"quantity":        colQuantity,
	"qty":             colQuantity,
	"price":           colPrice,
	"price per unit":  colPrice,
	"unit price":      colPrice,
	"shelf life days": colShelfLife,
	"shelf life":      colShelfLife,
	"arrival date":    colArrival,
	"arrival":         colArrival,
}

// dateLayouts lists accepted textual date formats; excelize renders
// date-formatted cells with the sheet's number format.
var dateLayouts = []string{
	types.DateLayout,
	"02.01.2006",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
}

// ItemRow is one parsed delivery line. Product is an id or a product name.
type ItemRow struct {
	Row           int
	Product       string
	Quantity      int64
	PricePerUnit  types.Money
	ShelfLifeDays *int
	ArrivalDate   *time.Time
}

// ParseReceptionItems reads the first sheet of an xlsx workbook.
// The first non-blank row is the header; blank rows are skipped.
// Errors name the 1-based sheet row.
func ParseReceptionItems(reader io.Reader) ([]ItemRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, apperror.NewValidation("file is not a readable xlsx workbook").WithCause(err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.NewValidation("workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}

	headerIdx := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, apperror.NewValidation("sheet is empty")
	}

	colMap := mapColumns(rows[headerIdx])
	for _, required := range []string{colProduct, colQuantity, colPrice} {
		if _, ok := colMap[required]; !ok {
			return nil, apperror.NewValidation("missing required column: " + required)
		}
	}

	result := make([]ItemRow, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := rows[i]
		if isBlank(cells) {
			continue
		}
		item, err := parseRow(i+1, cells, colMap)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if len(result) == 0 {
		return nil, apperror.NewValidation("sheet has no data rows")
	}
	return result, nil
}

func parseRow(rowNum int, cells []string, colMap map[string]int) (ItemRow, error) {
	item := ItemRow{Row: rowNum}

	item.Product = strings.TrimSpace(readCell(cells, colMap[colProduct]))
	if item.Product == "" {
		return item, rowError(rowNum, "product is required")
	}

	qty, err := parseQuantity(readCell(cells, colMap[colQuantity]))
	if err != nil || qty < 1 {
		return item, rowError(rowNum, "invalid quantity")
	}
	item.Quantity = qty

	price, err := parseDecimal(readCell(cells, colMap[colPrice]))
	if err != nil || price.IsNegative() {
		return item, rowError(rowNum, "invalid price")
	}
	item.PricePerUnit = price

	if idx, ok := colMap[colShelfLife]; ok {
		if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
			days, err := parseQuantity(raw)
			if err != nil || days < 1 {
				return item, rowError(rowNum, "invalid shelf life")
			}
			v := int(days)
			item.ShelfLifeDays = &v
		}
	}

	if idx, ok := colMap[colArrival]; ok {
		if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
			d, err := parseDate(raw)
			if err != nil {
				return item, rowError(rowNum, "invalid arrival date")
			}
			item.ArrivalDate = &d
		}
	}

	return item, nil
}

func rowError(rowNum int, msg string) error {
	return apperror.NewValidation(fmt.Sprintf("row %d: %s", rowNum, msg)).WithDetail("row", rowNum)
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		canonical, ok := headerAliases[normalizeHeader(col)]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	return strings.Join(strings.Fields(value), " ")
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, ",", ".")
	return decimal.NewFromString(value)
}

var maxWholeNumber = decimal.NewFromInt(math.MaxInt64)

// parseQuantity accepts whole numbers, also when the sheet stores them as "10.0".
func parseQuantity(raw string) (int64, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("not a whole number: %s", raw)
	}
	if d.Abs().GreaterThan(maxWholeNumber) {
		return 0, fmt.Errorf("out of range: %s", raw)
	}
	return d.IntPart(), nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	// Unformatted cells hold the Excel serial day number.
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return types.DateOf(t), nil
}
