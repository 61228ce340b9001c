package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

const ProductSheet = "Products"

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []interface{}{"ID", "Name", "Description", "Price", "Stock", "ImageURL", "CreatedAt"}

var ErrMissingColumn = errors.New("missing required column")

// WriteProducts writes the catalog as an xlsx workbook with one header row
// followed by one row per product
func WriteProducts(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ProductSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(ProductSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(ProductSheet, 1, 1, style)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			p.ID,
			p.Name,
			p.Description,
			p.Price,
			p.Stock,
			p.ImageURL,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(ProductSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write product %s: %w", p.ID, err)
		}
	}

	_ = f.SetColWidth(ProductSheet, "B", "C", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadProducts parses the first sheet of an xlsx workbook into product
// inputs. Columns are located by header name (Name, Description, Price,
// Stock, ImageURL), so exported workbooks can be imported unchanged.
// Blank rows are skipped.
func ReadProducts(r io.Reader) ([]service.CreateProductInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "price", "stock"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []service.CreateProductInput
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		price, err := strconv.ParseFloat(cell(row, "price"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q", line, cell(row, "price"))
		}
		stock, err := strconv.Atoi(cell(row, "stock"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid stock %q", line, cell(row, "stock"))
		}

		products = append(products, service.CreateProductInput{
			Name:        cell(row, "name"),
			Description: cell(row, "description"),
			Price:       price,
			Stock:       stock,
			ImageURL:    cell(row, "imageurl"),
		})
	}

	return products, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
