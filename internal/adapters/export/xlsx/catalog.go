package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/storefront/internal/domain"
)

const sheet = "Catalogo"

var header = []string{"slug", "nombre", "categoria", "tags", "producto_activo", "sku", "talle", "color", "genero", "precio", "stock", "variante_activa"}

// Catalog arma un libro con una fila por variante; los productos sin variantes
// ocupan una fila con las columnas de variante vacías.
type Catalog struct{}

func (Catalog) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (Catalog) FileName() string { return "catalogo.xlsx" }

func (Catalog) Write(w io.Writer, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, bold)
	}
	row := 2
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		tags := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, t.Name)
		}
		base := []any{p.Slug, p.Name, category, strings.Join(tags, ", "), p.IsActive}
		if len(p.Variants) == 0 {
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &base); err != nil {
				return err
			}
			row++
			continue
		}
		for _, v := range p.Variants {
			cells := append(append([]any{}, base...), v.SKU, v.Size, v.Color, string(v.Gender), v.Price.InexactFloat64(), v.Stock, v.IsActive)
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
				return err
			}
			row++
		}
	}
	_ = f.SetColWidth(sheet, "A", "B", 28)
	return f.Write(w)
}
