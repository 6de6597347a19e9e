// Package pdf implementa la generación del kardex en PDF: el historial de
// movimientos de un producto con su costo realizado y el resumen de
// disponibilidad/valor al pie.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + SKU  │  Fecha de emisión                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Operación | Cant | P.Unit | Valor    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Disponible / Valor remanente                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// KardexGenerator genera el kardex de un producto usando Maroto v2.
type KardexGenerator struct{}

// NewKardexGenerator construye el generador.
func NewKardexGenerator() *KardexGenerator { return &KardexGenerator{} }

// Generate genera el PDF y devuelve sus bytes. Los movimientos llegan del
// libro (más recientes primero) con el costo realizado ya fijado.
func (g *KardexGenerator) Generate(
	product *entity.Product,
	movements []*entity.StockMovement,
	availability *ledger.AvailabilityDTO,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex de producto", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(product))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, mov := range movements {
		m.AddRows(movementRow(mov))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(product, availability))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre + SKU (izq) y fecha de emisión (der).
func headerRow(product *entity.Product) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(product.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SKU: "+product.SKU, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("KARDEX DE MOVIMIENTOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+time.Now().Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}
	headerRight := header
	headerRight.Align = align.Right
	return row.New(7).Add(
		col.New(2).Add(text.New("Fecha", header)),
		col.New(2).Add(text.New("Tipo", header)),
		col.New(2).Add(text.New("Operación", header)),
		col.New(2).Add(text.New("Cantidad", headerRight)),
		col.New(2).Add(text.New("P. Unitario", headerRight)),
		col.New(2).Add(text.New("Valor", headerRight)),
	)
}

func movementRow(mov *entity.StockMovement) core.Row {
	cell := props.Text{Size: 8, Top: 1}
	cellRight := cell
	cellRight.Align = align.Right

	tipo := "Entrada"
	if mov.MovementType == entity.MovementTypeOutbound {
		tipo = "Salida"
	}
	return row.New(6).Add(
		col.New(2).Add(text.New(mov.CreatedAt.Format("02/01/2006"), cell)),
		col.New(2).Add(text.New(tipo, cell)),
		col.New(2).Add(text.New(mov.OperationType, cell)),
		col.New(2).Add(text.New(mov.Quantity.StringFixed(2), cellRight)),
		col.New(2).Add(text.New("$ "+mov.UnitPrice.StringFixed(2), cellRight)),
		col.New(2).Add(text.New("$ "+mov.TotalValue.StringFixed(2), cellRight)),
	)
}

// summaryRow: disponibilidad y valor remanente al costo original.
func summaryRow(product *entity.Product, availability *ledger.AvailabilityDTO) core.Row {
	return row.New(12).Add(
		col.New(8).Add(
			text.New(fmt.Sprintf("Disponible: %s %s",
				availability.Quantity.StringFixed(2), product.UnitMeasure,
			), props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}),
		),
		col.New(4).Add(
			text.New("Valor remanente: $ "+availability.Value.StringFixed(2), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2, Color: colorPrimary,
			}),
		),
	)
}
