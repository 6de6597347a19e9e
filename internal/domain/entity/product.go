package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo visto desde el núcleo de stock.
// El CRUD de productos vive en el módulo de catálogo; aquí solo se leen la
// identidad y el umbral de alerta de stock bajo.
type Product struct {
	ID                string
	Name              string
	SKU               string
	UnitMeasure       string
	MinAlertThreshold decimal.Decimal // umbral para la alerta low_stock
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
