package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrContention: timeout esperando un bloqueo de fila. Transitorio; el
	// caller puede reintentar tal cual. Nunca se reintentan automáticamente
	// validación ni insuficiencia: ahí la cantidad pedida debe cambiar.
	ErrContention = errors.New("contención de bloqueo, reintentar")
)

// InsufficientStockError transporta el faltante exacto para que el operador
// pueda ajustar la cantidad solicitada. Matchea errors.Is(err, ErrInsufficientStock).
type InsufficientStockError struct {
	ProductID string
	Shortfall decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: faltan %s unidades", e.ProductID, e.Shortfall.String())
}

// Is permite tratar el error tipado como el centinela ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
