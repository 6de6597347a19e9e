package repository

import "github.com/jhoicas/pos-stock-core/internal/domain/entity"

// ProductRepository lectura del catálogo (identidad + umbral de alerta).
// El catálogo es de otro módulo; aquí no hay escritura.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
}
