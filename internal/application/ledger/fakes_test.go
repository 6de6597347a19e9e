package ledger_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional: el fake TxRunner trabaja
// sobre una copia y solo la confirma si el callback no falla, igual que el
// runner real con Commit/Rollback. Así los tests de insuficiencia verifican
// de verdad que el libro queda intacto.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	products      map[string]*entity.Product
	movements     []*entity.StockMovement
	allocations   []*entity.AllocationRecord
	notifications []*entity.Notification
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]*entity.Product)}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, p := range s.products {
		cp := *p
		c.products[id] = &cp
	}
	for _, m := range s.movements {
		cm := *m
		c.movements = append(c.movements, &cm)
	}
	for _, a := range s.allocations {
		ca := *a
		c.allocations = append(c.allocations, &ca)
	}
	for _, n := range s.notifications {
		cn := *n
		c.notifications = append(c.notifications, &cn)
	}
	return c
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ store *memStore }

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type memMovementRepo struct{ store *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	cm := *m
	r.store.movements = append(r.store.movements, &cm)
	return nil
}

func (r *memMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.store.movements {
		if m.ID == id {
			cm := *m
			return &cm, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) SetTotalValue(id string, total decimal.Decimal) error {
	for _, m := range r.store.movements {
		if m.ID == id {
			m.TotalValue = total
			return nil
		}
	}
	return fmt.Errorf("movimiento %s no existe", id)
}

func (r *memMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.store.movements {
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		cm := *m
		list = append(list, &cm)
	}
	return list, nil
}

func (r *memMovementRepo) ListOpenInboundForUpdate(productID string) ([]inventory.BatchState, error) {
	var batches []inventory.BatchState
	for _, m := range r.store.movements {
		if m.ProductID != productID || m.MovementType != entity.MovementTypeInbound {
			continue
		}
		allocated := decimal.Zero
		for _, a := range r.store.allocations {
			if a.InboundMovementID == m.ID {
				allocated = allocated.Add(a.Quantity)
			}
		}
		batches = append(batches, inventory.BatchState{
			MovementID: m.ID,
			Remaining:  m.Quantity.Sub(allocated),
			UnitPrice:  m.UnitPrice,
			ExpiryDate: m.ExpiryDate,
			CreatedAt:  m.CreatedAt,
		})
	}
	inventory.SortBatches(batches)
	return batches, nil
}

func (r *memMovementRepo) SumQuantityByType(productID, movementType string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if m.ProductID == productID && m.MovementType == movementType {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *memMovementRepo) SumValueByType(productID, movementType string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if m.ProductID == productID && m.MovementType == movementType {
			sum = sum.Add(m.TotalValue)
		}
	}
	return sum, nil
}

// ── AllocationRepository ──────────────────────────────────────────────────────

type memAllocationRepo struct{ store *memStore }

func (r *memAllocationRepo) Create(a *entity.AllocationRecord) error {
	ca := *a
	r.store.allocations = append(r.store.allocations, &ca)
	return nil
}

func (r *memAllocationRepo) ListByOutbound(outboundMovementID string) ([]*entity.AllocationRecord, error) {
	var list []*entity.AllocationRecord
	for _, a := range r.store.allocations {
		if a.OutboundMovementID == outboundMovementID {
			ca := *a
			list = append(list, &ca)
		}
	}
	return list, nil
}

func (r *memAllocationRepo) SumByInbound(inboundMovementID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.store.allocations {
		if a.InboundMovementID == inboundMovementID {
			sum = sum.Add(a.Quantity)
		}
	}
	return sum, nil
}

func (r *memAllocationRepo) SumByProduct(productID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.store.allocations {
		if a.ProductID == productID {
			sum = sum.Add(a.Quantity)
		}
	}
	return sum, nil
}

// ── NotificationRepository ────────────────────────────────────────────────────

type memNotificationRepo struct{ store *memStore }

func (r *memNotificationRepo) CreateIfAbsent(n *entity.Notification) (bool, error) {
	for _, existing := range r.store.notifications {
		if existing.ProductID == n.ProductID && existing.Status == n.Status && !existing.IsRead {
			return false, nil
		}
	}
	cn := *n
	if cn.ID == "" {
		cn.ID = fmt.Sprintf("notif-%d", len(r.store.notifications)+1)
	}
	cn.CreatedAt = time.Now()
	r.store.notifications = append(r.store.notifications, &cn)
	return true, nil
}

func (r *memNotificationRepo) List(unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	var list []*entity.Notification
	for _, n := range r.store.notifications {
		if unreadOnly && n.IsRead {
			continue
		}
		cn := *n
		list = append(list, &cn)
	}
	return list, nil
}

func (r *memNotificationRepo) ListByProduct(productID string, unreadOnly bool) ([]*entity.Notification, error) {
	var list []*entity.Notification
	for _, n := range r.store.notifications {
		if n.ProductID != productID || (unreadOnly && n.IsRead) {
			continue
		}
		cn := *n
		list = append(list, &cn)
	}
	return list, nil
}

func (r *memNotificationRepo) MarkRead(id string) error {
	for _, n := range r.store.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTxRunner struct{ store *memStore }

// Run ejecuta fn sobre una copia del almacén y la confirma solo si fn no
// falla: el rollback deja el original byte a byte como estaba.
func (r *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	snapshot := r.store.clone()
	if err := fn(&memMovementRepo{store: snapshot}, &memAllocationRepo{store: snapshot}); err != nil {
		return err
	}
	*r.store = *snapshot
	return nil
}
