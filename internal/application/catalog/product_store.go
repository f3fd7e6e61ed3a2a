// Package catalog casos de uso de productos, departamentos y clientes.
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// ProductListener recibe una copia de la lista tras cada actualización aplicada.
type ProductListener func(products []entity.Product)

// ProductStore dueño de la lista de productos de la sesión.
//
// Cada lectura al backend toma un número de generación; una respuesta más vieja que la
// última aplicada se descarta. Las mutaciones locales también consumen generación, así
// un Refresh iniciado antes de un Create no pisa el producto recién creado.
type ProductStore struct {
	backend ports.ProductBackend
	log     *logger.Logger
	now     func() time.Time

	mu          sync.RWMutex
	products    []entity.Product
	issued      uint64
	applied     uint64
	refreshedAt time.Time
	lastErr     error
	listeners   []ProductListener
}

// NewProductStore construye el store vacío.
func NewProductStore(backend ports.ProductBackend, log *logger.Logger) *ProductStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductStore{
		backend:  backend,
		log:      log.Component("products"),
		now:      time.Now,
		products: []entity.Product{},
	}
}

// Subscribe registra un listener. Se invoca fuera del lock, en la goroutine que aplicó el cambio.
func (s *ProductStore) Subscribe(fn ProductListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *ProductStore) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Refresh vuelve a leer la lista del backend. Si falla, la lista previa se conserva
// y se devuelve junto con el error.
func (s *ProductStore) Refresh(ctx context.Context) ([]entity.Product, error) {
	gen := s.nextGeneration()
	list, err := s.backend.ListProducts(ctx)
	if err != nil {
		s.mu.Lock()
		if gen > s.applied {
			s.lastErr = err
		}
		s.mu.Unlock()
		s.log.Warn().Err(err).Uint64("generation", gen).Msg("refrescar productos")
		return s.Products(), err
	}
	if list == nil {
		list = []entity.Product{}
	}
	if !s.apply(gen, func([]entity.Product) []entity.Product { return list }) {
		s.log.Debug().Uint64("generation", gen).Msg("respuesta de productos descartada por obsoleta")
		return s.Products(), nil
	}
	s.log.Debug().Int("count", len(list)).Uint64("generation", gen).Msg("productos actualizados")
	return s.Products(), nil
}

// apply reemplaza la lista si gen es más nueva que la aplicada y notifica a los listeners.
func (s *ProductStore) apply(gen uint64, mutate func([]entity.Product) []entity.Product) bool {
	s.mu.Lock()
	if gen <= s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = gen
	s.products = mutate(s.products)
	s.refreshedAt = s.now()
	s.lastErr = nil
	snapshot := copyProducts(s.products)
	listeners := append([]ProductListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(copyProducts(snapshot))
	}
	return true
}

// Products copia de la lista actual; nunca nil.
func (s *ProductStore) Products() []entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProducts(s.products)
}

// Find busca un producto en la lista local.
func (s *ProductStore) Find(id string) (entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Product{}, false
}

// LastError error de la última lectura fallida que no fue superada por una exitosa.
func (s *ProductStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// RefreshedAt momento de la última actualización aplicada (cero si nunca).
func (s *ProductStore) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// LowStock productos con cantidad informada y <= threshold.
func (s *ProductStore) LowStock(threshold decimal.Decimal) []entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []entity.Product{}
	for _, p := range s.products {
		if p.HasStockInfo() && p.Stock().LessThanOrEqual(threshold) {
			out = append(out, p)
		}
	}
	return out
}

// Get obtiene un producto del backend y lo actualiza en la lista local.
func (s *ProductStore) Get(ctx context.Context, id string) (*entity.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	gen := s.nextGeneration()
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(gen, func(list []entity.Product) []entity.Product { return upsert(list, *p) })
	return p, nil
}

// Create valida y crea un producto. Los errores salen estructurados (duplicate, validation, network...).
func (s *ProductStore) Create(ctx context.Context, in dto.ProductInput) (*entity.Product, error) {
	if fields := validateProduct(in); len(fields) > 0 {
		return nil, domain.Validation("producto inválido", fields)
	}
	in.Name = strings.TrimSpace(in.Name)
	gen := s.nextGeneration()
	p, err := s.backend.CreateProduct(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Str("name", in.Name).Str("kind", string(domain.KindOf(err))).Msg("crear producto")
		return nil, err
	}
	s.apply(gen, func(list []entity.Product) []entity.Product { return upsert(list, *p) })
	s.log.Info().Str("id", p.ID).Str("name", p.Name).Msg("producto creado")
	return p, nil
}

// Update actualiza un producto.
func (s *ProductStore) Update(ctx context.Context, id string, in dto.ProductInput) (*entity.Product, error) {
	fields := validateProduct(in)
	if strings.TrimSpace(id) == "" {
		fields["id"] = "requerido"
	}
	if len(fields) > 0 {
		return nil, domain.Validation("producto inválido", fields)
	}
	in.Name = strings.TrimSpace(in.Name)
	gen := s.nextGeneration()
	p, err := s.backend.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.apply(gen, func(list []entity.Product) []entity.Product { return upsert(list, *p) })
	return p, nil
}

// Delete elimina un producto del backend y de la lista local.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	gen := s.nextGeneration()
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.apply(gen, func(list []entity.Product) []entity.Product {
		out := list[:0:0]
		for _, p := range list {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
	return nil
}

func validateProduct(in dto.ProductInput) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "requerido"
	}
	if in.Quantity != nil && in.Quantity.IsNegative() {
		fields["quantity"] = "debe ser >= 0"
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		fields["unitPrice"] = "debe ser >= 0"
	}
	return fields
}

func upsert(list []entity.Product, p entity.Product) []entity.Product {
	out := make([]entity.Product, 0, len(list)+1)
	found := false
	for _, cur := range list {
		if cur.ID == p.ID {
			out = append(out, p)
			found = true
			continue
		}
		out = append(out, cur)
	}
	if !found {
		out = append(out, p)
	}
	return out
}

func copyProducts(in []entity.Product) []entity.Product {
	out := make([]entity.Product, len(in))
	copy(out, in)
	return out
}
