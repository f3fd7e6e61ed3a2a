package catalog

import (
	"context"
	"strings"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ClientService CRUD de clientes.
type ClientService struct {
	backend ports.ClientBackend
}

// NewClientService construye el servicio.
func NewClientService(backend ports.ClientBackend) *ClientService {
	return &ClientService{backend: backend}
}

// List todos los clientes; nunca nil.
func (s *ClientService) List(ctx context.Context) ([]entity.Client, error) {
	list, err := s.backend.ListClients(ctx)
	if err != nil {
		return []entity.Client{}, err
	}
	if list == nil {
		list = []entity.Client{}
	}
	return list, nil
}

// Get obtiene un cliente.
func (s *ClientService) Get(ctx context.Context, id string) (*entity.Client, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	return s.backend.GetClient(ctx, id)
}

// Create crea un cliente. El nombre es obligatorio.
func (s *ClientService) Create(ctx context.Context, in dto.ClientInput) (*entity.Client, error) {
	in = trimClient(in)
	if in.Name == "" {
		return nil, domain.Validation("cliente inválido", map[string]string{"name": "requerido"})
	}
	return s.backend.CreateClient(ctx, in)
}

// Update actualiza un cliente.
func (s *ClientService) Update(ctx context.Context, id string, in dto.ClientInput) (*entity.Client, error) {
	in = trimClient(in)
	fields := map[string]string{}
	if strings.TrimSpace(id) == "" {
		fields["id"] = "requerido"
	}
	if in.Name == "" {
		fields["name"] = "requerido"
	}
	if len(fields) > 0 {
		return nil, domain.Validation("cliente inválido", fields)
	}
	return s.backend.UpdateClient(ctx, id, in)
}

// Delete elimina un cliente.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	return s.backend.DeleteClient(ctx, id)
}

func trimClient(in dto.ClientInput) dto.ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Location = strings.TrimSpace(in.Location)
	return in
}
