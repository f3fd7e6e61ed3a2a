package catalog

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// DepartmentService casos de uso de departamentos.
type DepartmentService struct {
	backend ports.DepartmentBackend
	log     *logger.Logger
}

// NewDepartmentService construye el servicio.
func NewDepartmentService(backend ports.DepartmentBackend, log *logger.Logger) *DepartmentService {
	if log == nil {
		log = logger.Nop()
	}
	return &DepartmentService{backend: backend, log: log.Component("departments")}
}

// List todos los departamentos; nunca nil.
func (s *DepartmentService) List(ctx context.Context) ([]entity.Department, error) {
	list, err := s.backend.ListDepartments(ctx)
	if err != nil {
		return []entity.Department{}, err
	}
	if list == nil {
		list = []entity.Department{}
	}
	return list, nil
}

// Active departamentos activos.
func (s *DepartmentService) Active(ctx context.Context) ([]entity.Department, error) {
	list, err := s.List(ctx)
	if err != nil {
		return list, err
	}
	out := make([]entity.Department, 0, len(list))
	for _, d := range list {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get obtiene un departamento.
func (s *DepartmentService) Get(ctx context.Context, id string) (*entity.Department, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	return s.backend.GetDepartment(ctx, id)
}

// CheckNameExists indica si ya hay un departamento activo con ese nombre, sin distinguir
// mayúsculas ni espacios alrededor. excludeID permite renombrar el propio departamento.
func (s *DepartmentService) CheckNameExists(ctx context.Context, name, excludeID string) (bool, error) {
	key := foldName(name)
	if key == "" {
		return false, nil
	}
	list, err := s.backend.ListDepartments(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range list {
		if !d.IsActive || (excludeID != "" && d.ID == excludeID) {
			continue
		}
		if foldName(d.Name) == key {
			return true, nil
		}
	}
	return false, nil
}

// Create crea un departamento; ErrDuplicate si el nombre ya existe.
func (s *DepartmentService) Create(ctx context.Context, in dto.DepartmentInput) (*entity.Department, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Validation("departamento inválido", map[string]string{"name": "requerido"})
	}
	exists, err := s.CheckNameExists(ctx, in.Name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateName(in.Name)
	}
	if in.IsActive == nil {
		active := true
		in.IsActive = &active
	}
	d, err := s.backend.CreateDepartment(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Str("name", in.Name).Msg("crear departamento")
		return nil, err
	}
	return d, nil
}

// Update actualiza un departamento validando que el nuevo nombre no choque con otro.
func (s *DepartmentService) Update(ctx context.Context, id string, in dto.DepartmentInput) (*entity.Department, error) {
	in.Name = strings.TrimSpace(in.Name)
	fields := map[string]string{}
	if strings.TrimSpace(id) == "" {
		fields["id"] = "requerido"
	}
	if in.Name == "" {
		fields["name"] = "requerido"
	}
	if len(fields) > 0 {
		return nil, domain.Validation("departamento inválido", fields)
	}
	exists, err := s.CheckNameExists(ctx, in.Name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateName(in.Name)
	}
	return s.backend.UpdateDepartment(ctx, id, in)
}

// Delete elimina un departamento.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	return s.backend.DeleteDepartment(ctx, id)
}

func duplicateName(name string) *domain.Error {
	e := domain.NewError(domain.KindDuplicate, "ya existe un departamento con ese nombre")
	e.Fields = map[string]string{"name": name}
	return e
}

// cases.Caser no es seguro entre goroutines: se crea uno por llamada.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
