package movement

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
)

// dateLayout formato de fecha que espera el backend en startDate/endDate.
const dateLayout = "2006-01-02"

// BuildQuery arma la query string del listado. Los filtros vacíos o "all" se omiten
// por completo (nunca se envía el literal "all").
func BuildQuery(f dto.MovementFilters) url.Values {
	q := url.Values{}
	setFilter(q, "type", f.Type)
	setFilter(q, "department", f.Department)
	if f.StartDate != nil && !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil && !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format(dateLayout))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func setFilter(q url.Values, key, value string) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, dto.FilterAll) {
		return
	}
	q.Set(key, v)
}

// ParseDate interpreta fechas de filtros: "2006-01-02" o RFC3339. Vacío devuelve nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
