// Package meta maps logical lookup-table names to their storage location and
// resolves stored ids back to display labels for reporting. Tables are
// registered explicitly at startup; there is no runtime model discovery.
package meta

import (
	"fmt"
	"strconv"
	"sync"

	"civicform-backend/internal/apperr"

	"gorm.io/gorm"
)

type Table struct {
	Name        string
	TableName   string
	PrimaryKey  string
	LabelColumn string
	HasStatus   bool
}

// Registry owns the table map and a per-table label cache. The cache lives for
// the life of the registry and is dropped wholesale by Refresh.
type Registry struct {
	db     *gorm.DB
	mu     sync.RWMutex
	tables map[string]Table
	labels map[string]map[string]string
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:     db,
		tables: make(map[string]Table),
		labels: make(map[string]map[string]string),
	}
}

// Default returns a registry with every lookup table the form engine knows
// about. New lookups join by adding a Register call here.
func Default(db *gorm.DB) *Registry {
	r := NewRegistry(db)
	r.Register(Table{Name: "wards", TableName: "wards", PrimaryKey: "id", LabelColumn: "name", HasStatus: true})
	r.Register(Table{Name: "booths", TableName: "booths", PrimaryKey: "id", LabelColumn: "name", HasStatus: true})
	r.Register(Table{Name: "roles", TableName: "roles", PrimaryKey: "id", LabelColumn: "name", HasStatus: true})
	r.Register(Table{Name: "field_types", TableName: "field_types", PrimaryKey: "id", LabelColumn: "name", HasStatus: true})
	r.Register(Table{Name: "input_formats", TableName: "input_formats", PrimaryKey: "id", LabelColumn: "name", HasStatus: true})
	return r
}

func (r *Registry) Register(t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Name] = t
}

func (r *Registry) Lookup(name string) (Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Resolve maps ids to display labels for a registered table. Unknown ids are
// simply absent from the result; callers decide how to render them.
func (r *Registry) Resolve(name string, ids []string) (map[string]string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, apperr.BadRequest("unknown meta table %q", name)
	}

	resolved := make(map[string]string, len(ids))
	var misses []string

	r.mu.RLock()
	cached := r.labels[name]
	for _, id := range ids {
		if label, ok := cached[id]; ok {
			resolved[id] = label
		} else {
			misses = append(misses, id)
		}
	}
	r.mu.RUnlock()

	// Non-numeric values cannot be lookup ids; leave them unresolved.
	missIDs := make([]int64, 0, len(misses))
	for _, id := range misses {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			missIDs = append(missIDs, n)
		}
	}
	if len(missIDs) == 0 {
		return resolved, nil
	}

	type row struct {
		ID    int64
		Label string
	}
	var rows []row
	q := r.db.Table(t.TableName).
		Select(fmt.Sprintf("%s AS id, %s AS label", t.PrimaryKey, t.LabelColumn)).
		Where(fmt.Sprintf("%s IN ?", t.PrimaryKey), missIDs)
	if t.HasStatus {
		q = q.Where("status = ?", 1)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.labels[name] == nil {
		r.labels[name] = make(map[string]string)
	}
	for _, row := range rows {
		id := strconv.FormatInt(row.ID, 10)
		r.labels[name][id] = row.Label
		resolved[id] = row.Label
	}
	r.mu.Unlock()

	return resolved, nil
}

// List returns the live rows of a registered table, for client dropdowns.
func (r *Registry) List(name string) ([]map[string]interface{}, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, apperr.NotFound("unknown meta table %q", name)
	}

	var rows []map[string]interface{}
	q := r.db.Table(t.TableName).
		Select(fmt.Sprintf("%s AS id, %s AS label", t.PrimaryKey, t.LabelColumn)).
		Order(t.PrimaryKey + " ASC")
	if t.HasStatus {
		q = q.Where("status = ?", 1)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Refresh drops the label cache so the next Resolve re-reads the database.
func (r *Registry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = make(map[string]map[string]string)
}
