package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/admin5fedu/duraval-app-sub010/importer"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/go-playground/validator/v10"
)

// Module is the import definition of one admin module.
type Module struct {
	Name            string                 `json:"name" validate:"required"`
	Title           string                 `json:"title"`
	Table           string                 `json:"table" validate:"required"`
	KeyField        string                 `json:"key_field" validate:"required"`
	CreatorField    string                 `json:"creator_field,omitempty"`
	Mappings        []models.ColumnMapping `json:"columns" validate:"required,min=1,dive"`
	DuplicatePolicy models.DuplicatePolicy `json:"duplicate_policy" validate:"omitempty,oneof=warn reject"`
	DefaultOptions  models.ImportOptions   `json:"default_options"`
	KeyFn           importer.KeyFunc       `json:"-"`
	Rules           []importer.RowRule     `json:"-"`
}

// Registry holds module definitions by name.
type Registry struct {
	mu       sync.RWMutex
	modules  map[string]*Module
	validate *validator.Validate
}

func New() *Registry {
	return &Registry{
		modules:  make(map[string]*Module),
		validate: validator.New(),
	}
}

// Register validates m, fills defaults and stores it.
func (r *Registry) Register(m Module) error {
	if m.DuplicatePolicy == "" {
		m.DuplicatePolicy = models.DuplicatePolicyWarn
	}
	if m.DefaultOptions.UpsertMode == "" {
		m.DefaultOptions = models.DefaultImportOptions()
	}
	if m.KeyFn == nil {
		m.KeyFn = importer.FieldKey(m.KeyField)
	}
	if err := r.validate.Struct(m); err != nil {
		return fmt.Errorf("module %q: %w", m.Name, err)
	}

	fields := make(map[string]bool, len(m.Mappings))
	for _, cm := range m.Mappings {
		if fields[cm.Field] {
			return fmt.Errorf("module %q: field %q mapped twice", m.Name, cm.Field)
		}
		fields[cm.Field] = true
	}
	if !fields[m.KeyField] {
		return fmt.Errorf("module %q: key field %q has no column mapping", m.Name, m.KeyField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[m.Name]; exists {
		return fmt.Errorf("module %q already registered", m.Name)
	}
	r.modules[m.Name] = &m
	return nil
}

// MustRegister panics on an invalid definition. Used for built-ins at startup.
func (r *Registry) MustRegister(m Module) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// List returns modules sorted by name.
func (r *Registry) List() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default returns a registry with every built-in module.
func Default() *Registry {
	r := New()
	r.MustRegister(Positions())
	r.MustRegister(Departments())
	r.MustRegister(Branches())
	return r
}
