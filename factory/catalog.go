/*
Package factory converts catalog documents into a leave.Catalog.

PURPOSE:
  Leave types are configuration, not code. HR edits a YAML (or JSON) file,
  the factory validates it and freezes it into an immutable leave.Catalog
  at startup.

DOCUMENT SCHEMA (YAML):
  leave_types:
    - code: CL
      display_name: Casual Leave
      annual_limit: 10
      combinable: false
      notes: Cannot be combined with any other leave.

  The same structure is accepted as JSON.

DEFAULTS:
  default_catalog.yaml is embedded in the binary and used when no catalog
  path is configured.

USAGE:
  f := factory.NewCatalogFactory()
  catalog, err := f.LoadFile("./catalog.yaml")   // or f.Default()

SEE ALSO:
  - leave/catalog.go: Catalog type and lookups
*/
package factory

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/warp/leave-engine/leave"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// CatalogDocument is the file representation of a catalog.
type CatalogDocument struct {
	LeaveTypes []LeaveTypeEntry `json:"leave_types" yaml:"leave_types" validate:"required,min=1,dive"`
}

// LeaveTypeEntry is one leave type in a catalog document.
type LeaveTypeEntry struct {
	Code        string `json:"code" yaml:"code" validate:"required,alphanum,max=16"`
	DisplayName string `json:"display_name" yaml:"display_name" validate:"required"`
	AnnualLimit *int   `json:"annual_limit" yaml:"annual_limit" validate:"required,gte=0"`
	Combinable  *bool  `json:"combinable,omitempty" yaml:"combinable,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts catalog documents to a leave.Catalog.
type CatalogFactory struct {
	validate *validator.Validate
}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{validate: validator.New()}
}

// Default returns the embedded catalog.
func (f *CatalogFactory) Default() (*leave.Catalog, error) {
	return f.ParseYAML(defaultCatalogYAML)
}

// LoadFile reads a catalog from disk; .json files are parsed as JSON,
// anything else as YAML.
func (f *CatalogFactory) LoadFile(path string) (*leave.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return f.ParseJSON(data)
	}
	return f.ParseYAML(data)
}

// ParseYAML parses a YAML catalog document.
func (f *CatalogFactory) ParseYAML(data []byte) (*leave.Catalog, error) {
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return f.FromDocument(doc)
}

// ParseJSON parses a JSON catalog document.
func (f *CatalogFactory) ParseJSON(data []byte) (*leave.Catalog, error) {
	var doc CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.FromDocument(doc)
}

// FromDocument validates a document and builds the catalog.
// Types are combinable unless the entry says otherwise.
func (f *CatalogFactory) FromDocument(doc CatalogDocument) (*leave.Catalog, error) {
	if err := f.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", describe(err))
	}

	types := make([]leave.LeaveType, 0, len(doc.LeaveTypes))
	for _, e := range doc.LeaveTypes {
		combinable := true
		if e.Combinable != nil {
			combinable = *e.Combinable
		}
		types = append(types, leave.LeaveType{
			Code:        e.Code,
			DisplayName: e.DisplayName,
			AnnualLimit: *e.AnnualLimit,
			Combinable:  combinable,
			Notes:       e.Notes,
		})
	}
	return leave.NewCatalog(types...)
}

// ToDocument is the inverse of FromDocument, used to export a catalog.
func ToDocument(c *leave.Catalog) CatalogDocument {
	var doc CatalogDocument
	for _, t := range c.All() {
		limit, combinable := t.AnnualLimit, t.Combinable
		doc.LeaveTypes = append(doc.LeaveTypes, LeaveTypeEntry{
			Code:        t.Code,
			DisplayName: t.DisplayName,
			AnnualLimit: &limit,
			Combinable:  &combinable,
			Notes:       t.Notes,
		})
	}
	return doc
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
	}
	return errors.New(strings.Join(parts, "; "))
}
