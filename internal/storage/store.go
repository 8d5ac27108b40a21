package storage

import (
	"context"
	"errors"

	"classgraph/internal/domain"
	"classgraph/internal/export"
)

// ErrClassNotFound is returned by LoadClass for names that are not stored.
var ErrClassNotFound = errors.New("class not found")

// GraphStore persists snapshots of imported class graphs.
type GraphStore interface {
	// SaveGraph replaces the stored snapshot with g.
	SaveGraph(ctx context.Context, g *domain.Graph) error

	// LoadSummaries returns one summary per stored class, sorted by name.
	LoadSummaries(ctx context.Context) ([]ClassSummary, error)

	// LoadClass returns the full stored record of one class.
	LoadClass(ctx context.Context, name string) (*export.Class, error)

	// FindAnnotated returns every stored annotation of the given type.
	FindAnnotated(ctx context.Context, annotationType string) ([]AnnotationRecord, error)

	// Stubs returns the names that were referenced but never imported.
	Stubs(ctx context.Context) ([]string, error)

	Close() error
}

// ClassSummary is the stored view of one resolved class.
type ClassSummary struct {
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	Package     string   `json:"package"`
	Access      uint16   `json:"access"`
	Super       string   `json:"super,omitempty"`
	Interfaces  []string `json:"interfaces,omitempty"`
	Signature   string   `json:"signature,omitempty"`
	SourceFile  string   `json:"source_file,omitempty"`
	Members     int      `json:"members"`
	Annotations []string `json:"annotations,omitempty"`
}

// AnnotationRecord is one stored annotation occurrence. Member and Descriptor
// are empty for class annotations; Parameter is -1 unless the annotation is
// declared on a method parameter.
type AnnotationRecord struct {
	Class      string         `json:"class"`
	Member     string         `json:"member,omitempty"`
	Descriptor string         `json:"descriptor,omitempty"`
	Parameter  int            `json:"parameter"`
	Type       string         `json:"type"`
	Visible    bool           `json:"visible"`
	Properties map[string]any `json:"properties"`
}
