// Package export converts a domain graph into a plain JSON snapshot that is
// validated against an embedded JSON schema before it is written.
package export

import (
	"math"
	"strconv"

	"classgraph/internal/domain"
)

const SnapshotVersion = "v1"

// Snapshot is the serialisable view of one imported graph.
type Snapshot struct {
	Version string   `json:"version"`
	Classes []Class  `json:"classes"`
	Stubs   []string `json:"stubs"`
}

type Class struct {
	Name         string       `json:"name"`
	Unit         string       `json:"unit"`
	Package      string       `json:"package"`
	Kind         string       `json:"kind"`
	Access       uint16       `json:"access"`
	Super        string       `json:"super,omitempty"`
	Interfaces   []string     `json:"interfaces,omitempty"`
	Signature    string       `json:"signature,omitempty"`
	SourceFile   string       `json:"source_file,omitempty"`
	MajorVersion uint16       `json:"major_version"`
	Members      []Member     `json:"members,omitempty"`
	Annotations  []Annotation `json:"annotations,omitempty"`
}

type Member struct {
	Kind                 string                `json:"kind"`
	Name                 string                `json:"name"`
	Descriptor           string                `json:"descriptor"`
	Access               uint16                `json:"access"`
	Type                 string                `json:"type"`
	Parameters           []string              `json:"parameters,omitempty"`
	Signature            string                `json:"signature,omitempty"`
	Annotations          []Annotation          `json:"annotations,omitempty"`
	ParameterAnnotations []ParameterAnnotation `json:"parameter_annotations,omitempty"`
	Default              any                   `json:"default,omitempty"`
}

type ParameterAnnotation struct {
	Index       int          `json:"index"`
	Annotations []Annotation `json:"annotations"`
}

type Annotation struct {
	Type       string         `json:"type"`
	Visible    bool           `json:"visible"`
	Properties map[string]any `json:"properties"`
}

// FromGraph builds the snapshot of g. Classes keep the graph order (by name),
// members keep declaration order.
func FromGraph(g *domain.Graph) Snapshot {
	snap := Snapshot{Version: SnapshotVersion, Classes: []Class{}, Stubs: []string{}}
	for _, c := range g.Classes() {
		snap.Classes = append(snap.Classes, fromClass(c))
	}
	for _, h := range g.Stubs() {
		if h.IsArray() || h.IsPrimitive() {
			continue
		}
		snap.Stubs = append(snap.Stubs, h.Name())
	}
	return snap
}

func fromClass(c *domain.Class) Class {
	out := Class{
		Name:         c.Name(),
		Unit:         c.Unit(),
		Package:      c.PackageName(),
		Kind:         ClassKind(c),
		Access:       c.Access(),
		Signature:    c.Signature(),
		SourceFile:   c.SourceFile(),
		MajorVersion: c.MajorVersion(),
		Annotations:  FromAnnotations(c.Annotations()),
	}
	if c.Super() != nil {
		out.Super = c.Super().Name()
	}
	for _, i := range c.Interfaces() {
		out.Interfaces = append(out.Interfaces, i.Name())
	}
	for _, m := range c.Members() {
		out.Members = append(out.Members, fromMember(m))
	}
	return out
}

// ClassKind is "annotation", "enum", "interface" or "class".
func ClassKind(c *domain.Class) string {
	switch {
	case c.IsAnnotation():
		return "annotation"
	case c.IsEnum():
		return "enum"
	case c.IsInterface():
		return "interface"
	default:
		return "class"
	}
}

func fromMember(m *domain.Member) Member {
	out := Member{
		Kind:        m.Kind().String(),
		Name:        m.Name(),
		Descriptor:  m.Descriptor(),
		Access:      m.Access(),
		Signature:   m.Signature(),
		Annotations: FromAnnotations(m.Annotations()),
	}
	if m.Type() != nil {
		out.Type = m.Type().Name()
	}
	for _, p := range m.Parameters() {
		out.Parameters = append(out.Parameters, p.Name())
	}
	for i := range m.Parameters() {
		if anns := m.ParameterAnnotations(i); len(anns) > 0 {
			out.ParameterAnnotations = append(out.ParameterAnnotations, ParameterAnnotation{Index: i, Annotations: FromAnnotations(anns)})
		}
	}
	if v, ok := m.AnnotationDefault(); ok {
		out.Default = JSONValue(v.Interface())
	}
	return out
}

// FromAnnotations converts bound annotations, defaults included.
func FromAnnotations(anns []*domain.Annotation) []Annotation {
	if len(anns) == 0 {
		return nil
	}
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		props, _ := JSONValue(a.Properties()).(map[string]any)
		out[i] = Annotation{Type: a.TypeName(), Visible: a.Visible(), Properties: props}
	}
	return out
}

// JSONValue rewrites the values of Annotation.Properties that encoding/json
// rejects: NaN and infinite floats become the strings "NaN", "+Inf" and "-Inf".
func JSONValue(v any) any {
	switch x := v.(type) {
	case float32:
		return jsonFloat(float64(x), 32)
	case float64:
		return jsonFloat(x, 64)
	case []float32:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = jsonFloat(float64(f), 32)
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = jsonFloat(f, 64)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = JSONValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSONValue(e)
		}
		return out
	}
	return v
}

func jsonFloat(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if bits == 32 {
		return float32(f)
	}
	return f
}
