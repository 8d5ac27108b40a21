// Package assembler links raw class descriptors into the domain graph in two
// passes: the first registers a stub for every declared and referenced type
// name, the second upgrades the declared ones and binds every reference to its
// registry handle.
package assembler

import (
	"errors"
	"fmt"

	"classgraph/internal/annotation"
	"classgraph/internal/classfile"
	"classgraph/internal/domain"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
)

// IssueKind classifies a non-fatal assembly problem.
type IssueKind string

const (
	IssueDuplicateImport     IssueKind = "duplicate_import"
	IssueUnresolvedReference IssueKind = "unresolved_reference"
	IssueDecodeFailure       IssueKind = "decode_failure"
)

// Issue is a problem found while assembling one unit. The unit itself is
// still assembled unless Kind is IssueDuplicateImport.
type Issue struct {
	Unit string
	Kind IssueKind
	Name string
	Err  error
}

func (i Issue) Message() string {
	if i.Err != nil {
		return i.Err.Error()
	}
	return fmt.Sprintf("%s referenced but not imported, kept as stub", i.Name)
}

type Options struct {
	// IncludeInvisible keeps class-retention annotations.
	IncludeInvisible bool
	Logger           logr.Logger
}

func DefaultOptions() Options {
	return Options{IncludeInvisible: true, Logger: logr.Discard()}
}

type Stats struct {
	Units      int
	Resolved   int
	Stubs      int
	Duplicates int
	Failures   int
}

type Result struct {
	Classes []*domain.Class
	Issues  []Issue
	Stats   Stats
}

// Assemble runs both passes over raws against reg. Raws are processed in the
// given order; for duplicate names the first one wins. Assemble must not run
// concurrently with other mutations of reg.
func Assemble(reg *domain.Registry, raws []*classfile.RawClass, opts Options) Result {
	a := newAssembly(reg, opts)
	prepared := a.registerStubs(raws)
	classes := a.resolve(prepared)
	a.reportStubs()

	a.result.Classes = classes
	a.result.Stats.Units = len(raws)
	a.result.Stats.Resolved = len(classes)
	a.log.Info("assembled classes",
		"units", a.result.Stats.Units,
		"resolved", a.result.Stats.Resolved,
		"stubs", a.result.Stats.Stubs,
		"issues", len(a.result.Issues))
	return a.result
}

type assembly struct {
	reg  *domain.Registry
	opts Options
	log  logr.Logger

	// referenced holds every non-primitive, non-array name a unit mentions;
	// referrer remembers the first unit that mentioned it.
	referenced sets.Set[string]
	referrer   map[string]string

	result Result
}

func newAssembly(reg *domain.Registry, opts Options) *assembly {
	a := &assembly{
		reg:        reg,
		opts:       opts,
		log:        opts.Logger,
		referenced: sets.New[string](),
		referrer:   make(map[string]string),
	}
	if a.log.GetSink() == nil {
		a.log = logr.Discard()
	}
	return a
}

// preparedClass is a raw class whose annotations are already decoded.
type preparedClass struct {
	raw         *classfile.RawClass
	handle      *domain.Handle
	annotations []annotation.Annotation
	members     []preparedMember
}

type preparedMember struct {
	raw         classfile.RawMember
	kind        domain.MemberKind
	typeName    string
	params      []string
	annotations []annotation.Annotation
	paramAnns   [][]annotation.Annotation
	defaultVal  *annotation.Value
}

func (a *assembly) issue(unit string, kind IssueKind, name string, err error) {
	a.result.Issues = append(a.result.Issues, Issue{Unit: unit, Kind: kind, Name: name, Err: err})
	switch kind {
	case IssueDuplicateImport:
		a.result.Stats.Duplicates++
	case IssueDecodeFailure:
		a.result.Stats.Failures++
	}
}

func (a *assembly) reference(unit, name string) {
	if name == "" {
		return
	}
	base := classfile.ComponentTypeName(name)
	if classfile.IsPrimitiveTypeName(base) {
		a.reg.Stub(name)
		return
	}
	if !a.referenced.Has(base) {
		a.referenced.Insert(base)
		a.referrer[base] = unit
	}
	a.reg.Stub(name)
}

// registerStubs is the first pass.
func (a *assembly) registerStubs(raws []*classfile.RawClass) []*preparedClass {
	seen := make(map[string]string, len(raws))
	var out []*preparedClass
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if first, ok := seen[raw.Name]; ok {
			a.issue(raw.Unit, IssueDuplicateImport, raw.Name,
				&domain.DuplicateImportError{Name: raw.Name, Unit: raw.Unit, FirstUnit: first})
			continue
		}
		seen[raw.Name] = raw.Unit

		p := &preparedClass{raw: raw, handle: a.reg.Stub(raw.Name)}
		a.reference(raw.Unit, raw.SuperName)
		for _, i := range raw.Interfaces {
			a.reference(raw.Unit, i)
		}
		p.annotations = a.decodeAll(raw.Unit, raw.Annotations)
		for _, m := range raw.Fields {
			if pm, ok := a.prepareMember(raw.Unit, m); ok {
				p.members = append(p.members, pm)
			}
		}
		for _, m := range raw.Methods {
			if pm, ok := a.prepareMember(raw.Unit, m); ok {
				p.members = append(p.members, pm)
			}
		}
		out = append(out, p)
	}
	return out
}

func (a *assembly) prepareMember(unit string, m classfile.RawMember) (preparedMember, bool) {
	pm := preparedMember{raw: m, kind: memberKind(m)}
	var err error
	if m.Kind == classfile.FieldMember {
		pm.typeName, err = classfile.FieldTypeName(m.Descriptor)
	} else {
		pm.params, pm.typeName, err = classfile.ParseMethodDescriptor(m.Descriptor)
	}
	if err != nil {
		a.issue(unit, IssueDecodeFailure, m.Name, fmt.Errorf("member %s: %w", m.Name, err))
		return pm, false
	}
	a.reference(unit, pm.typeName)
	for _, p := range pm.params {
		a.reference(unit, p)
	}

	pm.annotations = a.decodeAll(unit, m.Annotations)
	for _, anns := range m.ParameterAnnotations {
		pm.paramAnns = append(pm.paramAnns, a.decodeAll(unit, anns))
	}
	if m.AnnotationDefault != nil {
		v, err := annotation.Decode(*m.AnnotationDefault)
		if err != nil {
			a.issue(unit, IssueDecodeFailure, m.Name, fmt.Errorf("default of %s: %w", m.Name, err))
		} else {
			pm.defaultVal = &v
			for _, name := range v.ReferencedTypes() {
				a.reference(unit, name)
			}
		}
	}
	return pm, true
}

// decodeAll decodes raw annotations, dropping the ones that fail to decode
// and the invisible ones unless they are included.
func (a *assembly) decodeAll(unit string, raws []classfile.RawAnnotation) []annotation.Annotation {
	var out []annotation.Annotation
	for _, r := range raws {
		if !r.Visible && !a.opts.IncludeInvisible {
			continue
		}
		ann, err := annotation.DecodeAnnotation(r)
		if err != nil {
			a.issue(unit, IssueDecodeFailure, r.TypeName, err)
			continue
		}
		for _, name := range ann.ReferencedTypes() {
			a.reference(unit, name)
		}
		out = append(out, ann)
	}
	return out
}

func memberKind(m classfile.RawMember) domain.MemberKind {
	if m.Kind == classfile.FieldMember {
		return domain.FieldMember
	}
	switch m.Name {
	case "<init>":
		return domain.ConstructorMember
	case "<clinit>":
		return domain.StaticInitializerMember
	}
	return domain.MethodMember
}

// resolve is the second pass. Classes and members are created and upgraded
// before any annotation is bound, so element declarations of annotation types
// in the same batch are visible while typing empty arrays.
func (a *assembly) resolve(prepared []*preparedClass) []*domain.Class {
	type linked struct {
		prep    *preparedClass
		class   *domain.Class
		members []*domain.Member
	}
	var done []linked
	for _, p := range prepared {
		c, members := a.linkClass(p)
		if err := a.reg.Upgrade(p.handle, c); err != nil {
			var dup *domain.DuplicateImportError
			if errors.As(err, &dup) {
				a.issue(p.raw.Unit, IssueDuplicateImport, p.raw.Name, err)
			} else {
				a.issue(p.raw.Unit, IssueDecodeFailure, p.raw.Name, err)
			}
			continue
		}
		a.log.V(1).Info("resolved class", "name", p.raw.Name, "unit", p.raw.Unit, "members", len(members))
		done = append(done, linked{prep: p, class: c, members: members})
	}

	out := make([]*domain.Class, 0, len(done))
	for _, l := range done {
		a.bindClass(l.prep, l.class, l.members)
		out = append(out, l.class)
	}
	return out
}

// bindClass attaches the bound annotations, parameter annotations and
// defaults of p to c and its members. Rejected attachments become
// IssueDecodeFailure issues.
func (a *assembly) bindClass(p *preparedClass, c *domain.Class, members []*domain.Member) {
	unit := p.raw.Unit
	for _, ann := range p.annotations {
		if err := c.AddAnnotation(a.bindAnnotation(ann, c)); err != nil {
			a.issue(unit, IssueDecodeFailure, ann.Type, fmt.Errorf("annotate %s: %w", c.Description(), err))
		}
	}
	for i, pm := range p.members {
		m := members[i]
		if m == nil {
			continue
		}
		for _, ann := range pm.annotations {
			if err := m.AddAnnotation(a.bindAnnotation(ann, m)); err != nil {
				a.issue(unit, IssueDecodeFailure, ann.Type, fmt.Errorf("annotate %s: %w", m.Description(), err))
			}
		}
		for idx, anns := range pm.paramAnns {
			if len(anns) == 0 {
				continue
			}
			bound := make([]*domain.Annotation, len(anns))
			for j, ann := range anns {
				bound[j] = a.bindAnnotation(ann, m)
			}
			if err := m.SetParameterAnnotations(idx, bound); err != nil {
				a.issue(unit, IssueDecodeFailure, m.Name(), fmt.Errorf("parameter %d of %s: %w", idx, m.Description(), err))
			}
		}
		if pm.defaultVal != nil {
			if err := m.SetAnnotationDefault(a.bindValue(*pm.defaultVal, m.Type(), m)); err != nil {
				a.issue(unit, IssueDecodeFailure, m.Name(), fmt.Errorf("default of %s: %w", m.Description(), err))
			}
		}
	}
}

// linkClass builds the class node and its members. The returned slice is
// parallel to p.members; a nil entry is a member that was rejected.
func (a *assembly) linkClass(p *preparedClass) (*domain.Class, []*domain.Member) {
	raw := p.raw
	ci := domain.ClassInit{
		Unit:         raw.Unit,
		Access:       raw.Access,
		Signature:    raw.Signature,
		SourceFile:   raw.SourceFile,
		MajorVersion: raw.MajorVersion,
	}
	if raw.SuperName != "" {
		ci.Super = a.reg.Stub(raw.SuperName)
	}
	for _, i := range raw.Interfaces {
		ci.Interfaces = append(ci.Interfaces, a.reg.Stub(i))
	}
	c := domain.NewClass(p.handle, ci)

	members := make([]*domain.Member, len(p.members))
	for i, pm := range p.members {
		var params []*domain.Handle
		for _, name := range pm.params {
			params = append(params, a.reg.Stub(name))
		}
		m := domain.NewMember(domain.MemberInit{
			Kind:       pm.kind,
			Name:       pm.raw.Name,
			Descriptor: pm.raw.Descriptor,
			Access:     pm.raw.Access,
			Type:       a.reg.Stub(pm.typeName),
			Parameters: params,
			Signature:  pm.raw.Signature,
		})
		if err := c.AddMember(m); err != nil {
			a.issue(raw.Unit, IssueDecodeFailure, pm.raw.Name, err)
			continue
		}
		members[i] = m
	}
	return c, members
}

// reportStubs emits one issue per referenced type name that is still a stub.
func (a *assembly) reportStubs() {
	for _, name := range sets.List(a.referenced) {
		h, ok := a.reg.Lookup(name)
		if !ok || h.IsResolved() {
			continue
		}
		a.result.Stats.Stubs++
		a.issue(a.referrer[name], IssueUnresolvedReference, name, nil)
		a.log.V(2).Info("kept reference as stub", "name", name, "referrer", a.referrer[name])
	}
}
