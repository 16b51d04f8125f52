// Package typeinfo decides, for every struct field, which encoding strategy
// applies. It merges three sources in a fixed order: the jsontype override,
// the declared Go type and the jsonhint fallback.
package typeinfo

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/fields"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/registry"
)

var timeType = reflect.TypeOf(time.Time{})

// Names that make a field invisible to both directions.
var ignoredNames = []string{"callable", "false", "iterable", "never", "null", "true", "void"}

// Built-in scalar names. A nil type means "keep the raw value".
var scalarNames = map[string]reflect.Type{
	"bool":        reflect.TypeOf(false),
	"int":         reflect.TypeOf(int(0)),
	"int8":        reflect.TypeOf(int8(0)),
	"int16":       reflect.TypeOf(int16(0)),
	"int32":       reflect.TypeOf(int32(0)),
	"int64":       reflect.TypeOf(int64(0)),
	"uint":        reflect.TypeOf(uint(0)),
	"uint8":       reflect.TypeOf(uint8(0)),
	"uint16":      reflect.TypeOf(uint16(0)),
	"uint32":      reflect.TypeOf(uint32(0)),
	"uint64":      reflect.TypeOf(uint64(0)),
	"float":       reflect.TypeOf(float64(0)),
	"float32":     reflect.TypeOf(float32(0)),
	"float64":     reflect.TypeOf(float64(0)),
	"string":      reflect.TypeOf(""),
	"mixed":       nil,
	"any":         nil,
	"interface{}": nil,
	"object":      nil,
	"resource":    nil,
}

var dateTimeNames = []string{"DateTime", "DateTimeInterface", "DateTimeImmutable", "time.Time"}

// Legacy hint vocabulary.
var legacyNames = map[string]string{
	"integer": "int",
	"boolean": "bool",
	"double":  "float",
}

// ResolvedField pairs a field with its resolved type.
type ResolvedField struct {
	Field models.FieldDescriptor
	Type  models.TypeDescriptor
}

type plan struct {
	fields []ResolvedField
	err    error
}

// Resolver resolves field types. Named types are looked up in the registry;
// register every named type before the first resolution, since plans are
// cached per struct type.
type Resolver struct {
	registry *registry.Registry
	plans    sync.Map // map[reflect.Type]plan
}

// New returns a resolver backed by reg. A nil registry knows no names.
func New(reg *registry.Registry) *Resolver {
	if reg == nil {
		reg = registry.New()
	}
	return &Resolver{registry: reg}
}

// Registry returns the registry names are resolved against.
func (r *Resolver) Registry() *registry.Registry {
	return r.registry
}

// Fields returns the resolved fields of struct type t, computed once.
func (r *Resolver) Fields(t reflect.Type) ([]ResolvedField, error) {
	if p, ok := r.plans.Load(t); ok {
		return p.(plan).fields, p.(plan).err
	}

	p := plan{}
	fs, err := fields.Of(t)
	if err != nil {
		p.err = err
	} else {
		p.fields = make([]ResolvedField, 0, len(fs))
		for _, f := range fs {
			desc, err := r.Resolve(f)
			if err != nil {
				p.fields, p.err = nil, err
				break
			}
			p.fields = append(p.fields, ResolvedField{Field: f, Type: desc})
		}
	}

	stored, _ := r.plans.LoadOrStore(t, p)
	return stored.(plan).fields, stored.(plan).err
}

// Resolve computes the type descriptor of a single field.
func (r *Resolver) Resolve(f models.FieldDescriptor) (models.TypeDescriptor, error) {
	nsHint := ""
	if f.DeclaringType != nil {
		nsHint = f.DeclaringType.PkgPath()
	}

	if override := f.Override.TypeName; override != "" {
		d, err := r.fromNames(override, f.Type, nsHint)
		if err != nil {
			return models.TypeDescriptor{}, apperrors.NewInvalidMetadataError(f.Name, err.Error())
		}
		d.Nullable = d.Nullable || nullable(f.Type)
		d.Source = models.SourceOverride
		return d, nil
	}

	if d, ok := r.fromStatic(f.Type); ok {
		if d.Kind == models.Array && d.Elem == nil && f.Override.Hint != "" {
			if err := r.elemFromHint(&d, f.Override.Hint, nsHint); err != nil {
				return models.TypeDescriptor{}, apperrors.NewInvalidMetadataError(f.Name, err.Error())
			}
		}
		d.Source = models.SourceStatic
		return d, nil
	}

	if hint := f.Override.Hint; hint != "" {
		d, err := r.fromNames(hint, f.Type, nsHint)
		if err != nil {
			return models.TypeDescriptor{}, apperrors.NewInvalidMetadataError(f.Name, err.Error())
		}
		d.Nullable = d.Nullable || nullable(f.Type)
		d.Source = models.SourceHint
		return d, nil
	}

	return models.TypeDescriptor{
		Kind:     models.Scalar,
		TypeName: "any",
		Nullable: true,
		Source:   models.SourceNone,
	}, nil
}

func (r *Resolver) elemFromHint(d *models.TypeDescriptor, hint, nsHint string) error {
	members, err := splitUnion(hint)
	if err != nil {
		return err
	}
	nonNull := lo.Without(members, "null")
	if len(nonNull) != 1 {
		return nil
	}
	name := strings.TrimSuffix(nonNull[0], "[]")
	elem := r.classify(name, nsHint)
	d.Elem = &elem
	d.ElementTypeName = name
	return nil
}

// fromStatic classifies a declared Go type. The empty interface carries no
// information and reports false.
func (r *Resolver) fromStatic(t reflect.Type) (models.TypeDescriptor, bool) {
	if t == nil {
		return models.TypeDescriptor{}, false
	}

	switch {
	case t == timeType:
		return models.TypeDescriptor{Kind: models.DateTime, TypeName: t.String(), Type: t}, true
	case models.IsEnumType(t):
		return models.TypeDescriptor{Kind: models.Enumeration, TypeName: t.String(), Type: t}, true
	}

	switch t.Kind() {
	case reflect.Pointer:
		d, ok := r.fromStatic(t.Elem())
		if !ok {
			return models.TypeDescriptor{}, false
		}
		d.Nullable = true
		return d, true
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return models.TypeDescriptor{}, false
		}
		return models.TypeDescriptor{Kind: models.Object, TypeName: t.String(), Type: t, Nullable: true}, true
	case reflect.Struct:
		return models.TypeDescriptor{Kind: models.Object, TypeName: t.String(), Type: t}, true
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return models.TypeDescriptor{Kind: models.Scalar, TypeName: t.String(), Type: t, Nullable: t.Kind() == reflect.Slice}, true
		}
		d := models.TypeDescriptor{
			Kind:     models.Array,
			TypeName: t.String(),
			Type:     t,
			Nullable: t.Kind() == reflect.Slice,
		}
		if elem, ok := r.fromStatic(t.Elem()); ok {
			d.Elem = &elem
			d.ElementTypeName = elem.TypeName
		}
		return d, true
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return models.TypeDescriptor{Kind: models.Ignored, TypeName: t.String(), Type: t}, true
	case reflect.Map:
		return models.TypeDescriptor{Kind: models.Scalar, TypeName: t.String(), Type: t, Nullable: true}, true
	default:
		return models.TypeDescriptor{Kind: models.Scalar, TypeName: t.String(), Type: t}, true
	}
}

// fromNames classifies a jsontype/jsonhint value such as "OrderItem[]" or
// "string|int|null".
func (r *Resolver) fromNames(expr string, static reflect.Type, nsHint string) (models.TypeDescriptor, error) {
	members, err := splitUnion(expr)
	if err != nil {
		return models.TypeDescriptor{}, err
	}

	isNullable := lo.Contains(members, "null")
	nonNull := lo.Without(members, "null")

	staticArray := false
	if static != nil {
		base := static
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		staticArray = (base.Kind() == reflect.Slice || base.Kind() == reflect.Array) && base.Elem().Kind() != reflect.Uint8
	}

	switch {
	case len(nonNull) == 0:
		return models.TypeDescriptor{Kind: models.Ignored, TypeName: expr, Nullable: isNullable}, nil

	case len(nonNull) == 1 && (staticArray || strings.HasSuffix(nonNull[0], "[]")):
		name := strings.TrimSuffix(nonNull[0], "[]")
		elem := r.classify(name, nsHint)
		return models.TypeDescriptor{
			Kind:            models.Array,
			TypeName:        nonNull[0],
			Type:            arrayType(static, staticArray),
			Elem:            &elem,
			ElementTypeName: name,
			Nullable:        true,
		}, nil

	case len(nonNull) == 1:
		d := r.classify(nonNull[0], nsHint)
		d.Nullable = d.Nullable || isNullable
		return d, nil

	case staticArray:
		elem := models.TypeDescriptor{Kind: models.Scalar, TypeName: strings.Join(nonNull, "|"), Union: nonNull}
		return models.TypeDescriptor{
			Kind:            models.Array,
			TypeName:        expr,
			Type:            arrayType(static, true),
			Elem:            &elem,
			ElementTypeName: elem.TypeName,
			Nullable:        true,
		}, nil

	default:
		return models.TypeDescriptor{
			Kind:     models.Scalar,
			TypeName: expr,
			Nullable: isNullable,
			Union:    nonNull,
		}, nil
	}
}

func arrayType(static reflect.Type, staticArray bool) reflect.Type {
	if !staticArray {
		return nil
	}
	if static.Kind() == reflect.Pointer {
		return static.Elem()
	}
	return static
}

// classify maps a single type name to a descriptor.
func (r *Resolver) classify(name, nsHint string) models.TypeDescriptor {
	lower := strings.ToLower(name)

	switch {
	case lo.Contains(ignoredNames, lower):
		return models.TypeDescriptor{Kind: models.Ignored, TypeName: name}
	case lower == "array":
		return models.TypeDescriptor{Kind: models.Array, TypeName: name, Nullable: true}
	case strings.HasSuffix(name, "[]"):
		elemName := strings.TrimSuffix(name, "[]")
		elem := r.classify(elemName, nsHint)
		return models.TypeDescriptor{Kind: models.Array, TypeName: name, Elem: &elem, ElementTypeName: elemName, Nullable: true}
	case lo.Contains(dateTimeNames, name):
		return models.TypeDescriptor{Kind: models.DateTime, TypeName: name, Type: timeType}
	}

	if t, ok := scalarNames[lower]; ok {
		return models.TypeDescriptor{Kind: models.Scalar, TypeName: name, Type: t, Nullable: t == nil}
	}

	if t, ok := r.registry.Lookup(name, nsHint); ok {
		if d, ok := r.fromStatic(t); ok {
			d.TypeName = name
			return d
		}
	}
	return models.TypeDescriptor{Kind: models.Object, TypeName: name}
}

func splitUnion(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	nullablePrefix := strings.HasPrefix(expr, "?")
	expr = strings.TrimPrefix(expr, "?")

	members := lo.Map(strings.Split(expr, "|"), func(m string, _ int) string {
		m = strings.TrimSpace(m)
		base, isArray := strings.CutSuffix(m, "[]")
		if legacy, ok := legacyNames[strings.ToLower(base)]; ok {
			if isArray {
				return legacy + "[]"
			}
			return legacy
		}
		if strings.EqualFold(m, "null") {
			return "null"
		}
		return m
	})
	if lo.Contains(members, "") {
		return nil, fmt.Errorf("malformed type %q", expr)
	}
	if nullablePrefix {
		members = append(members, "null")
	}
	return lo.Uniq(members), nil
}

func nullable(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
