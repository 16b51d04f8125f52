// Package serializer turns Go object graphs into value trees and JSON text.
package serializer

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/mcncl/jsonmap/internal/config"
	"github.com/mcncl/jsonmap/internal/dateformat"
	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/fields"
	"github.com/mcncl/jsonmap/internal/meta"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
	"github.com/mcncl/jsonmap/internal/parser"
	"github.com/mcncl/jsonmap/internal/typeinfo"
)

var timeType = reflect.TypeOf(time.Time{})

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger used for per-field debug records.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver shares a type resolver (and its cache) with other engines.
func WithResolver(r *typeinfo.Resolver) Option {
	return func(s *Serializer) {
		if r != nil {
			s.resolver = r
		}
	}
}

// Serializer encodes values according to its settings. It holds no mutable
// state and may be used concurrently.
type Serializer struct {
	settings config.Settings
	resolver *typeinfo.Resolver
	logger   *zap.Logger
}

// New returns a serializer using settings.
func New(settings config.Settings, opts ...Option) *Serializer {
	s := &Serializer{
		settings: settings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = typeinfo.New(nil)
	}
	return s
}

// Serialize encodes v as JSON text. v must be a struct, a pointer to one, or
// a slice or array.
func (s *Serializer) Serialize(v any) ([]byte, error) {
	tree, err := s.ToTree(v)
	if err != nil {
		return nil, err
	}
	return parser.Format(tree, s.settings.PrettyPrint)
}

// ToTree converts v into a value tree without producing text.
func (s *Serializer) ToTree(v any) (models.JSONValue, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, apperrors.NewUnsupportedValueError("cannot serialize a nil value", nil)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, apperrors.NewUnsupportedValueError("cannot serialize a nil value", nil)
	}

	switch {
	case isObject(rv.Type()):
		return s.object(rv)
	case isSequence(rv.Type()):
		return s.array(rv, nil, models.MetadataOverride{})
	default:
		return nil, apperrors.NewUnsupportedValueError(
			fmt.Sprintf("cannot serialize %s: want a struct or a sequence", rv.Type()), nil)
	}
}

func (s *Serializer) object(v reflect.Value) (*models.JSONObject, error) {
	v = fields.Addressable(v)
	plan, err := s.resolver.Fields(v.Type())
	if err != nil {
		return nil, err
	}

	obj := models.NewObject(len(plan))
	for _, rf := range plan {
		f := rf.Field
		if !s.included(rf) {
			continue
		}

		name := meta.ExternalName(f, s.settings.Naming)
		s.logger.Debug("serialize field",
			zap.String("type", v.Type().String()),
			zap.String("field", f.Name),
			zap.String("name", name),
			zap.Stringer("kind", rf.Type.Kind))

		fv, ok := fields.Get(v, f)
		if !ok || isNil(fv) {
			if !s.settings.SkipNull {
				obj.Set(name, nil)
			}
			continue
		}

		if rf.Type.Kind == models.Array && s.settings.SkipEmptyArray && isEmptySequence(fv) {
			continue
		}

		out, err := s.value(fv, rf.Type, f.Override)
		if err != nil {
			return nil, apperrors.WithFieldPrefix(err, name)
		}
		obj.Set(name, out)
	}
	return obj, nil
}

// included applies the visibility, ignore and inheritance rules.
func (s *Serializer) included(rf typeinfo.ResolvedField) bool {
	f := rf.Field
	switch {
	case f.Static:
		return false
	case f.Visibility == models.Protected && !s.settings.IncludeProtected:
		return false
	case meta.IsIgnoredOnWrite(f.Override), rf.Type.Kind == models.Ignored:
		return false
	case s.settings.SkipInheritedFields && f.Inherited():
		return false
	}
	return true
}

// value encodes a non-nil field or element value according to d.
func (s *Serializer) value(v reflect.Value, d models.TypeDescriptor, ov models.MetadataOverride) (models.JSONValue, error) {
	v = indirect(v)
	if !v.IsValid() {
		return nil, nil
	}

	switch d.Kind {
	case models.Array:
		return s.array(v, d.Elem, ov)
	case models.DateTime:
		return s.dateTime(v, ov)
	case models.Enumeration:
		return s.enum(v, ov)
	default:
		return s.dynamic(v, ov)
	}
}

// dynamic encodes v by its runtime type.
func (s *Serializer) dynamic(v reflect.Value, ov models.MetadataOverride) (models.JSONValue, error) {
	v = indirect(v)
	if !v.IsValid() {
		return nil, nil
	}

	switch t := v.Type(); {
	case t == timeType:
		return s.dateTime(v, ov)
	case models.IsEnumType(t):
		return s.enum(v, ov)
	case t.Kind() == reflect.Struct:
		return s.object(v)
	case isSequence(t):
		return s.array(v, nil, ov)
	default:
		return v.Interface(), nil
	}
}

func (s *Serializer) array(v reflect.Value, elem *models.TypeDescriptor, ov models.MetadataOverride) (models.JSONValue, error) {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return s.dynamic(v, ov)
	}

	out := make(models.JSONArray, v.Len())
	for i := range out {
		var (
			item models.JSONValue
			err  error
		)
		if elem != nil {
			item, err = s.value(v.Index(i), *elem, ov)
		} else {
			item, err = s.dynamic(v.Index(i), ov)
		}
		if err != nil {
			return nil, apperrors.WithFieldPrefix(err, fmt.Sprintf("[%d]", i))
		}
		out[i] = item
	}
	return out, nil
}

func (s *Serializer) dateTime(v reflect.Value, ov models.MetadataOverride) (models.JSONValue, error) {
	t, ok := v.Interface().(time.Time)
	if !ok {
		return v.Interface(), nil
	}
	if !s.settings.DateTimeAsString {
		return t, nil
	}
	format := s.settings.DateTimeFormat
	if ov.DateFormat != "" {
		format = ov.DateFormat
	}
	text, err := dateformat.Format(t, format)
	if err != nil {
		return nil, apperrors.NewInvalidMetadataError("", err.Error())
	}
	return text, nil
}

func (s *Serializer) enum(v reflect.Value, ov models.MetadataOverride) (models.JSONValue, error) {
	if !models.IsEnumType(v.Type()) {
		return v.Interface(), nil
	}

	format := s.settings.EnumFormat
	if ov.EnumFormat != nil {
		format = *ov.EnumFormat
	}

	c, ok := findCase(models.EnumCasesOf(v.Type()), v.Interface())
	if !ok {
		return nil, apperrors.NewInvalidEnumError("", fmt.Sprintf("%v is not a case of %s", v.Interface(), v.Type()))
	}

	switch format {
	case models.EnumByName:
		return c.Name, nil
	case models.EnumByFull:
		obj := models.NewObject(2)
		obj.Set(naming.Apply(s.settings.Naming, "name"), c.Name)
		if c.Backing != nil {
			obj.Set(naming.Apply(s.settings.Naming, "value"), c.Backing)
		}
		return obj, nil
	default:
		if c.Backing != nil {
			return c.Backing, nil
		}
		return c.Name, nil
	}
}

func findCase(cases []models.EnumCase, value any) (models.EnumCase, bool) {
	for _, c := range cases {
		if reflect.DeepEqual(c.Value, value) {
			return c, true
		}
	}
	return models.EnumCase{}, false
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return v.IsNil()
	}
	return false
}

func isEmptySequence(v reflect.Value) bool {
	v = indirect(v)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len() == 0
	}
	return false
}

func isObject(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && !models.IsEnumType(t)
}

func isSequence(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8
}
