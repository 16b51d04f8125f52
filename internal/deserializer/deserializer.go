// Package deserializer fills Go object graphs from value trees and JSON text.
package deserializer

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
	"github.com/mcncl/jsonmap/internal/parser"
	"github.com/mcncl/jsonmap/internal/registry"
	"github.com/mcncl/jsonmap/internal/typeinfo"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	anyType  = reflect.TypeOf((*any)(nil)).Elem()
)

// Option configures a Deserializer.
type Option func(*Deserializer)

// WithLogger sets the logger used for per-field debug records.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Deserializer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRegistry sets the object factory used for named and nested types.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Deserializer) {
		d.registry = reg
	}
}

// WithResolver shares a type resolver with other engines. The resolver's
// registry is used unless WithRegistry names another one.
func WithResolver(r *typeinfo.Resolver) Option {
	return func(d *Deserializer) {
		d.resolver = r
	}
}

// Deserializer decodes values according to its settings. It holds no mutable
// state and may be used concurrently.
type Deserializer struct {
	settings config.Settings
	registry *registry.Registry
	resolver *typeinfo.Resolver
	logger   *zap.Logger
}

// New returns a deserializer using settings.
func New(settings config.Settings, opts ...Option) *Deserializer {
	d := &Deserializer{
		settings: settings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	switch {
	case d.resolver == nil && d.registry == nil:
		d.registry = registry.New()
		d.resolver = typeinfo.New(d.registry)
	case d.resolver == nil:
		d.resolver = typeinfo.New(d.registry)
	case d.registry == nil:
		d.registry = d.resolver.Registry()
	}
	return d
}

// Deserialize parses data and fills target, which must be a non-nil pointer
// to a struct. Fields without a matching key keep their current values.
func (d *Deserializer) Deserialize(data []byte, target any) error {
	ir, err := parser.ParseBytes(data)
	if err != nil {
		return err
	}
	return d.DeserializeTree(ir.Root, target)
}

// DeserializeTree fills target from an already parsed tree.
func (d *Deserializer) DeserializeTree(tree models.JSONValue, target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return apperrors.NewTypeMismatchError("", fmt.Sprintf("target must be a non-nil pointer to a struct, got %T", target), nil)
	}

	obj, ok := tree.(*models.JSONObject)
	if !ok {
		return apperrors.NewMalformedInputError(fmt.Sprintf("expected a JSON object at the root, got %s", jsonKind(tree)), nil)
	}
	return d.fill(rv.Elem(), obj)
}

// DeserializeNamed parses data into a new instance of the registered type
// typeName and returns a pointer to it.
func (d *Deserializer) DeserializeNamed(data []byte, typeName string) (any, error) {
	ir, err := parser.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	obj, ok := ir.Root.(*models.JSONObject)
	if !ok {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("expected a JSON object at the root, got %s", jsonKind(ir.Root)), nil)
	}

	ptr, err := d.registry.Create(typeName, "")
	if err != nil {
		return nil, err
	}
	if ptr.Elem().Kind() != reflect.Struct {
		return nil, apperrors.NewTypeMismatchError("", fmt.Sprintf("%s is not a struct type", ptr.Elem().Type()), nil)
	}
	if err := d.fill(ptr.Elem(), obj); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

// DeserializeSliceOf parses a JSON array into a slice of itemType, which may
// be a struct type or a pointer to one.
func (d *Deserializer) DeserializeSliceOf(data []byte, itemType reflect.Type) (reflect.Value, error) {
	ir, err := parser.ParseBytes(data)
	if err != nil {
		return reflect.Value{}, err
	}

	base := itemType
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return reflect.Value{}, apperrors.NewTypeMismatchError("", fmt.Sprintf("%s is not a struct type", itemType), nil)
	}

	out := reflect.MakeSlice(reflect.SliceOf(itemType), 0, 0)
	err = d.eachItem(ir.Root, func(item *models.JSONObject) error {
		ptr, err := d.registry.New(base)
		if err != nil {
			return err
		}
		if err := d.fill(ptr.Elem(), item); err != nil {
			return err
		}
		if itemType.Kind() == reflect.Pointer {
			out = reflect.Append(out, ptr)
		} else {
			out = reflect.Append(out, ptr.Elem())
		}
		return nil
	})
	if err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// DeserializeSliceOfNamed parses a JSON array into new instances of the
// registered type typeName. Each element is a pointer.
func (d *Deserializer) DeserializeSliceOfNamed(data []byte, typeName string) ([]any, error) {
	ir, err := parser.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	var out []any
	err = d.eachItem(ir.Root, func(item *models.JSONObject) error {
		ptr, err := d.registry.Create(typeName, "")
		if err != nil {
			return err
		}
		if err := d.fill(ptr.Elem(), item); err != nil {
			return err
		}
		out = append(out, ptr.Interface())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Deserializer) eachItem(root models.JSONValue, fn func(*models.JSONObject) error) error {
	arr, ok := root.(models.JSONArray)
	if !ok {
		return apperrors.NewMalformedInputError(fmt.Sprintf("expected a JSON array at the root, got %s", jsonKind(root)), nil)
	}
	for i, item := range arr {
		obj, ok := item.(*models.JSONObject)
		if !ok {
			return apperrors.NewNonObjectItemError(fmt.Sprintf("[%d]", i), fmt.Sprintf("expected a JSON object, got %s", jsonKind(item)))
		}
		if err := fn(obj); err != nil {
			return apperrors.WithFieldPrefix(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

// fill assigns the entries of obj to the fields of the struct v.
func (d *Deserializer) fill(v reflect.Value, obj *models.JSONObject) error {
	v = fields.Addressable(v)
	plan, err := d.resolver.Fields(v.Type())
	if err != nil {
		return err
	}

	for _, rf := range plan {
		f := rf.Field
		if !d.included(rf) {
			continue
		}

		name := meta.ExternalName(f, d.settings.Naming)
		raw, ok := obj.Get(name)
		if !ok {
			continue
		}

		d.logger.Debug("deserialize field",
			zap.String("type", v.Type().String()),
			zap.String("field", f.Name),
			zap.String("name", name),
			zap.Stringer("kind", rf.Type.Kind))

		if raw == nil {
			if rf.Type.Nullable {
				if err := fields.Set(v, f, reflect.Value{}); err != nil {
					return apperrors.NewTypeMismatchError(name, "cannot clear field", err)
				}
			}
			continue
		}

		out, ok, err := d.value(raw, rf.Type, f.Type, f)
		if err != nil {
			return apperrors.WithFieldPrefix(err, name)
		}
		if !ok {
			continue
		}

		adapted, ok := adapt(out, f.Type)
		if !ok {
			return apperrors.NewTypeMismatchError(name, fmt.Sprintf("cannot assign %s to %s", out.Type(), f.Type), nil)
		}
		if err := fields.Set(v, f, adapted); err != nil {
			return apperrors.NewTypeMismatchError(name, "cannot set field", err)
		}
	}
	return nil
}

func (d *Deserializer) included(rf typeinfo.ResolvedField) bool {
	f := rf.Field
	switch {
	case f.Static:
		return false
	case f.Visibility == models.Protected && !d.settings.IncludeProtected:
		return false
	case meta.IsIgnoredOnRead(f.Override), rf.Type.Kind == models.Ignored:
		return false
	}
	return true
}

// value decodes a non-null raw value described by desc into a value that
// fits dest. ok is false when the input should be skipped.
func (d *Deserializer) value(raw models.JSONValue, desc models.TypeDescriptor, dest reflect.Type, f models.FieldDescriptor) (reflect.Value, bool, error) {
	switch desc.Kind {
	case models.Array:
		return d.array(raw, desc, dest, f)
	case models.DateTime:
		v, err := d.dateTime(raw, f.Override)
		return v, err == nil, err
	case models.Enumeration:
		v, err := d.enum(raw, desc.Type)
		return v, err == nil, err
	case models.Object:
		v, err := d.object(raw, desc, f)
		return v, err == nil, err
	default:
		v, err := scalar(raw, desc, dest)
		return v, err == nil, err
	}
}

func (d *Deserializer) array(raw models.JSONValue, desc models.TypeDescriptor, dest reflect.Type, f models.FieldDescriptor) (reflect.Value, bool, error) {
	if desc.Elem == nil {
		return reflect.Value{}, false, apperrors.NewUnresolvableArrayTypeError("")
	}
	arr, ok := raw.(models.JSONArray)
	if !ok {
		return reflect.Value{}, false, nil
	}

	seqType := sequenceType(dest, desc)
	if len(arr) == 0 {
		return reflect.Zero(seqType), true, nil
	}

	var out reflect.Value
	if seqType.Kind() == reflect.Array {
		if len(arr) > seqType.Len() {
			return reflect.Value{}, false, apperrors.NewTypeMismatchError("", fmt.Sprintf("%d elements do not fit %s", len(arr), seqType), nil)
		}
		out = reflect.New(seqType).Elem()
	} else {
		out = reflect.MakeSlice(seqType, len(arr), len(arr))
	}

	for i, item := range arr {
		if item == nil {
			continue
		}
		elemType := seqType.Elem()
		ev, ok, err := d.value(item, *desc.Elem, elemType, f)
		if err != nil {
			return reflect.Value{}, false, apperrors.WithFieldPrefix(err, fmt.Sprintf("[%d]", i))
		}
		if !ok {
			continue
		}
		adapted, ok := adapt(ev, elemType)
		if !ok {
			return reflect.Value{}, false, apperrors.NewTypeMismatchError(fmt.Sprintf("[%d]", i), fmt.Sprintf("cannot assign %s to %s", ev.Type(), elemType), nil)
		}
		out.Index(i).Set(adapted)
	}
	return out, true, nil
}

func (d *Deserializer) dateTime(raw models.JSONValue, ov models.MetadataOverride) (reflect.Value, error) {
	if t, ok := raw.(time.Time); ok {
		return reflect.ValueOf(t), nil
	}

	s, ok := raw.(string)
	if !ok {
		return reflect.Value{}, apperrors.NewInvalidDateTimeError("", fmt.Sprintf("expected a date string, got %s", jsonKind(raw)), nil)
	}

	format := d.settings.DateTimeFormat
	if ov.DateFormat != "" {
		format = ov.DateFormat
	}
	t, err := dateformat.Parse(format, s)
	if err != nil {
		return reflect.Value{}, apperrors.NewInvalidDateTimeError("", fmt.Sprintf("%q does not match format %q", s, format), err)
	}
	return reflect.ValueOf(t), nil
}

func (d *Deserializer) object(raw models.JSONValue, desc models.TypeDescriptor, f models.FieldDescriptor) (reflect.Value, error) {
	obj, ok := raw.(*models.JSONObject)
	if !ok {
		return reflect.Value{}, apperrors.NewNonObjectItemError("", fmt.Sprintf("expected a JSON object, got %s", jsonKind(raw)))
	}

	var (
		ptr reflect.Value
		err error
	)
	if desc.Type != nil {
		ptr, err = d.registry.New(desc.Type)
	} else {
		nsHint := ""
		if f.DeclaringType != nil {
			nsHint = f.DeclaringType.PkgPath()
		}
		ptr, err = d.registry.Create(desc.TypeName, nsHint)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	if ptr.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, apperrors.NewTypeMismatchError("", fmt.Sprintf("%s is not a struct type", ptr.Elem().Type()), nil)
	}

	if err := d.fill(ptr.Elem(), obj); err != nil {
		return reflect.Value{}, err
	}
	return ptr, nil
}

// sequenceType picks the Go slice or array type an array value is built as.
func sequenceType(dest reflect.Type, desc models.TypeDescriptor) reflect.Type {
	base := dest
	if base != nil && base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base != nil && (base.Kind() == reflect.Slice || base.Kind() == reflect.Array) {
		return base
	}
	return reflect.SliceOf(elemGoType(*desc.Elem))
}

func elemGoType(desc models.TypeDescriptor) reflect.Type {
	switch desc.Kind {
	case models.Object:
		if desc.Type != nil && desc.Type.Kind() == reflect.Struct {
			return reflect.PointerTo(desc.Type)
		}
	case models.DateTime:
		return timeType
	case models.Enumeration, models.Scalar:
		if desc.Type != nil {
			return desc.Type
		}
	case models.Array:
		if desc.Elem != nil {
			return reflect.SliceOf(elemGoType(*desc.Elem))
		}
	}
	return anyType
}

// adapt makes v assignable to t, taking or dropping one level of pointer
// where needed.
func adapt(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(t) {
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		return v.Elem(), true
	}
	if t.Kind() == reflect.Pointer && v.Type().AssignableTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	}
	return reflect.Value{}, false
}

func jsonKind(v models.JSONValue) string {
	switch v.(type) {
	case nil:
		return "null"
	case *models.JSONObject:
		return "an object"
	case models.JSONArray:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
