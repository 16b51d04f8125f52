// Package jsonmap maps JSON text to typed Go object graphs and back, driven
// by struct tags:
//
//	type Order struct {
//		ID       int    `json:"Id"`
//		ExternID any    `jsontype:"string|int|null"`
//		Items    []any  `jsontype:"OrderItem"`
//		Secret   string `jsonignore:""`
//	}
//
// Named types referenced from tags are looked up in a Registry. A Mapper
// bundles settings, a registry and the per-type caches; the package-level
// functions build a throwaway Mapper per call.
package jsonmap

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/mcncl/jsonmap/internal/config"
	"github.com/mcncl/jsonmap/internal/describe"
	"github.com/mcncl/jsonmap/internal/deserializer"
	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
	"github.com/mcncl/jsonmap/internal/registry"
	"github.com/mcncl/jsonmap/internal/serializer"
	"github.com/mcncl/jsonmap/internal/typeinfo"
)

type (
	// Settings governs a Mapper. See DefaultSettings.
	Settings = config.Settings
	// Registry maps type names to Go types and constructors.
	Registry = registry.Registry
	// Policy converts Go field names to external names.
	Policy = naming.Policy
	// PolicyFunc adapts a function to Policy.
	PolicyFunc = naming.PolicyFunc
	// EnumFormat selects how enumeration values are written.
	EnumFormat = models.EnumFormat
	// EnumCase is one case of an enumeration.
	EnumCase = models.EnumCase
	// Enum is implemented by enumeration types.
	Enum = models.Enum
	// Error is the error type returned by every operation.
	Error = apperrors.AppError
	// Object is an insertion-ordered JSON object in a value tree.
	Object = models.JSONObject
	// Array is a JSON array in a value tree.
	Array = models.JSONArray
)

const (
	EnumByValue = models.EnumByValue
	EnumByName  = models.EnumByName
	EnumByFull  = models.EnumByFull
)

// Naming policies.
var (
	NamingNone    = naming.None
	CamelToPascal = naming.CamelToPascal
	PascalToCamel = naming.PascalToCamel
	CamelToSnake  = naming.CamelToSnake
	CamelToKebab  = naming.CamelToKebab
)

// Sentinels for errors.Is.
var (
	ErrMalformedInput        = apperrors.ErrMalformedInput
	ErrUnresolvableArrayType = apperrors.ErrUnresolvableArrayType
	ErrTypeNotFound          = apperrors.ErrTypeNotFound
	ErrUnconstructible       = apperrors.ErrUnconstructible
	ErrInvalidDateTime       = apperrors.ErrInvalidDateTime
	ErrInvalidEnum           = apperrors.ErrInvalidEnum
	ErrNonObjectItem         = apperrors.ErrNonObjectItem
	ErrTypeMismatch          = apperrors.ErrTypeMismatch
	ErrInvalidMetadata       = apperrors.ErrInvalidMetadata
	ErrUnsupportedValue      = apperrors.ErrUnsupportedValue
)

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return config.DefaultSettings()
}

// LoadSettings reads a YAML settings file over the defaults.
func LoadSettings(path string) (Settings, error) {
	return config.LoadSettings(path)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return registry.New()
}

// FieldOf returns the field path carried by err, such as "Items[2].Sku".
func FieldOf(err error) string {
	return apperrors.FieldOf(err)
}

type options struct {
	settings Settings
	registry *Registry
	logger   *zap.Logger
}

// Option configures a Mapper.
type Option func(*options)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithRegistry sets the registry used to resolve type names.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLogger sets the logger that receives per-field debug records.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Mapper serializes and deserializes with fixed settings. Field plans are
// cached per type, so a Mapper should be reused. It is safe for concurrent
// use; register every named type before the first call.
type Mapper struct {
	settings     Settings
	resolver     *typeinfo.Resolver
	serializer   *serializer.Serializer
	deserializer *deserializer.Deserializer
}

// New returns a Mapper. It fails when the settings are invalid.
func New(opts ...Option) (*Mapper, error) {
	o := options{settings: config.DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if o.registry == nil {
		o.registry = registry.New()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	resolver := typeinfo.New(o.registry)
	return &Mapper{
		settings: o.settings,
		resolver: resolver,
		serializer: serializer.New(o.settings,
			serializer.WithResolver(resolver),
			serializer.WithLogger(o.logger)),
		deserializer: deserializer.New(o.settings,
			deserializer.WithResolver(resolver),
			deserializer.WithRegistry(o.registry),
			deserializer.WithLogger(o.logger)),
	}, nil
}

// Settings returns the settings the Mapper was built with.
func (m *Mapper) Settings() Settings {
	return m.settings
}

// Registry returns the registry used to resolve type names.
func (m *Mapper) Registry() *Registry {
	return m.resolver.Registry()
}

// Serialize encodes v, a struct, a pointer to one, or a slice or array.
func (m *Mapper) Serialize(v any) ([]byte, error) {
	return m.serializer.Serialize(v)
}

// ToTree converts v into a value tree of *Object, Array and scalars.
func (m *Mapper) ToTree(v any) (any, error) {
	return m.serializer.ToTree(v)
}

// Deserialize fills target, a non-nil pointer to a struct, from data.
func (m *Mapper) Deserialize(data []byte, target any) error {
	return m.deserializer.Deserialize(data, target)
}

// DeserializeTree fills target from a value tree.
func (m *Mapper) DeserializeTree(tree any, target any) error {
	return m.deserializer.DeserializeTree(tree, target)
}

// DeserializeNamed decodes data into a new instance of the registered type
// typeName and returns a pointer to it.
func (m *Mapper) DeserializeNamed(data []byte, typeName string) (any, error) {
	return m.deserializer.DeserializeNamed(data, typeName)
}

// DeserializeSliceOfNamed decodes a JSON array into new instances of the
// registered type typeName.
func (m *Mapper) DeserializeSliceOfNamed(data []byte, typeName string) ([]any, error) {
	return m.deserializer.DeserializeSliceOfNamed(data, typeName)
}

// Describe renders the resolved field plan of the struct type of v.
func (m *Mapper) Describe(v any) (string, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return "", fmt.Errorf("describe: nil value")
	}
	return describe.New(m.resolver, m.settings).Describe(t)
}

// DeserializeSliceOf decodes a JSON array into a []T. T is a struct type or a
// pointer to one.
func DeserializeSliceOf[T any](m *Mapper, data []byte) ([]T, error) {
	out, err := m.deserializer.DeserializeSliceOf(data, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return out.Interface().([]T), nil
}

// Serialize encodes v with a Mapper built from opts.
func Serialize(v any, opts ...Option) ([]byte, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.Serialize(v)
}

// ToTree converts v into a value tree with a Mapper built from opts.
func ToTree(v any, opts ...Option) (any, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.ToTree(v)
}

// Deserialize fills target from data with a Mapper built from opts.
func Deserialize(data []byte, target any, opts ...Option) error {
	m, err := New(opts...)
	if err != nil {
		return err
	}
	return m.Deserialize(data, target)
}

// DeserializeTree fills target from a value tree with a Mapper built from
// opts.
func DeserializeTree(tree any, target any, opts ...Option) error {
	m, err := New(opts...)
	if err != nil {
		return err
	}
	return m.DeserializeTree(tree, target)
}

// DeserializeNamed decodes data into the registered type typeName.
func DeserializeNamed(data []byte, typeName string, opts ...Option) (any, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.DeserializeNamed(data, typeName)
}

// DeserializeSliceOfNamed decodes a JSON array into the registered type
// typeName.
func DeserializeSliceOfNamed(data []byte, typeName string, opts ...Option) ([]any, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.DeserializeSliceOfNamed(data, typeName)
}

// DeserializeSlice decodes a JSON array into a []T with a Mapper built from
// opts.
func DeserializeSlice[T any](data []byte, opts ...Option) ([]T, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return DeserializeSliceOf[T](m, data)
}
