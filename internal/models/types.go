package models

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind classifies how a field is encoded and decoded.
type Kind int

const (
	Scalar Kind = iota
	Array
	Object
	Enumeration
	DateTime
	Ignored
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Object:
		return "object"
	case Enumeration:
		return "enum"
	case DateTime:
		return "date-time"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// TypeSource records which precedence source produced a TypeDescriptor.
type TypeSource int

const (
	SourceNone TypeSource = iota
	SourceOverride
	SourceStatic
	SourceHint
)

// String returns a human-readable source name.
func (s TypeSource) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceStatic:
		return "static"
	case SourceHint:
		return "hint"
	default:
		return "none"
	}
}

// TypeDescriptor is the resolved classification of a field's effective type.
type TypeDescriptor struct {
	Kind     Kind
	TypeName string
	// Type is the Go type governing the value, nil when only a name is known
	// or the field is a pass-through union.
	Type reflect.Type
	// Elem describes array elements; nil when the element type is unresolved.
	Elem            *TypeDescriptor
	ElementTypeName string
	Nullable        bool
	Union           []string
	Source          TypeSource
}

// Visibility is the access level of a struct field.
type Visibility int

const (
	Public Visibility = iota
	Protected
)

// String returns a human-readable visibility name.
func (v Visibility) String() string {
	if v == Protected {
		return "protected"
	}
	return "public"
}

// FieldDescriptor identifies one field of a struct type.
type FieldDescriptor struct {
	Name          string
	Type          reflect.Type
	Visibility    Visibility
	Static        bool
	Index         []int
	Depth         int
	DeclaringType reflect.Type
	Override      MetadataOverride
}

// Inherited reports whether the field was promoted from an embedded struct.
func (f FieldDescriptor) Inherited() bool {
	return f.Depth > 0
}

// IgnoreOverride holds the per-direction ignore flags of a field.
type IgnoreOverride struct {
	Read  bool
	Write bool
}

// MetadataOverride is the set of declarative annotations attached to a field.
// Zero values mean "fall through to the next source".
type MetadataOverride struct {
	Name       string
	HasName    bool
	TypeName   string
	Ignore     *IgnoreOverride
	DateFormat string
	EnumFormat *EnumFormat
	Hint       string
}

// EnumFormat governs how an enumeration case round-trips through a ValueTree.
type EnumFormat int

const (
	EnumByValue EnumFormat = iota
	EnumByName
	EnumByFull
)

// String returns the tag spelling of the format.
func (f EnumFormat) String() string {
	switch f {
	case EnumByName:
		return "name"
	case EnumByFull:
		return "full"
	default:
		return "value"
	}
}

// ParseEnumFormat parses "value", "name" or "full" (case-insensitive).
func ParseEnumFormat(s string) (EnumFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "value", "":
		return EnumByValue, nil
	case "name":
		return EnumByName, nil
	case "full":
		return EnumByFull, nil
	default:
		return EnumByValue, fmt.Errorf("unknown enum format %q (want value, name or full)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *EnumFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseEnumFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f EnumFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
