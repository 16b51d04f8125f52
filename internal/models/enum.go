package models

import (
	"reflect"
)

// EnumCase describes one case of an enumeration type.
// Backing is nil for pure enumerations that have no backing value.
type EnumCase struct {
	Name    string
	Value   any
	Backing any
}

// Enum is implemented by types that behave as enumerations. EnumCases must
// return the same cases regardless of the receiver's value.
type Enum interface {
	EnumCases() []EnumCase
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// IsEnumType reports whether t (or a pointer to t) implements Enum.
func IsEnumType(t reflect.Type) bool {
	if t == nil || t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(enumType) || reflect.PointerTo(t).Implements(enumType)
}

// EnumCasesOf returns the cases declared by enumeration type t.
func EnumCasesOf(t reflect.Type) []EnumCase {
	if t.Implements(enumType) {
		return reflect.Zero(t).Interface().(Enum).EnumCases()
	}
	if reflect.PointerTo(t).Implements(enumType) {
		return reflect.New(t).Interface().(Enum).EnumCases()
	}
	return nil
}

// IsBacked reports whether any case carries a backing value.
func IsBacked(cases []EnumCase) bool {
	for _, c := range cases {
		if c.Backing != nil {
			return true
		}
	}
	return false
}
