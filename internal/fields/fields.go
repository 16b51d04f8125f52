// Package fields introspects struct types and reads or writes their fields,
// including unexported ones.
package fields

import (
	"fmt"
	"reflect"
	"sync"
	"time"
	"unsafe"

	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/meta"
	"github.com/mcncl/jsonmap/internal/models"
)

var timeType = reflect.TypeOf(time.Time{})

type cached struct {
	fields []models.FieldDescriptor
	err    error
}

var cache sync.Map // map[reflect.Type]cached

// Of returns the fields of struct type t in declaration order. Fields of
// embedded structs without an explicit name are expanded in place and carry
// Depth > 0. The result is computed once per type.
func Of(t reflect.Type) ([]models.FieldDescriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("fields: %s is not a struct", t)
	}
	if c, ok := cache.Load(t); ok {
		return c.(cached).fields, c.(cached).err
	}

	var out []models.FieldDescriptor
	err := collect(t, nil, 0, &out, map[reflect.Type]bool{t: true})
	if err == nil {
		out = dropShadowed(out)
	} else {
		out = nil
	}
	c, _ := cache.LoadOrStore(t, cached{fields: out, err: err})
	return c.(cached).fields, c.(cached).err
}

func collect(t reflect.Type, prefix []int, depth int, out *[]models.FieldDescriptor, visiting map[reflect.Type]bool) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		ov, err := meta.Parse(sf.Tag)
		if err != nil {
			return apperrors.NewInvalidMetadataError(sf.Name, err.Error())
		}

		if sf.Anonymous && !ov.HasName && ov.Ignore == nil {
			embedded := sf.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct && embedded != timeType && !models.IsEnumType(embedded) && !visiting[embedded] {
				visiting[embedded] = true
				if err := collect(embedded, index, depth+1, out, visiting); err != nil {
					return err
				}
				delete(visiting, embedded)
				continue
			}
		}

		visibility := models.Public
		if !sf.IsExported() {
			visibility = models.Protected
		}
		*out = append(*out, models.FieldDescriptor{
			Name:          sf.Name,
			Type:          sf.Type,
			Visibility:    visibility,
			Static:        sf.Name == "_",
			Index:         index,
			Depth:         depth,
			DeclaringType: t,
			Override:      ov,
		})
	}
	return nil
}

// dropShadowed applies Go's promotion rule: a name declared at a shallower
// depth hides deeper ones, and duplicates at the same depth hide each other.
func dropShadowed(all []models.FieldDescriptor) []models.FieldDescriptor {
	type depthCount struct{ depth, count int }
	best := make(map[string]depthCount, len(all))
	for _, f := range all {
		if f.Static {
			continue
		}
		dc, ok := best[f.Name]
		switch {
		case !ok || f.Depth < dc.depth:
			best[f.Name] = depthCount{depth: f.Depth, count: 1}
		case f.Depth == dc.depth:
			dc.count++
			best[f.Name] = dc
		}
	}

	out := make([]models.FieldDescriptor, 0, len(all))
	for _, f := range all {
		if f.Static {
			out = append(out, f)
			continue
		}
		dc := best[f.Name]
		if f.Depth == dc.depth && dc.count == 1 {
			out = append(out, f)
		}
	}
	return out
}

// Addressable returns v itself when it is addressable, otherwise an
// addressable copy. Unexported fields can only be reached through an
// addressable struct.
func Addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

// Get returns the value of f inside struct value v. ok is false when the
// field sits behind a nil embedded pointer.
func Get(v reflect.Value, f models.FieldDescriptor) (reflect.Value, bool) {
	return walk(v, f.Index, false)
}

// Set assigns x to f inside struct value v, allocating nil embedded pointers
// on the way. v must be addressable.
func Set(v reflect.Value, f models.FieldDescriptor, x reflect.Value) error {
	fv, _ := walk(v, f.Index, true)
	if !fv.CanSet() {
		return fmt.Errorf("fields: %s is not settable", f.Name)
	}
	if !x.IsValid() {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if !x.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("fields: cannot assign %s to %s (%s)", x.Type(), f.Name, fv.Type())
	}
	fv.Set(x)
	return nil
}

func walk(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = accessible(v.Field(x))
	}
	return v, true
}

// accessible lifts the read-only flag reflect puts on unexported fields.
func accessible(fv reflect.Value) reflect.Value {
	if fv.CanSet() || !fv.CanAddr() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}
