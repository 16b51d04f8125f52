package deserializer

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
)

// enum resolves raw against the cases of t: by case name first, then by
// backing value. A nested object contributes its "name" or "value" entry.
func (d *Deserializer) enum(raw models.JSONValue, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, apperrors.NewInvalidEnumError("", "enumeration type is unknown")
	}

	if obj, ok := raw.(*models.JSONObject); ok {
		if v, ok := obj.Get(naming.Apply(d.settings.Naming, "name")); ok {
			raw = v
		} else if v, ok := obj.Get(naming.Apply(d.settings.Naming, "value")); ok {
			raw = v
		} else {
			return reflect.Value{}, apperrors.NewInvalidEnumError("", fmt.Sprintf("object has neither a name nor a value entry for %s", t))
		}
	}
	if raw == nil {
		return reflect.Zero(t), nil
	}

	cases := models.EnumCasesOf(t)
	if s, ok := raw.(string); ok {
		if c, ok := lo.Find(cases, func(c models.EnumCase) bool { return c.Name == s }); ok {
			return caseValue(c, t), nil
		}
	}
	if models.IsBacked(cases) {
		if c, ok := lo.Find(cases, func(c models.EnumCase) bool { return c.Backing != nil && looseEqual(c.Backing, raw) }); ok {
			return caseValue(c, t), nil
		}
	}
	return reflect.Value{}, apperrors.NewInvalidEnumError("", fmt.Sprintf("%v is not a case of %s", raw, t))
}

func caseValue(c models.EnumCase, t reflect.Type) reflect.Value {
	v := reflect.ValueOf(c.Value)
	if v.Type() != t && v.Type().ConvertibleTo(t) {
		return v.Convert(t)
	}
	return v
}

// looseEqual compares a backing value with raw input by their printed form,
// treating numbers with equal value as equal.
func looseEqual(backing, raw any) bool {
	a, b := fmt.Sprint(backing), fmt.Sprint(raw)
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && fa == fb
}

// scalar converts raw into dest, or into the descriptor's type when dest is
// an interface. Values that are not directly assignable go through the JSON
// codec.
func scalar(raw models.JSONValue, desc models.TypeDescriptor, dest reflect.Type) (reflect.Value, error) {
	target := dest
	if desc.Type != nil && (target == nil || target.Kind() == reflect.Interface) {
		target = desc.Type
	}

	plain := plainValue(raw)
	if target == nil || (target.Kind() == reflect.Interface && target.NumMethod() == 0) {
		return reflect.ValueOf(plain), nil
	}

	if v := reflect.ValueOf(plain); v.Type().AssignableTo(target) {
		return v, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return reflect.Value{}, apperrors.NewTypeMismatchError("", fmt.Sprintf("cannot re-encode %s", jsonKind(raw)), err)
	}
	ptr := reflect.New(target)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, apperrors.NewTypeMismatchError("", fmt.Sprintf("cannot assign %s to %s", jsonKind(raw), target), err)
	}
	return ptr.Elem(), nil
}

// plainValue converts a tree value into ordinary Go values: objects become
// maps, arrays become slices and numbers become int or float64.
func plainValue(raw models.JSONValue) any {
	switch v := raw.(type) {
	case *models.JSONObject:
		out := make(map[string]any, v.Len())
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			out[key] = plainValue(item)
		}
		return out
	case models.JSONArray:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case json.Number:
		if i, err := v.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	default:
		return v
	}
}
