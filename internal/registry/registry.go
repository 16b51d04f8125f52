// Package registry is the object factory used by the deserializer: it maps
// type names to Go types and builds fresh instances of them.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	apperrors "github.com/mcncl/jsonmap/internal/errors"
)

type entry struct {
	name string
	typ  reflect.Type
	// ctor is an optional zero-argument constructor returning typ or *typ.
	ctor reflect.Value
	// unconstructible holds the reason the type cannot be built, if any.
	unconstructible string
}

// Registry maps names to types. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	aliases map[string]string
	byType  map[reflect.Type]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		aliases: make(map[string]string),
		byType:  make(map[reflect.Type]*entry),
	}
}

// FullName returns the name a type is registered under: its import path and
// type name joined by a dot, or the bare name for predeclared types.
func FullName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Register adds a type. v is one of
//
//	T{} or &T{}          built as a zero value
//	func() T, func() *T  built by calling the constructor
//	func(args...) T      registered but unconstructible
//	(*Iface)(nil)        registered but unconstructible
//
// Aliases are extra names the type can be looked up by.
func (r *Registry) Register(v any, aliases ...string) error {
	if v == nil {
		return fmt.Errorf("registry: cannot register nil")
	}

	e := &entry{}
	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch {
	case rt.Kind() == reflect.Func:
		if rt.NumOut() != 1 {
			return fmt.Errorf("registry: constructor %s must return exactly one value", rt)
		}
		e.typ = rt.Out(0)
		if e.typ.Kind() == reflect.Pointer {
			e.typ = e.typ.Elem()
		}
		if rt.NumIn() > 0 {
			e.unconstructible = fmt.Sprintf("constructor of %s requires %d argument(s)", e.typ, rt.NumIn())
		} else {
			e.ctor = rv
		}
	case rt.Kind() == reflect.Pointer:
		e.typ = rt.Elem()
	default:
		e.typ = rt
	}

	if e.typ.Kind() == reflect.Interface {
		e.unconstructible = fmt.Sprintf("%s is an interface", e.typ)
	}
	if e.typ.Name() == "" {
		return fmt.Errorf("registry: cannot register unnamed type %s", e.typ)
	}
	e.name = FullName(e.typ)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, alias := range aliases {
		if owner, ok := r.aliases[alias]; ok && owner != e.name {
			return fmt.Errorf("registry: alias %q already points to %s", alias, owner)
		}
	}

	r.entries[e.name] = e
	r.byType[e.typ] = e
	for _, alias := range aliases {
		r.aliases[alias] = e.name
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(v any, aliases ...string) {
	if err := r.Register(v, aliases...); err != nil {
		panic(err)
	}
}

// Lookup finds the type registered under name. Candidates are tried in
// order: full name, alias, short "pkg.Name" form, nsHint + "." + name, then
// a bare type name that is unique across the registry.
func (r *Registry) Lookup(name, nsHint string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e := r.lookup(name, nsHint); e != nil {
		return e.typ, true
	}
	return nil, false
}

func (r *Registry) lookup(name, nsHint string) *entry {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if e := r.qualified(name); e != nil {
		return e
	}
	if nsHint != "" {
		if e := r.qualified(strings.TrimSuffix(nsHint, ".") + "." + name); e != nil {
			return e
		}
	}
	if strings.Contains(name, ".") {
		return nil
	}

	matches := lo.Filter(lo.Values(r.entries), func(e *entry, _ int) bool {
		return e.typ.Name() == name
	})
	if len(matches) == 1 {
		return matches[0]
	}
	return nil
}

func (r *Registry) qualified(name string) *entry {
	if e, ok := r.entries[name]; ok {
		return e
	}
	if full, ok := r.aliases[name]; ok {
		return r.entries[full]
	}

	lastDot := strings.LastIndex(name, ".")
	if lastDot <= 0 || lastDot == len(name)-1 {
		return nil
	}
	pkg, typeName := name[:lastDot], name[lastDot+1:]
	for _, e := range r.entries {
		if e.typ.Name() != typeName {
			continue
		}
		if e.typ.PkgPath() == pkg || strings.HasSuffix(e.typ.PkgPath(), "/"+pkg) {
			return e
		}
	}
	return nil
}

// Create builds a new instance of the named type and returns a pointer to it.
func (r *Registry) Create(name, nsHint string) (reflect.Value, error) {
	r.mu.RLock()
	e := r.lookup(name, nsHint)
	r.mu.RUnlock()

	if e == nil {
		msg := fmt.Sprintf("type %q is not registered", name)
		if nsHint != "" {
			msg = fmt.Sprintf("type %q is not registered (also tried %s.%s)", name, nsHint, name)
		}
		return reflect.Value{}, apperrors.NewTypeNotFoundError(msg)
	}
	return e.instantiate()
}

// New builds a new instance of t (or of t's element when t is a pointer) and
// returns a pointer to it. A registered constructor for the type is honoured.
func (r *Registry) New(t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.RLock()
	e := r.byType[t]
	r.mu.RUnlock()

	if e != nil {
		return e.instantiate()
	}
	if t.Kind() == reflect.Interface {
		return reflect.Value{}, apperrors.NewUnconstructibleError(fmt.Sprintf("%s is an interface", t))
	}
	return reflect.New(t), nil
}

func (e *entry) instantiate() (reflect.Value, error) {
	if e.unconstructible != "" {
		return reflect.Value{}, apperrors.NewUnconstructibleError(e.unconstructible)
	}
	if !e.ctor.IsValid() {
		return reflect.New(e.typ), nil
	}

	out := e.ctor.Call(nil)[0]
	if out.Kind() == reflect.Pointer {
		if out.IsNil() {
			return reflect.New(e.typ), nil
		}
		return out, nil
	}
	ptr := reflect.New(e.typ)
	ptr.Elem().Set(out)
	return ptr, nil
}

// Names returns the full names of all registered types in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.entries)
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
