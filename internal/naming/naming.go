// Package naming converts Go field names to external JSON names.
package naming

import (
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// Policy maps a field's declared name to its external name. Implementations
// must be pure and total, and must accept the empty string.
type Policy interface {
	Convert(name string) string
}

// PolicyFunc adapts an ordinary function to the Policy interface.
type PolicyFunc func(name string) string

// Convert calls f(name).
func (f PolicyFunc) Convert(name string) string {
	return f(name)
}

type identity struct{}

func (identity) Convert(name string) string { return name }

// Built-in policies.
var (
	// None keeps names unchanged. It is comparable, so callers can test
	// p == None.
	None Policy = identity{}
	// CamelToPascal converts "orderId" to "OrderId".
	CamelToPascal Policy = PolicyFunc(strcase.ToCamel)
	// PascalToCamel converts "OrderId" to "orderId".
	PascalToCamel Policy = PolicyFunc(strcase.ToLowerCamel)
	// CamelToSnake converts "orderId" to "order_id".
	CamelToSnake Policy = PolicyFunc(strcase.ToSnake)
	// CamelToKebab converts "orderId" to "order-id".
	CamelToKebab Policy = PolicyFunc(strcase.ToKebab)
)

var byName = map[string]Policy{
	"none":            None,
	"camel-to-pascal": CamelToPascal,
	"pascal-to-camel": PascalToCamel,
	"camel-to-snake":  CamelToSnake,
	"camel-to-kebab":  CamelToKebab,
}

// Lookup returns the built-in policy registered under name. Names are
// case-insensitive and accept "_" in place of "-".
func Lookup(name string) (Policy, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if key == "" {
		return None, true
	}
	p, ok := byName[key]
	return p, ok
}

// Names lists the built-in policy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply converts name with p, treating a nil policy as None.
func Apply(p Policy, name string) string {
	if p == nil {
		return name
	}
	return p.Convert(name)
}
