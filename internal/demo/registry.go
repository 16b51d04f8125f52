package demo

import "github.com/mcncl/jsonmap/internal/registry"

// Registry returns a registry holding every demo type.
func Registry() *registry.Registry {
	r := registry.New()
	r.MustRegister(NewOrder, "order")
	r.MustRegister(OrderItem{}, "item")
	r.MustRegister(NewSpecialOrder, "special")
	r.MustRegister(NewTypesTest, "types")
	r.MustRegister(EnumTest{}, "enums")
	r.MustRegister(Status(0))
	r.MustRegister(Color(0))
	return r
}
