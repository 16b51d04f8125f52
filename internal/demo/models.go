// Package demo holds sample models used by the command line tool and tests.
package demo

import (
	"time"
)

// Order is a shop order.
type Order struct {
	ID int `json:"Id"`
	// ExternID is either a string or an int.
	ExternID any `jsontype:"string|int|null"`
	Channel  any `jsonhint:"string"`
	Ignore   string `jsonignore:""`
	// Items holds *OrderItem values.
	Items       []any `jsontype:"OrderItem"`
	PrimaryItem *OrderItem
}

// NewOrder returns an order with its default channel.
func NewOrder() *Order {
	return &Order{Channel: "Demo Channel"}
}

// OrderItem is one line of an order.
type OrderItem struct {
	SKU      string `json:"Sku"`
	Quantity int
	Price    float64
}

// SpecialOrder is an Order with scheduling details.
type SpecialOrder struct {
	Order
	Placed time.Time
	Note   string
	// notes are internal and only written with protected fields enabled.
	notes string
}

// NewSpecialOrder returns a special order with the Order defaults applied.
func NewSpecialOrder() *SpecialOrder {
	return &SpecialOrder{Order: *NewOrder()}
}

// Notes returns the internal notes.
func (o *SpecialOrder) Notes() string { return o.notes }

// SetNotes sets the internal notes.
func (o *SpecialOrder) SetNotes(notes string) { o.notes = notes }

// TypesTest covers every way a field type can be declared.
type TypesTest struct {
	_ struct{}

	protectedProperty int

	PublicProperty              any
	IntProperty                 int
	IntPropertyNullable         *int
	StringProperty              string
	StringPropertyNullable      *string
	IntOrStringProperty         any `jsontype:"int|string"`
	IntOrStringPropertyNullable any `jsontype:"int|string|null"`
	DateTimeProperty            time.Time
	DateTimePropertyByMeta      time.Time `jsondate:"d/m/Y"`
	OrderItem                   OrderItem
	OrderItemNullable           *OrderItem
	TypedArrayByHint            []any `jsonhint:"OrderItem[]"`
	TypedArrayByMeta            []any `jsontype:"OrderItem"`
	IntByHint                   any   `jsonhint:"integer"`
	IntNullableByHint           any   `jsonhint:"integer|null"`
	IntByMeta                   any   `jsontype:"int"`
	OnChange                    func()
}

// NewTypesTest returns a TypesTest with its protected default.
func NewTypesTest() *TypesTest {
	return &TypesTest{protectedProperty: 123}
}

// ProtectedProperty returns the protected value.
func (t *TypesTest) ProtectedProperty() int { return t.protectedProperty }

// EnumTest exercises every enum format on a backed and a pure enum.
type EnumTest struct {
	StatusDefault Status
	StatusValue   Status `jsonenum:"value"`
	StatusName    Status `jsonenum:"name"`
	StatusFull    Status `jsonenum:"full"`
	RedValue      Color  `jsonenum:"value"`
	YellowName    Color  `jsonenum:"name"`
	GreenFull     Color  `jsonenum:"full"`
}
