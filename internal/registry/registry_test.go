package registry

import (
	"reflect"
	"testing"

	apperrors "github.com/mcncl/jsonmap/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Widget struct {
	Name string
}

type Gadget struct {
	Channel string
}

func NewGadget() *Gadget {
	return &Gadget{Channel: "Demo Channel"}
}

type Pricing struct {
	Rate float64
}

func NewPricing(rate float64) Pricing {
	return Pricing{Rate: rate}
}

type Shape interface {
	Area() float64
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.Register(Widget{}, "widget"))
	require.NoError(t, r.Register(NewGadget))
	require.NoError(t, r.Register(NewPricing))
	require.NoError(t, r.Register((*Shape)(nil)))
	return r
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)
	widget := reflect.TypeOf(Widget{})

	tests := []struct {
		name   string
		input  string
		nsHint string
		want   reflect.Type
	}{
		{name: "full name", input: FullName(widget), want: widget},
		{name: "alias", input: "widget", want: widget},
		{name: "short package form", input: "registry.Widget", want: widget},
		{name: "bare name", input: "Widget", want: widget},
		{name: "namespace hint", input: "Widget", nsHint: "registry", want: widget},
		{name: "unknown", input: "Sprocket"},
		{name: "wrong package", input: "other.Widget"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.input, tt.nsHint)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreate(t *testing.T) {
	r := newTestRegistry(t)

	v, err := r.Create("Widget", "")
	require.NoError(t, err)
	assert.IsType(t, &Widget{}, v.Interface())

	v, err = r.Create("Gadget", "")
	require.NoError(t, err)
	assert.Equal(t, "Demo Channel", v.Interface().(*Gadget).Channel)
}

func TestCreate_Errors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not registered", input: "Sprocket", wantErr: apperrors.ErrTypeNotFound},
		{name: "constructor with arguments", input: "Pricing", wantErr: apperrors.ErrUnconstructible},
		{name: "interface", input: "Shape", wantErr: apperrors.ErrUnconstructible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(tt.input, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	r := newTestRegistry(t)

	v, err := r.New(reflect.TypeOf(&Gadget{}))
	require.NoError(t, err)
	assert.Equal(t, "Demo Channel", v.Interface().(*Gadget).Channel)

	type unregistered struct{ N int }
	v, err = r.New(reflect.TypeOf(unregistered{}))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Elem().Field(0).Interface())

	_, err = r.New(reflect.TypeOf((*Shape)(nil)).Elem())
	assert.ErrorIs(t, err, apperrors.ErrUnconstructible)
}

func TestRegister_Invalid(t *testing.T) {
	r := New()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(func() (Widget, error) { return Widget{}, nil }))
	assert.Error(t, r.Register(struct{ X int }{}))

	require.NoError(t, r.Register(Widget{}, "thing"))
	assert.Error(t, r.Register(Gadget{}, "thing"), "alias already taken")
}

func TestNames(t *testing.T) {
	r := newTestRegistry(t)
	names := r.Names()
	require.Len(t, names, 4)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, FullName(reflect.TypeOf(Widget{})))
}
