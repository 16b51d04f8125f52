package demo

import "github.com/mcncl/jsonmap/internal/models"

// Status is a backed enumeration.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

func (Status) EnumCases() []models.EnumCase {
	return []models.EnumCase{
		{Name: "Inactive", Value: StatusInactive, Backing: 0},
		{Name: "Active", Value: StatusActive, Backing: 1},
	}
}

// Color is a pure enumeration: its cases have names but no backing values.
type Color int

const (
	Red Color = iota
	Yellow
	Green
)

func (Color) EnumCases() []models.EnumCase {
	return []models.EnumCase{
		{Name: "Red", Value: Red},
		{Name: "Yellow", Value: Yellow},
		{Name: "Green", Value: Green},
	}
}
