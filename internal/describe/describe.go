// Package describe renders resolved field plans as aligned text tables.
package describe

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mcncl/jsonmap/internal/config"
	"github.com/mcncl/jsonmap/internal/meta"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/registry"
	"github.com/mcncl/jsonmap/internal/typeinfo"
)

// Describer renders the plans a Resolver computes for struct types.
type Describer struct {
	resolver *typeinfo.Resolver
	settings config.Settings
}

// New returns a Describer that names fields the way settings would.
func New(resolver *typeinfo.Resolver, settings config.Settings) *Describer {
	return &Describer{resolver: resolver, settings: settings}
}

type row struct {
	name     string
	external string
	kind     string
	typ      string
	source   string
	notes    string
}

// Describe renders the plan of t followed by the plans of the struct types
// it reaches, root first and the rest in name order.
func (d *Describer) Describe(t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("describe: %s is not a struct type", t)
	}

	types, err := d.reachable(t)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for i, st := range types {
		if i > 0 {
			buf.WriteString("\n")
		}
		if err := d.writeType(&buf, st); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// reachable collects t and every struct type its plans refer to.
func (d *Describer) reachable(root reflect.Type) ([]reflect.Type, error) {
	seen := map[reflect.Type]bool{root: true}
	var nested []reflect.Type

	queue := []reflect.Type{root}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		plan, err := d.resolver.Fields(t)
		if err != nil {
			return nil, err
		}
		for _, rf := range plan {
			if rf.Field.Static {
				continue
			}
			for _, st := range structTypes(rf.Type) {
				if st.Name() != "" && !seen[st] {
					seen[st] = true
					nested = append(nested, st)
					queue = append(queue, st)
				}
			}
		}
	}

	sort.Slice(nested, func(i, j int) bool {
		return nested[i].Name() < nested[j].Name()
	})
	return append([]reflect.Type{root}, nested...), nil
}

func structTypes(desc models.TypeDescriptor) []reflect.Type {
	var out []reflect.Type
	if desc.Kind == models.Object && desc.Type != nil && desc.Type.Kind() == reflect.Struct {
		out = append(out, desc.Type)
	}
	if desc.Elem != nil {
		out = append(out, structTypes(*desc.Elem)...)
	}
	return out
}

func (d *Describer) writeType(buf *bytes.Buffer, t reflect.Type) error {
	plan, err := d.resolver.Fields(t)
	if err != nil {
		return err
	}

	rows := make([]row, 0, len(plan))
	for _, rf := range plan {
		rows = append(rows, d.row(rf))
	}

	// Column widths for alignment.
	var widths [5]int
	for _, r := range rows {
		for i, cell := range []string{r.name, r.external, r.kind, r.typ, r.source} {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmt.Fprintf(buf, "%s (%s)\n", t.Name(), registry.FullName(t))
	for _, r := range rows {
		line := fmt.Sprintf("\t%-*s %-*s %-*s %-*s %-*s %s",
			widths[0], r.name,
			widths[1], r.external,
			widths[2], r.kind,
			widths[3], r.typ,
			widths[4], r.source,
			r.notes)
		buf.WriteString(strings.TrimRight(line, " "))
		buf.WriteString("\n")
	}
	return nil
}

func (d *Describer) row(rf typeinfo.ResolvedField) row {
	f := rf.Field

	var notes []string
	if rf.Type.Nullable {
		notes = append(notes, "nullable")
	}
	if f.Visibility == models.Protected {
		notes = append(notes, "protected")
	}
	if f.Inherited() {
		notes = append(notes, fmt.Sprintf("inherited(%d)", f.Depth))
	}
	if f.Override.Ignore != nil {
		switch {
		case meta.IsIgnoredOnRead(f.Override) && meta.IsIgnoredOnWrite(f.Override):
			notes = append(notes, "ignored")
		case meta.IsIgnoredOnRead(f.Override):
			notes = append(notes, "write-only")
		case meta.IsIgnoredOnWrite(f.Override):
			notes = append(notes, "read-only")
		}
	}
	if f.Override.DateFormat != "" {
		notes = append(notes, "date="+f.Override.DateFormat)
	}
	if f.Override.EnumFormat != nil {
		notes = append(notes, "enum="+f.Override.EnumFormat.String())
	}
	if f.Static {
		notes = append(notes, "static")
	}

	external := meta.ExternalName(f, d.settings.Naming)
	if f.Static {
		external = "-"
	}

	return row{
		name:     f.Name,
		external: external,
		kind:     rf.Type.Kind.String(),
		typ:      typeLabel(rf.Type),
		source:   rf.Type.Source.String(),
		notes:    strings.Join(notes, ","),
	}
}

func typeLabel(desc models.TypeDescriptor) string {
	if desc.Kind == models.Array {
		if desc.Elem == nil {
			return "[]?"
		}
		return "[]" + typeLabel(*desc.Elem)
	}
	if len(desc.Union) > 0 {
		return strings.Join(desc.Union, "|")
	}
	if desc.Type != nil {
		return desc.Type.String()
	}
	return desc.TypeName
}
