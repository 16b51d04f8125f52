// Package meta reads per-field declarative overrides from struct tags.
//
// Supported tags:
//
//	json:"Name"              explicit external name ("-" ignores the field)
//	jsontype:"Item[]"        explicit type override, "|" separates union members
//	jsonignore:"read=false"  ignore override, see IsIgnoredOnRead/IsIgnoredOnWrite
//	jsondate:"d/m/Y"         explicit date format
//	jsonenum:"name"          explicit enum format (value, name or full)
//	jsonhint:"integer|null"  fallback type hint for untyped fields
package meta

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mcncl/jsonmap/internal/dateformat"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
)

// Tag keys.
const (
	TagName   = "json"
	TagType   = "jsontype"
	TagIgnore = "jsonignore"
	TagDate   = "jsondate"
	TagEnum   = "jsonenum"
	TagHint   = "jsonhint"
)

// Parse reads the overrides declared in tag.
func Parse(tag reflect.StructTag) (models.MetadataOverride, error) {
	var ov models.MetadataOverride

	if name, ok := tag.Lookup(TagName); ok {
		if name == "-" {
			ov.Ignore = &models.IgnoreOverride{Read: true, Write: true}
		}
		// "-," names the field "-", as in encoding/json.
		if idx := strings.IndexByte(name, ','); idx >= 0 {
			name = name[:idx]
		} else if name == "-" {
			name = ""
		}
		if name != "" {
			ov.Name = name
			ov.HasName = true
		}
	}

	if typ, ok := tag.Lookup(TagType); ok {
		ov.TypeName = strings.TrimSpace(typ)
	}

	if ignore, ok := tag.Lookup(TagIgnore); ok {
		parsed, err := parseIgnore(ignore)
		if err != nil {
			return models.MetadataOverride{}, err
		}
		ov.Ignore = parsed
	}

	if format, ok := tag.Lookup(TagDate); ok {
		if format == "" {
			return models.MetadataOverride{}, fmt.Errorf("%s tag needs a format", TagDate)
		}
		if err := dateformat.Check(format); err != nil {
			return models.MetadataOverride{}, fmt.Errorf("%s tag: %w", TagDate, err)
		}
		ov.DateFormat = format
	}

	if enum, ok := tag.Lookup(TagEnum); ok {
		format, err := models.ParseEnumFormat(enum)
		if err != nil {
			return models.MetadataOverride{}, err
		}
		ov.EnumFormat = &format
	}

	if hint, ok := tag.Lookup(TagHint); ok {
		ov.Hint = strings.TrimSpace(hint)
	}

	return ov, nil
}

// parseIgnore reads a jsonignore value. An empty value ignores both
// directions. A direction named without "=false" is ignored. A direction not
// named at all is ignored unless another direction was named as ignored, so
// "read" ignores reads only while "read=false" ignores writes only.
func parseIgnore(value string) (*models.IgnoreOverride, error) {
	var read, write *bool
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, raw, hasValue := strings.Cut(part, "=")
		flag := true
		if hasValue {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a boolean", TagIgnore, raw)
			}
			flag = b
		}
		switch strings.TrimSpace(key) {
		case "read":
			read = &flag
		case "write":
			write = &flag
		default:
			return nil, fmt.Errorf("%s: unknown direction %q (want read or write)", TagIgnore, key)
		}
	}

	unnamed := !(read != nil && *read) && !(write != nil && *write)
	ov := &models.IgnoreOverride{Read: unnamed, Write: unnamed}
	if read != nil {
		ov.Read = *read
	}
	if write != nil {
		ov.Write = *write
	}
	return ov, nil
}

// IsIgnoredOnWrite reports whether the serializer must skip the field.
func IsIgnoredOnWrite(ov models.MetadataOverride) bool {
	return ov.Ignore != nil && ov.Ignore.Write
}

// IsIgnoredOnRead reports whether the deserializer must skip the field.
func IsIgnoredOnRead(ov models.MetadataOverride) bool {
	return ov.Ignore != nil && ov.Ignore.Read
}

// ExternalName returns the key a field is stored under: the explicit name
// when one is declared, otherwise the field name passed through policy.
func ExternalName(f models.FieldDescriptor, policy naming.Policy) string {
	if f.Override.HasName {
		return f.Override.Name
	}
	if name := naming.Apply(policy, f.Name); name != "" {
		return name
	}
	return f.Name
}
