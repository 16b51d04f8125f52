package parser

import (
	"github.com/goccy/go-json"

	"github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/models"
)

// Indent is the indentation used for pretty-printed output.
const Indent = "    "

// Format encodes a value tree as JSON text.
func Format(v models.JSONValue, pretty bool) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(v, "", Indent)
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return nil, errors.NewUnsupportedValueError("failed to encode value tree", err)
	}
	return out, nil
}
