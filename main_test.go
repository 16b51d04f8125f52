package main

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonmap/internal/errors"
)

// resetCLI restores the package-level flags after the test and applies the
// kong defaults the test would otherwise not get.
func resetCLI(t *testing.T) {
	t.Helper()
	original := CLI
	t.Cleanup(func() { CLI = original })
	CLI = original
	CLI.Type = "Order"
	CLI.Compact = true
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runToFile runs the pipeline with output redirected to a temporary file and
// returns what was written.
func runToFile(t *testing.T) (string, error) {
	t.Helper()
	CLI.Output = filepath.Join(t.TempDir(), "out.json")

	ctx, err := newContext()
	if err != nil {
		return "", err
	}
	if err := run(ctx); err != nil {
		return "", err
	}
	out, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	return string(out), nil
}

func TestRun_OrderFileToFile(t *testing.T) {
	resetCLI(t)
	CLI.Input = "testdata/order.json"

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `{"Id":1001,"ExternID":"EXT-1001","Channel":"Web","Items":[`), out)
	assert.JSONEq(t, `{
		"Id": 1001,
		"ExternID": "EXT-1001",
		"Channel": "Web",
		"Items": [
			{"Sku": "APPLE", "Quantity": 3, "Price": 0.5},
			{"Sku": "PEAR", "Quantity": 1, "Price": 0.75},
			{"Sku": "PLUM", "Quantity": 12, "Price": 0.2}
		],
		"PrimaryItem": {"Sku": "APPLE", "Quantity": 3, "Price": 0.5}
	}`, out)
}

func TestRun_PrettyPrintByDefault(t *testing.T) {
	resetCLI(t)
	CLI.Compact = false
	CLI.Input = "testdata/items.json"
	CLI.Type = "item"
	CLI.Array = true

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "[\n    {\n        \"Sku\": \"APPLE\","), out)
}

func TestRun_ArrayMode(t *testing.T) {
	resetCLI(t)
	CLI.Input = "testdata/items.json"
	CLI.Type = "item"
	CLI.Array = true

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.Equal(t, `[{"Sku":"APPLE","Quantity":3,"Price":0.5},{"Sku":"PEAR","Quantity":1,"Price":0.75}]`+"\n", out)
}

func TestRun_SettingsFile(t *testing.T) {
	resetCLI(t)
	CLI.Compact = false
	CLI.Config = "testdata/settings.yml"
	CLI.Input = "testdata/special_order.json"
	CLI.Type = "special"

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Id": 7,
		"extern_id": 77,
		"channel": "Demo Channel",
		"items": [],
		"placed": "2024-03-05T10:30:00+00:00",
		"note": "gift wrap"
	}`, out)
	assert.NotContains(t, out, "\n    ", "pretty_print: false in the file")
}

func TestRun_FlagsOverrideSettingsFile(t *testing.T) {
	resetCLI(t)
	CLI.Config = "testdata/settings.yml"
	CLI.Input = "testdata/special_order.json"
	CLI.Type = "special"
	CLI.Naming = "none"
	CLI.SkipEmptyArray = true
	CLI.SkipInherited = true

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.JSONEq(t, `{"Placed":"2024-03-05T10:30:00+00:00","Note":"gift wrap"}`, out)
}

func TestRun_EnumFormatFlag(t *testing.T) {
	resetCLI(t)
	CLI.Input = writeTemp(t, "enums.json", `{"StatusDefault": 1, "RedValue": "Red"}`)
	CLI.Type = "enums"
	CLI.EnumFormat = "name"

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.Contains(t, out, `"StatusDefault":"Active"`)
	assert.Contains(t, out, `"RedValue":"Red"`)
	assert.Contains(t, out, `"StatusFull":{"name":"Inactive","value":0}`)
}

func TestRun_Describe(t *testing.T) {
	resetCLI(t)
	CLI.Describe = true
	CLI.Type = "order"

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Order (github.com/mcncl/jsonmap/internal/demo.Order)\n"), out)
	assert.Contains(t, out, "OrderItem (github.com/mcncl/jsonmap/internal/demo.OrderItem)")

	CLI.Type = "Nope"
	_, err = runToFile(t)
	assert.True(t, stderrors.Is(err, errors.ErrTypeNotFound))
}

func TestRun_List(t *testing.T) {
	resetCLI(t)
	CLI.List = true

	out, err := runToFile(t)
	require.NoError(t, err)

	assert.Contains(t, out, "github.com/mcncl/jsonmap/internal/demo.Order\n")
	assert.Contains(t, out, "github.com/mcncl/jsonmap/internal/demo.TypesTest\n")
}

func TestRun_Dump(t *testing.T) {
	resetCLI(t)
	CLI.Input = "testdata/items.json"
	CLI.Type = "item"
	CLI.Array = true
	CLI.Dump = true

	originalStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = originalStderr })

	_, runErr := runToFile(t)
	require.NoError(t, w.Close())
	os.Stderr = originalStderr
	dumped, err := io.ReadAll(r)
	require.NoError(t, err)

	require.NoError(t, runErr)
	assert.Contains(t, string(dumped), "(*demo.OrderItem)")
	assert.Contains(t, string(dumped), `SKU: (string) (len=5) "APPLE"`)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		typeName string
		array    bool
		err      error
		field    string
		friendly string
	}{
		{
			name:     "bad date",
			input:    `{"DateTimeProperty": "not-a-date"}`,
			typeName: "types",
			err:      errors.ErrInvalidDateTime,
			field:    "DateTimeProperty",
			friendly: "Data error: ",
		},
		{
			name:     "unknown type",
			input:    `{}`,
			typeName: "Nope",
			err:      errors.ErrTypeNotFound,
			friendly: "Type error: ",
		},
		{
			name:     "array without --array",
			input:    `[{}]`,
			typeName: "Order",
			err:      errors.ErrMalformedInput,
			friendly: "JSON parsing error: ",
		},
		{
			name:     "object with --array",
			input:    `{}`,
			typeName: "Order",
			array:    true,
			err:      errors.ErrMalformedInput,
		},
		{
			name:     "scalar array item",
			input:    `[{}, 2]`,
			typeName: "item",
			array:    true,
			err:      errors.ErrNonObjectItem,
			field:    "[1]",
		},
		{
			name:     "nested field path",
			input:    `[{"Items": [{"Sku": "a"}, {"Quantity": "many"}]}]`,
			typeName: "order",
			array:    true,
			err:      errors.ErrTypeMismatch,
			field:    "[0].Items[1].Quantity",
		},
		{
			name:     "invalid json",
			input:    `{"Id": }`,
			typeName: "Order",
			err:      errors.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCLI(t)
			CLI.Input = writeTemp(t, "input.json", tt.input)
			CLI.Type = tt.typeName
			CLI.Array = tt.array

			_, err := runToFile(t)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.err), "got %v", err)
			assert.Equal(t, tt.field, errors.FieldOf(err))
			if tt.friendly != "" {
				assert.True(t, strings.HasPrefix(errors.UserFriendlyError(err), tt.friendly), errors.UserFriendlyError(err))
			}
		})
	}
}

func TestNewContext_InvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{name: "unknown naming policy", setup: func() { CLI.Naming = "shouty" }},
		{name: "unknown enum format", setup: func() { CLI.EnumFormat = "ordinal" }},
		{name: "missing settings file", setup: func() { CLI.Config = "/non/existent/settings.yml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCLI(t)
			tt.setup()

			_, err := newContext()
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(errors.UserFriendlyError(err), "Input error: "))
		})
	}
}

func TestNewContext_Debug(t *testing.T) {
	resetCLI(t)
	CLI.Debug = true

	ctx, err := newContext()
	require.NoError(t, err)
	assert.True(t, ctx.Debug)
	assert.NotNil(t, ctx.Logger)
	assert.False(t, ctx.Settings.PrettyPrint)
}

func TestParseInput_FromFile(t *testing.T) {
	resetCLI(t)
	CLI.Input = "testdata/order.json"

	ir, err := parseInput()
	require.NoError(t, err)
	assert.NotNil(t, ir.Root)
	assert.False(t, ir.RootIsArray)
}

func TestParseInput_FromStdin(t *testing.T) {
	resetCLI(t)
	originalStdin := os.Stdin
	t.Cleanup(func() { os.Stdin = originalStdin })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(`[{"Sku": "apple"}, {"Sku": "banana"}]`)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	os.Stdin = r

	ir, err := parseInput()
	require.NoError(t, err)
	assert.True(t, ir.RootIsArray)
}

func TestParseInput_EmptyFile(t *testing.T) {
	resetCLI(t)
	CLI.Input = writeTemp(t, "empty.json", "")

	_, err := parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))
}

func TestParseInput_InvalidJSON(t *testing.T) {
	resetCLI(t)
	CLI.Input = writeTemp(t, "invalid.json", `{"Id": 1,}`)

	_, err := parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMalformedInput))
}

func TestParseInput_NonExistentFile(t *testing.T) {
	resetCLI(t)
	CLI.Input = "/non/existent/file.json"

	_, err := parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
}

func TestWriteOutput_ToFile(t *testing.T) {
	resetCLI(t)
	CLI.Output = filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, writeOutput([]byte(`{"a":1}`)))

	content, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(content))
}

func TestWriteOutput_FileError(t *testing.T) {
	resetCLI(t)
	CLI.Output = "/non/existent/dir/output.json"

	err := writeOutput([]byte("{}"))
	require.Error(t, err)
	assert.Contains(t, errors.UserFriendlyError(err), "Output error")
}

func TestReadInteractiveInput(t *testing.T) {
	resetCLI(t)
	originalStdin := os.Stdin
	originalStderr := os.Stderr
	t.Cleanup(func() {
		os.Stdin = originalStdin
		os.Stderr = originalStderr
	})

	devNull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { _ = devNull.Close() })
	sink, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	os.Stderr = sink

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("{\"Id\": 5,\n\"Channel\": \"Phone\"}")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	os.Stdin = r

	ir, err := readInteractiveInput()
	require.NoError(t, err)
	assert.False(t, ir.RootIsArray)

	os.Stdin = devNull
	_, err = readInteractiveInput()
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}
