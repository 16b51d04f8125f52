package parser

import (
	stderrors "errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/models"
)

// object builds a JSONObject from alternating keys and values.
func object(kv ...interface{}) *models.JSONObject {
	obj := models.NewObject(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		obj.Set(kv[i].(string), kv[i+1])
	}
	return obj
}

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	ir, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if ir.RootIsArray {
		t.Errorf("Parse() ir.RootIsArray = true, want false for an object")
	}

	// Keys come out sorted.
	expectedRoot := object(
		"age", json.Number("30"),
		"city", nil,
		"isStudent", false,
		"name", "John Doe",
	)

	actualRoot, ok := ir.Root.(*models.JSONObject)
	if !ok {
		t.Fatalf("Parse() root is not a *models.JSONObject, got %T", ir.Root)
	}
	if !reflect.DeepEqual(actualRoot, expectedRoot) {
		t.Errorf("Parse() root = %v, want %v", actualRoot.Keys(), expectedRoot.Keys())
	}
	if !actualRoot.Has("city") {
		t.Errorf("Parse() dropped the null-valued key")
	}
}

func TestParse_SimpleArray(t *testing.T) {
	jsonStr := `[1, "test", true, null, 3.14]`
	ir, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if !ir.RootIsArray {
		t.Errorf("Parse() ir.RootIsArray = false, want true for an array")
	}

	expectedRoot := models.JSONArray{json.Number("1"), "test", true, nil, json.Number("3.14")}
	if !reflect.DeepEqual(ir.Root, expectedRoot) {
		t.Errorf("Parse() root = %#v, want %#v", ir.Root, expectedRoot)
	}
}

func TestParse_NestedObject(t *testing.T) {
	jsonStr := `{"order": {"id": 7, "items": [{"sku": "A-1"}, {"sku": "B-2"}]}}`
	ir, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	expectedRoot := object(
		"order", object(
			"id", json.Number("7"),
			"items", models.JSONArray{
				object("sku", "A-1"),
				object("sku", "B-2"),
			},
		),
	)

	if !reflect.DeepEqual(ir.Root, expectedRoot) {
		t.Errorf("Parse() nested root does not match the expected tree")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	if err == nil {
		t.Fatalf("Parse() with empty reader, err = nil, want error")
	}
	if !strings.Contains(err.Error(), "input is empty") {
		t.Errorf("Parse() with empty reader, err = %v, want error containing 'input is empty'", err)
	}
	if !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Errorf("Parse() with empty reader, err = %v, want it to wrap ErrEmptyInput", err)
	}
}

func TestParseString_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   "} {
		_, err := ParseString(input)
		if err == nil {
			t.Errorf("ParseString(%q) err = nil, want error", input)
		} else if !strings.Contains(err.Error(), "input string is empty or consists only of whitespace") {
			t.Errorf("ParseString(%q) err = %v, want error containing 'input string is empty or consists only of whitespace'", input, err)
		}
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	inputs := []string{
		`{"name": "John Doe", "age": 30`, // Missing closing brace
		`["item1", "item2",`,             // Missing closing bracket
		`{"name" "John"}`,                // Missing colon
		`{invalid}`,
	}

	for _, input := range inputs {
		_, err := ParseString(input)
		if err == nil {
			t.Errorf("ParseString(%q) err = nil, want error", input)
			continue
		}
		if !stderrors.Is(err, errors.ErrMalformedInput) {
			t.Errorf("ParseString(%q) err = %v, want a malformed-input error", input, err)
		}
	}
}

func TestParse_MultipleValues(t *testing.T) {
	_, err := ParseString(`{"a": 1} {"b": 2}`)
	if err == nil {
		t.Fatalf("ParseString() with two root values, err = nil, want error")
	}
	if !stderrors.Is(err, errors.ErrMultipleJSON) {
		t.Errorf("ParseString() err = %v, want it to wrap ErrMultipleJSON", err)
	}
}

func TestParse_TrailingWhitespace(t *testing.T) {
	if _, err := ParseString("{\"a\": 1}\n\n  "); err != nil {
		t.Errorf("ParseString() with trailing whitespace, err = %v, want nil", err)
	}
}

func TestParseFile_SimpleObject(t *testing.T) {
	content := `{"product": "Laptop", "price": 1200.50}`
	tmpfile, err := os.CreateTemp("", "test_simple_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	ir, err := ParseFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ParseFile() error = %v, wantErr nil", err)
	}

	expectedRoot := object(
		"price", json.Number("1200.50"),
		"product", "Laptop",
	)
	if !reflect.DeepEqual(ir.Root, expectedRoot) {
		t.Errorf("ParseFile() root does not match the expected tree")
	}
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := ParseFile("nonexistentfile.json")
	if err == nil {
		t.Fatalf("ParseFile() with non-existent file, err = nil, want error")
	}
	if !stderrors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("ParseFile() with non-existent file, err = %v, want it to wrap ErrFileNotFound", err)
	}
}

func TestParseFile_EmptyPath(t *testing.T) {
	_, err := ParseFile("")
	if err == nil {
		t.Errorf("ParseFile() with empty path, err = nil, want error")
	} else if !strings.Contains(err.Error(), "file path is empty") {
		t.Errorf("ParseFile() with empty path, err = %v, want error containing 'file path is empty'", err)
	}
}

func TestParseFile_EmptyFileContent(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_empty_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	_, err = ParseFile(tmpfile.Name())
	if err == nil {
		t.Errorf("ParseFile() with empty file content, err = nil, want error")
	} else if !stderrors.Is(err, errors.ErrFileEmpty) {
		t.Errorf("ParseFile() with empty file content, err = %v, want it to wrap ErrFileEmpty", err)
	}
}

func TestParse_RootPrimitives(t *testing.T) {
	testCases := []struct {
		name        string
		jsonStr     string
		expectedVal interface{}
	}{
		{"RootString", `"hello world"`, "hello world"},
		{"RootNumber", `123.45`, json.Number("123.45")},
		{"RootBooleanTrue", `true`, true},
		{"RootBooleanFalse", `false`, false},
		{"RootNull", `null`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ir, err := Parse(strings.NewReader(tc.jsonStr))
			if err != nil {
				t.Fatalf("Parse() error = %v, wantErr nil for %s", err, tc.name)
			}
			if ir.RootIsArray {
				t.Errorf("Parse() ir.RootIsArray = true, want false for %s", tc.name)
			}
			if !reflect.DeepEqual(ir.Root, tc.expectedVal) {
				t.Errorf("Parse() root = %#v (type %T), want %#v (type %T)", ir.Root, ir.Root, tc.expectedVal, tc.expectedVal)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tree := object(
		"Id", 1,
		"Items", models.JSONArray{object("Sku", "A-1")},
		"Note", nil,
	)

	compact, err := Format(tree, false)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got, want := string(compact), `{"Id":1,"Items":[{"Sku":"A-1"}],"Note":null}`; got != want {
		t.Errorf("Format() = %s, want %s", got, want)
	}

	pretty, err := Format(tree, true)
	if err != nil {
		t.Fatalf("Format() pretty error = %v", err)
	}
	if !strings.Contains(string(pretty), "\n    \"Id\": 1") {
		t.Errorf("Format() pretty output is not indented with four spaces:\n%s", pretty)
	}

	if _, err := Format(make(chan int), false); !stderrors.Is(err, errors.ErrUnsupportedValue) {
		t.Errorf("Format(chan) err = %v, want unsupported-value", err)
	}
}
