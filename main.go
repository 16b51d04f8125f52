package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/mcncl/jsonmap/internal/config"
	"github.com/mcncl/jsonmap/internal/demo"
	"github.com/mcncl/jsonmap/internal/errors"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
	"github.com/mcncl/jsonmap/internal/parser"
	"github.com/mcncl/jsonmap/pkg/jsonmap"
)

// CLI defines the command-line interface
var CLI struct {
	Input            string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output           string `help:"Path to output JSON file. If not specified, writes to stdout." short:"o" type:"path"`
	Type             string `help:"Registered type the input is decoded into." short:"t" default:"Order"`
	Array            bool   `help:"Decode a JSON array of --type values." short:"a"`
	Config           string `help:"Path to a YAML settings file. Defaults to the nearest .jsonmap.yml." short:"c" type:"path"`
	Naming           string `help:"Naming policy (${naming_policies})." short:"n"`
	EnumFormat       string `help:"Enum format: value, name or full."`
	SkipNull         bool   `help:"Omit null fields from the output."`
	SkipEmptyArray   bool   `help:"Omit empty arrays from the output."`
	IncludeProtected bool   `help:"Read and write unexported fields."`
	SkipInherited    bool   `help:"Omit fields promoted from embedded structs."`
	Compact          bool   `help:"Write compact JSON instead of pretty-printing."`
	Dump             bool   `help:"Dump the decoded values to stderr."`
	Describe         bool   `help:"Print the resolved field plan of --type and exit."`
	List             bool   `help:"List the registered types and exit."`
	Debug            bool   `help:"Enable debug logging." short:"d"`
	Version          bool   `help:"Show version information." short:"v"`
	Interactive      bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug    bool
	Logger   *zap.Logger
	Settings config.Settings
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("jsonmap"),
		kong.Description("Decode JSON into registered Go types and encode it back"),
		kong.UsageOnError(),
		kong.Vars{"naming_policies": strings.Join(naming.Names(), ", ")},
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonmap version %s\n", Version)
		return
	}

	ctx, err := newContext()
	if err == nil {
		defer func() { _ = ctx.Logger.Sync() }()
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonmap --help\n")
		os.Exit(1)
	}
}

// newContext builds the logger and settings from the command line.
func newContext() (*Context, error) {
	logger := zap.NewNop()
	if CLI.Debug {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, errors.NewInputError("failed to create logger", err)
		}
		logger = dev
	}

	path := CLI.Config
	if path == "" {
		path = config.FindSettingsFile()
	}
	settings, err := config.LoadSettingsWithOverrides(path, config.Overrides{
		Naming:              CLI.Naming,
		EnumFormat:          CLI.EnumFormat,
		IncludeProtected:    CLI.IncludeProtected,
		SkipInheritedFields: CLI.SkipInherited,
		SkipNull:            CLI.SkipNull,
		SkipEmptyArray:      CLI.SkipEmptyArray,
		Compact:             CLI.Compact,
	})
	if err != nil {
		return nil, errors.NewInputError("failed to load settings", err)
	}
	if path != "" {
		logger.Debug("loaded settings", zap.String("path", path))
	}

	return &Context{Debug: CLI.Debug, Logger: logger, Settings: settings}, nil
}

// run executes the main program logic
func run(ctx *Context) error {
	mapper, err := jsonmap.New(
		jsonmap.WithSettings(ctx.Settings),
		jsonmap.WithRegistry(demo.Registry()),
		jsonmap.WithLogger(ctx.Logger),
	)
	if err != nil {
		return errors.NewInputError("invalid settings", err)
	}

	if CLI.List {
		return writeOutput([]byte(strings.Join(mapper.Registry().Names(), "\n")))
	}
	if CLI.Describe {
		return describeType(mapper)
	}

	// 1. Parse JSON input
	ir, err := parseInput()
	if err != nil {
		return err
	}

	// 2. Decode into the registered type
	value, err := decode(mapper, ir)
	if err != nil {
		return err
	}

	if CLI.Dump {
		spew.Fdump(os.Stderr, value)
	}

	// 3. Encode with the active settings
	out, err := mapper.Serialize(value)
	if err != nil {
		return err
	}

	return writeOutput(out)
}

// decode fills new instances of CLI.Type from the parsed input.
func decode(mapper *jsonmap.Mapper, ir models.IntermediateRepresentation) (any, error) {
	if !CLI.Array {
		if ir.RootIsArray {
			return nil, errors.NewMalformedInputError("expected a JSON object, got an array (use --array)", nil)
		}
		return newInstance(mapper, ir.Root)
	}

	items, ok := ir.Root.(models.JSONArray)
	if !ok {
		return nil, errors.NewMalformedInputError("expected a JSON array with --array", nil)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		v, err := newInstance(mapper, item)
		if err != nil {
			return nil, errors.WithFieldPrefix(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, v)
	}
	return out, nil
}

func newInstance(mapper *jsonmap.Mapper, tree models.JSONValue) (any, error) {
	if _, ok := tree.(*models.JSONObject); !ok {
		return nil, errors.NewNonObjectItemError("", "expected a JSON object")
	}
	ptr, err := mapper.Registry().Create(CLI.Type, "")
	if err != nil {
		return nil, err
	}
	if err := mapper.DeserializeTree(tree, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

func describeType(mapper *jsonmap.Mapper) error {
	t, ok := mapper.Registry().Lookup(CLI.Type, "")
	if !ok {
		return errors.NewTypeNotFoundError(fmt.Sprintf("type %q is not registered", CLI.Type))
	}
	plan, err := mapper.Describe(t)
	if err != nil {
		return err
	}
	return writeOutput([]byte(plan))
}

// parseInput reads JSON from file or stdin
func parseInput() (models.IntermediateRepresentation, error) {
	if CLI.Input != "" {
		return parser.ParseFile(CLI.Input)
	}

	// Check if stdin has data
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return models.IntermediateRepresentation{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	jsonData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(jsonData) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseBytes(jsonData)
}

// writeOutput writes data to file or stdout
func writeOutput(data []byte) error {
	if CLI.Output != "" {
		err := os.WriteFile(CLI.Output, append(data, '\n'), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	_, err := fmt.Println(strings.TrimSpace(string(data)))
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (models.IntermediateRepresentation, error) {
	fmt.Fprintln(os.Stderr, "jsonmap Interactive Mode")
	fmt.Fprintf(os.Stderr, "Paste a %s as JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:\n", CLI.Type)

	reader := bufio.NewReader(os.Stdin)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.IntermediateRepresentation{}, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if len(jsonData) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return parser.ParseString(jsonData)
}
