package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mcncl/typedjson/internal/config"
	"github.com/mcncl/typedjson/internal/decoder"
	"github.com/mcncl/typedjson/internal/encoder"
	"github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/formatter"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/parser"
	"github.com/mcncl/typedjson/internal/registry"
)

// CLI defines the command-line interface
var CLI struct {
	Input         string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output        string `help:"Path to output JSON file. If not specified, writes to stdout." short:"o" type:"path"`
	Config        string `help:"Path to config file. If not specified, searches for .typedjson.yml." short:"c" type:"path"`
	Pretty        bool   `help:"Indent the output."`
	OmitClass     bool   `help:"Drop class tags that do not resolve to an open type." name:"omit-class"`
	IgnoreUnknown bool   `help:"Skip object keys that match no property." name:"ignore-unknown"`
	JSONC         bool   `help:"Allow comments and trailing commas in the input." name:"jsonc"`
	Debug         bool   `help:"Enable debug logging." short:"d"`
	Verbose       bool   `help:"Log a summary of each run to stderr."`
	Version       bool   `help:"Show version information." short:"v"`
	Interactive   bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("typedjson"),
		kong.Description("Normalize typed JSON: decode class-tagged values and open type schemas, then write them back"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		// Usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("typedjson version %s\n", Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	err = run(&Context{Debug: cfg.Dev.Debug, Config: cfg, Logger: newLogger(cfg.Dev)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: typedjson --help\n")
		os.Exit(1)
	}
}

// loadConfig combines the config file, if any, with the command-line flags
func loadConfig() (*config.Config, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	flags := &config.Config{}
	flags.Output.Pretty = CLI.Pretty
	flags.Codec.OmitClass = CLI.OmitClass
	flags.Codec.IgnoreUnknownKeys = CLI.IgnoreUnknown
	flags.Input.AllowComments = CLI.JSONC
	flags.Dev.Debug = CLI.Debug
	flags.Dev.Verbose = CLI.Verbose

	cfg, err := config.LoadConfigWithCLI(configPath, flags)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to load config '%s'", configPath), err)
	}
	return cfg, nil
}

// newLogger logs to stderr at debug level when debugging, at info level
// when verbose, and not at all otherwise.
func newLogger(dev config.DevConfig) *slog.Logger {
	return newLoggerTo(os.Stderr, dev)
}

func newLoggerTo(w io.Writer, dev config.DevConfig) *slog.Logger {
	var level slog.Level
	switch {
	case dev.Debug:
		level = slog.LevelDebug
	case dev.Verbose:
		level = slog.LevelInfo
	default:
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run executes the main program logic
func run(ctx *Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := ctx.Logger
	if logger == nil {
		logger = newLogger(config.DevConfig{Debug: ctx.Debug})
	}
	registry.Default().SetLogger(logger)

	// 1. Decode the input
	opts := parser.Options{
		AllowComments: cfg.Input.AllowComments,
		Decoder: []decoder.Option{
			decoder.WithLogger(logger),
			decoder.IgnoreUnknownKeys(cfg.Codec.IgnoreUnknownKeys),
			decoder.KeepClass(cfg.Codec.KeepClass && !cfg.Codec.OmitClass),
		},
	}
	doc, err := parseInput(opts)
	if err != nil {
		return err
	}
	logger.Info("decoded input", "root", fmt.Sprintf("%T", doc.Root), "array", doc.RootIsArray)

	// 2. Encode it again
	var out strings.Builder
	enc := encoder.New(&out,
		encoder.OmitClass(cfg.Codec.OmitClass),
		encoder.WithLogger(logger),
	)
	if err := enc.Encode(doc.Root); err != nil {
		return err
	}

	// 3. Lay it out
	indent := ""
	if cfg.Output.Pretty {
		indent = cfg.Output.Indent
	}
	text, err := formatter.NewFormatter(indent).Format(out.String())
	if err != nil {
		return errors.NewOutputError("failed to format JSON", err)
	}

	return writeOutput(text)
}

// parseInput reads JSON from file or stdin
func parseInput(opts parser.Options) (models.Document, error) {
	if CLI.Input != "" {
		return parser.ParseFile(CLI.Input, opts)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput(opts)
		}
		return models.Document{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	jsonData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(jsonData) == 0 {
		return models.Document{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseString(string(jsonData), opts)
}

// writeOutput writes the result to file or stdout
func writeOutput(text string) error {
	if CLI.Output != "" {
		err := os.WriteFile(CLI.Output, []byte(text+"\n"), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	_, err := fmt.Println(text)
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput(opts parser.Options) (models.Document, error) {
	fmt.Fprintln(os.Stderr, "typedjson Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Document{}, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if len(jsonData) == 0 {
		return models.Document{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return parser.ParseString(jsonData, opts)
}
