package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcncl/gotoon/internal/analyzer"
	"github.com/mcncl/gotoon/internal/config"
	"github.com/mcncl/gotoon/internal/ctxlog"
	"github.com/mcncl/gotoon/internal/decoder"
	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/formatter"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/parser"
	"github.com/mcncl/gotoon/internal/stats"
	"golang.org/x/sync/errgroup"
)

// CLI defines the command-line interface
var CLI struct {
	Input        string   `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Output       string   `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Decode       bool     `help:"Decode TOON input to JSON. Implied for .toon input files." short:"D"`
	Delimiter    string   `help:"Array delimiter: comma, tab or pipe." short:"d"`
	Indent       int      `help:"Spaces per indentation level."`
	LengthMarker bool     `help:"Prefix array lengths with '#'." name:"length-marker"`
	Lenient      bool     `help:"Accept blank lines and tab indentation when decoding."`
	KeyCase      string   `help:"Rewrite JSON keys before encoding (preserve, snake, camel, lower_camel, kebab)." name:"key-case"`
	Config       string   `help:"Path to config file. Searches for .gotoon.yml when not given." short:"c" type:"path"`
	Stats        bool     `help:"Print JSON and TOON token counts to stderr." short:"s"`
	Counter      string   `help:"Token counter used by --stats." default:"heuristic" enum:"heuristic,bytes"`
	Debug        bool     `help:"Enable debug logging."`
	Verbose      bool     `help:"Log each conversion to stderr."`
	Version      bool     `help:"Show version information." short:"v"`
	Interactive  bool     `help:"Run in interactive mode, allowing direct input with Ctrl+D to process." short:"I"`
	Files        []string `arg:"" optional:"" help:"Files to convert to sibling .toon (or .json when decoding) files." type:"path"`
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("gotoon"),
		kong.Description("A tool to convert JSON to TOON (Token-Oriented Object Notation) and back"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	// Parse the command line arguments
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		os.Exit(1)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("gotoon version %s\n", Version)
		return
	}

	err := execute()
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))

		// Show help on error
		fmt.Fprintf(os.Stderr, "\nFor help, run: gotoon --help\n")

		os.Exit(1)
	}
}

// execute loads configuration and dispatches to single or batch conversion.
func execute() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New(os.Stderr, cfg.Dev.LogLevel()))

	j, err := newJob(cfg)
	if err != nil {
		return err
	}
	if len(CLI.Files) > 0 {
		return runBatch(ctx, j, CLI.Files)
	}
	j.decode = j.decode || isTOONFile(CLI.Input)
	return run(ctx, j)
}

// loadConfig merges the config file, if any, with command-line flags.
func loadConfig() (*config.Config, error) {
	path := CLI.Config
	if path == "" {
		path = config.FindConfigFile()
	}
	return config.LoadConfigWithCLI(path, config.Overrides{
		Indent:       CLI.Indent,
		Delimiter:    CLI.Delimiter,
		LengthMarker: CLI.LengthMarker,
		Lenient:      CLI.Lenient,
		KeyCase:      CLI.KeyCase,
		Debug:        CLI.Debug,
		Verbose:      CLI.Verbose,
	})
}

// job is one conversion direction with its settings.
type job struct {
	cfg    *config.Config
	decode bool
	// counter is nil unless token statistics were requested.
	counter stats.Counter
}

func newJob(cfg *config.Config) (job, error) {
	j := job{cfg: cfg, decode: CLI.Decode}
	if CLI.Stats {
		c, err := stats.Lookup(CLI.Counter)
		if err != nil {
			return job{}, errors.NewConfigError("invalid token counter", err)
		}
		j.counter = c
	}
	return j, nil
}

// result is the converted text plus optional token statistics.
type result struct {
	text    string
	savings *stats.Savings
}

// run executes the main program logic
func run(ctx context.Context, j job) error {
	var (
		res result
		err error
	)
	if j.decode {
		var text string
		if text, err = readInput(); err == nil {
			res, err = j.decodeText(ctx, text)
		}
	} else {
		var v models.Value
		if v, err = parseInput(); err == nil {
			res, err = j.encodeValue(ctx, v)
		}
	}
	if err != nil {
		return err
	}

	if err := writeOutput(res.text); err != nil {
		return err
	}
	if res.savings != nil {
		fmt.Fprintln(os.Stderr, res.savings)
	}
	return nil
}

// encodeValue renders a parsed JSON value as TOON.
func (j job) encodeValue(ctx context.Context, v models.Value) (result, error) {
	logger := ctxlog.FromContext(ctx)

	v, err := j.cfg.ApplyNaming(v)
	if err != nil {
		return result{}, err
	}
	opts, err := j.cfg.EncodeOptions()
	if err != nil {
		return result{}, err
	}

	if j.cfg.Dev.Debug {
		s := analyzer.Analyze(v)
		logger.Debug("analyzed input",
			"objects", s.Objects,
			"arrays", s.Arrays,
			"tabular", s.Tabular,
			"list", s.List,
			"primitive", s.Primitive,
			"max_depth", s.MaxDepth,
		)
	}

	start := time.Now()
	text, err := encoder.Encode(v, opts)
	if err != nil {
		return result{}, err
	}
	logger.Debug("encoded TOON",
		"delimiter", opts.Delimiter.Name(),
		"indent", opts.Indent,
		"bytes", len(text),
		"elapsed", time.Since(start),
	)

	res := result{text: text}
	if j.counter != nil {
		reference, err := formatter.Compact(v)
		if err != nil {
			return result{}, err
		}
		s := stats.Compare(reference, text, j.counter)
		res.savings = &s
	}
	return res, nil
}

// decodeText parses TOON text and renders it as JSON.
func (j job) decodeText(ctx context.Context, text string) (result, error) {
	logger := ctxlog.FromContext(ctx)

	d, err := decoder.NewDecoder(j.cfg.DecodeOptions())
	if err != nil {
		return result{}, err
	}
	start := time.Now()
	v, err := d.Decode(text)
	if err != nil {
		return result{}, err
	}
	logger.Debug("decoded TOON", "kind", v.Kind().String(), "strict", j.cfg.Decode.Strict, "elapsed", time.Since(start))

	out, err := formatter.NewFormatter(j.cfg.Output.JSONIndent).Format(v)
	if err != nil {
		return result{}, err
	}

	res := result{text: out}
	if j.counter != nil {
		reference, err := formatter.Compact(v)
		if err != nil {
			return result{}, err
		}
		s := stats.Compare(reference, text, j.counter)
		res.savings = &s
	}
	return res, nil
}

// runBatch converts every file to a sibling file concurrently. The first
// failure cancels conversions that have not started yet.
func runBatch(ctx context.Context, j job, files []string) error {
	logger := ctxlog.FromContext(ctx)

	if err := j.checkBatch(files); err != nil {
		return err
	}

	targets := make([]string, len(files))
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target, res, err := j.convertFile(gctx, path)
			if err != nil {
				logger.Error("conversion failed", "file", path, "error", err)
				return err
			}
			targets[i], results[i] = target, res
			logger.Info("converted file", "input", path, "output", target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range files {
		fmt.Fprintf(os.Stderr, "%s -> %s\n", path, targets[i])
		if results[i].savings != nil {
			fmt.Fprintln(os.Stderr, results[i].savings)
		}
	}
	return nil
}

// checkBatch rejects batches where one file's output is another file's
// input, or where two files share an output path.
func (j job) checkBatch(files []string) error {
	inputs := make(map[string]string, len(files))
	for _, path := range files {
		inputs[filepath.Clean(path)] = path
	}
	outputs := make(map[string]string, len(files))
	for _, path := range files {
		target := filepath.Clean(siblingPath(path, j.decode || isTOONFile(path)))
		if other, ok := inputs[target]; ok && other != path {
			return errors.NewInputError(
				fmt.Sprintf("'%s' would overwrite '%s', which is also being converted", path, other),
				errors.ErrInvalidFilePath,
			)
		}
		if other, ok := outputs[target]; ok {
			return errors.NewInputError(
				fmt.Sprintf("'%s' and '%s' would both write '%s'", other, path, target),
				errors.ErrInvalidFilePath,
			)
		}
		outputs[target] = path
	}
	return nil
}

// convertFile converts one file and writes the sibling output file.
func (j job) convertFile(ctx context.Context, path string) (string, result, error) {
	decode := j.decode || isTOONFile(path)
	target := siblingPath(path, decode)
	if filepath.Clean(target) == filepath.Clean(path) {
		return "", result{}, errors.NewInputError(
			fmt.Sprintf("refusing to overwrite input file '%s'", path),
			errors.ErrInvalidFilePath,
		)
	}

	var (
		res result
		err error
	)
	if decode {
		var text string
		if text, err = readFile(path); err == nil {
			res, err = j.decodeText(ctx, text)
		}
	} else {
		var v models.Value
		if v, err = parser.ParseFile(path); err == nil {
			res, err = j.encodeValue(ctx, v)
		}
	}
	if err != nil {
		return "", result{}, errors.Wrapf(err, "%s", path)
	}

	if err := os.WriteFile(target, []byte(res.text+"\n"), 0o644); err != nil {
		return "", result{}, errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", target), err)
	}
	return target, res, nil
}

// siblingPath swaps the extension of path for the output format's.
func siblingPath(path string, decode bool) string {
	ext := ".toon"
	if decode {
		ext = ".json"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func isTOONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toon")
}

// parseInput reads JSON from file or stdin
func parseInput() (models.Value, error) {
	if CLI.Input != "" {
		// Parse from file
		return parser.ParseFile(CLI.Input)
	}

	text, err := readInput()
	if err != nil {
		return models.Value{}, err
	}
	if len(text) == 0 {
		return models.Value{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return parser.ParseString(text)
}

// readInput returns raw input text from file, piped stdin or the terminal.
// Empty text is not an error here: it is a valid TOON document.
func readInput() (string, error) {
	if CLI.Input != "" {
		return readFile(CLI.Input)
	}

	// Check if stdin has data
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if CLI.Interactive {
			return readInteractiveInput()
		}
		// No data provided on stdin and not in interactive mode
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	// Read from stdin (piped input)
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	return string(data), nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewInputError(fmt.Sprintf("file '%s' not found", path), errors.ErrFileNotFound)
		}
		return "", errors.NewInputError(fmt.Sprintf("failed to read file '%s'", path), err)
	}
	return string(data), nil
}

// writeOutput writes text to file or stdout
func writeOutput(text string) error {
	if CLI.Output != "" {
		// Write to file
		err := os.WriteFile(CLI.Output, []byte(text+"\n"), 0o644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	// Write to stdout
	_, err := fmt.Println(text)
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste input
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (string, error) {
	fmt.Fprintln(os.Stderr, "GoToon Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your input below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	// Read all input until EOF (Ctrl+D)
	reader := bufio.NewReader(os.Stdin)
	var sb strings.Builder

	for {
		line, err := reader.ReadString('\n')
		sb.WriteString(line)
		if err == io.EOF {
			// End of input
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
	}

	fmt.Fprintln(os.Stderr, "\nProcessing...")
	return sb.String(), nil
}
