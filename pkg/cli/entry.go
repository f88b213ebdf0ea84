// Package cli implements the genpp command line front end: argument
// handling, input reading, pipeline assembly, and exit codes.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PDLPorters/genpp/internal/cache"
	"github.com/PDLPorters/genpp/internal/config"
	"github.com/PDLPorters/genpp/internal/diagnostics"
	"github.com/PDLPorters/genpp/internal/expander"
	"github.com/PDLPorters/genpp/internal/pipeline"
	"github.com/PDLPorters/genpp/internal/typetable"
)

// Run is the process entry point. It exits the process on failure.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if handleVersion() {
		return
	}
	if handleHelp() {
		return
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Run '%s -help' for usage.\n", os.Args[0])
		os.Exit(1)
	}

	os.Exit(run(opts))
}

func handleVersion() bool {
	if len(os.Args) != 2 {
		return false
	}
	switch os.Args[1] {
	case "-v", "-version", "--version":
		fmt.Println("genpp " + config.Version)
		return true
	}
	return false
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	if os.Args[1] != "-help" && os.Args[1] != "--help" && os.Args[1] != "help" {
		return false
	}
	fmt.Printf(`Usage: %s [options] [file ...]

Expands %s(expr) ... %s blocks in the input into a switch
over the registered type tags, substituting the %q placeholder with
each concrete type. Input files are processed as one concatenated
stream, in argument order; with no files the input is read from stdin.
Output goes to stdout unless -o is given.

Options:
  -o <file>          write output to <file> instead of stdout
  -t, --types <yaml> load the type table and options from a profile file
  -D <value>         override the %s substitution value
  --cache <dir>      reuse previous results via a cache in <dir>
  -help              show this help
  -version           show the version
`, os.Args[0], config.OpenKeyword, config.CloseKeyword,
		config.PlaceholderToken, config.DefaultSubstMarker)
	return true
}

// options are the parsed command line arguments.
type options struct {
	outputPath  string
	profilePath string
	substValue  string
	cacheDir    string
	files       []string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-o":
			v, err := optionValue(args, &i, arg)
			if err != nil {
				return nil, err
			}
			opts.outputPath = v
		case "-t", "--types":
			v, err := optionValue(args, &i, arg)
			if err != nil {
				return nil, err
			}
			opts.profilePath = v
		case "-D":
			v, err := optionValue(args, &i, arg)
			if err != nil {
				return nil, err
			}
			opts.substValue = v
		case "--cache":
			v, err := optionValue(args, &i, arg)
			if err != nil {
				return nil, err
			}
			opts.cacheDir = v
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option: %s", arg)
			}
			opts.files = append(opts.files, arg)
		}
	}
	return opts, nil
}

func optionValue(args []string, i *int, name string) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("option %s requires a value", name)
	}
	*i++
	return args[*i], nil
}

func run(opts *options) int {
	profile, err := loadProfile(opts)
	if err != nil {
		// Profile errors already carry the file path in the message.
		diagnostics.Print(os.Stderr, []*diagnostics.Diagnostic{
			diagnostics.NewError(diagnostics.ErrT001, "", 0, "%s", err),
		})
		return 1
	}

	table, err := profile.Table()
	if err != nil {
		diagnostics.Print(os.Stderr, []*diagnostics.Diagnostic{
			diagnostics.NewError(diagnostics.ErrT001, "", 0, "%s", err),
		})
		return 1
	}

	sources, diag := readSources(opts.files)
	if diag != nil {
		diagnostics.Print(os.Stderr, []*diagnostics.Diagnostic{diag})
		return 1
	}

	expOpts := expander.FromProfile(profile)

	var processors []pipeline.Processor
	var store *cache.Store
	if opts.cacheDir != "" {
		store, err = cache.Open(opts.cacheDir)
		if err != nil {
			// The cache never blocks a run. Warn and expand normally.
			fmt.Fprintf(os.Stderr, "Warning: cache disabled: %s\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}
	if store != nil {
		processors = append(processors, &cache.LookupProcessor{Store: store, Table: table, Opts: expOpts})
	}
	processors = append(processors, expander.NewProcessor(table, expOpts))
	if store != nil {
		processors = append(processors, &cache.StoreProcessor{Store: store})
	}

	ctx := pipeline.New(processors...).Run(pipeline.NewContext(sources))

	if ctx.Failed() {
		fmt.Fprintln(os.Stderr, "Processing failed with errors:")
		diagnostics.Print(os.Stderr, ctx.Errors)
		return 1
	}

	if err := writeOutput(opts.outputPath, ctx.Output); err != nil {
		diagnostics.Print(os.Stderr, []*diagnostics.Diagnostic{
			diagnostics.NewError(diagnostics.ErrI001, opts.outputPath, 0, "writing output: %s", err),
		})
		return 1
	}
	return 0
}

func loadProfile(opts *options) (*typetable.Profile, error) {
	var profile *typetable.Profile
	if opts.profilePath != "" {
		p, err := typetable.LoadProfile(opts.profilePath)
		if err != nil {
			return nil, err
		}
		profile = p
	} else {
		profile = typetable.DefaultProfile()
	}
	if opts.substValue != "" {
		profile.Substitution.Value = opts.substValue
	}
	return profile, nil
}

// readSources reads all input files, or stdin when none are given, as
// line-split pipeline sources.
func readSources(files []string) ([]pipeline.Source, *diagnostics.Diagnostic) {
	if len(files) == 0 {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return nil, diagnostics.NewError(diagnostics.ErrI001, config.StdinName, 0,
				"no input files and stdin is a terminal")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, diagnostics.NewError(diagnostics.ErrI001, config.StdinName, 0,
				"reading stdin: %s", err)
		}
		return []pipeline.Source{{Name: config.StdinName, Lines: splitLines(data)}}, nil
	}

	sources := make([]pipeline.Source, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, diagnostics.NewError(diagnostics.ErrI001, path, 0, "%s", err)
		}
		sources = append(sources, pipeline.Source{Name: path, Lines: splitLines(data)})
	}
	return sources, nil
}

// splitLines splits input into lines without their terminating newline.
// A trailing newline does not create a final empty line; an empty input
// has no lines at all. Carriage returns are kept as line content.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// writeOutput writes all lines at once, newline-terminated. Buffering
// until the pipeline has succeeded keeps failed runs from leaving
// partial output behind.
func writeOutput(path string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if path == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
