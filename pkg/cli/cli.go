package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options holds the settings parsed from command line arguments.
type Options struct {
	StoryPath  string // scene directory, story URL, or a single scene file
	ConfigPath string // optional YAML config file
	StartScene string // entry scene name
	Format     string // dot, json, markdown
	Output     string // output file, - for stdout
	Strict     bool   // stop on the first syntax error
	NoAnalysis bool   // skip graph analysis passes
	LogLevel   string // debug, info, warn, error
	ShowHelp   bool
}

// ParseArgs parses command line arguments into Options.
// Flags may appear before or after the positional story path.
func ParseArgs(args []string) (*Options, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("storygraph", flag.ContinueOnError)

	opts := &Options{}

	fs.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	fs.StringVar(&opts.ConfigPath, "c", "", "path to YAML config file (shorthand)")
	fs.StringVar(&opts.StartScene, "start", "", "entry scene name")
	fs.StringVar(&opts.StartScene, "s", "", "entry scene name (shorthand)")
	fs.StringVar(&opts.Format, "format", "dot", "output format (dot, json, markdown)")
	fs.StringVar(&opts.Format, "f", "dot", "output format (shorthand)")
	fs.StringVar(&opts.Output, "output", "-", "output file, - for stdout")
	fs.StringVar(&opts.Output, "o", "-", "output file (shorthand)")
	fs.BoolVar(&opts.Strict, "strict", false, "stop on the first syntax error")
	fs.BoolVar(&opts.NoAnalysis, "no-analysis", false, "skip graph analysis passes")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&opts.ShowHelp, "help", false, "show help")
	fs.BoolVar(&opts.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment variables fill in anything the flags left at default.
	if !opts.Strict {
		if strictEnv := os.Getenv("STORYGRAPH_STRICT"); strictEnv != "" {
			if b, err := strconv.ParseBool(strictEnv); err == nil {
				opts.Strict = b
			}
		}
	}
	if opts.StartScene == "" {
		opts.StartScene = os.Getenv("STORYGRAPH_START_SCENE")
	}
	if opts.LogLevel == "info" {
		if logLevelEnv := os.Getenv("STORYGRAPH_LOG_LEVEL"); logLevelEnv != "" {
			opts.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[opts.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", opts.LogLevel)
	}

	validFormats := map[string]bool{
		"dot":      true,
		"json":     true,
		"markdown": true,
	}
	if !validFormats[opts.Format] {
		return nil, fmt.Errorf("invalid format: %s (must be dot, json, or markdown)", opts.Format)
	}

	if fs.NArg() > 0 {
		opts.StoryPath = fs.Arg(0)
	}

	return opts, nil
}

// reorderArgs moves flags ahead of positional arguments so the standard
// flag package accepts "storygraph ./scenes --format json".
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h":            true,
		"-help":         true,
		"--help":        true,
		"-strict":       true,
		"--strict":      true,
		"-no-analysis":  true,
		"--no-analysis": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// A value may follow flags like "-f json".
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if !boolFlags[arg] && !strings.Contains(arg, "=") {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the usage message to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `storygraph - interactive fiction flow graph tool

Usage:
  storygraph [options] <story-path>

Arguments:
  story-path    directory containing scene .txt files, a base URL for a
                hosted story, or a single scene file

Options:
  -s, --start <scene>       entry scene name (default: startup)
  -f, --format <format>     output format: dot, json, markdown (default: dot)
  -o, --output <file>       output file, - for stdout (default: -)
  -c, --config <file>       YAML config file
  --strict                  stop on the first syntax error
  --no-analysis             skip cycle, reachability, and variable analysis
  -l, --log-level <level>   log level: debug, info, warn, error (default: info)
  -h, --help                show this help

Environment Variables:
  STORYGRAPH_START_SCENE=<scene>  entry scene name
  STORYGRAPH_STRICT=1             stop on the first syntax error
  STORYGRAPH_LOG_LEVEL=<level>    log level

Examples:
  storygraph ./mygame/scenes                 graph a local story as DOT
  storygraph -f json -o story.json ./scenes  write the graph as JSON
  storygraph -s chapter1 ./scenes            start discovery from chapter1
  storygraph https://example.com/scenes      graph a hosted story
`)
}
