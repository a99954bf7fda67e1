// Command loopian is the CLI entrypoint wiring the tick generator, text
// compiler, elapse scheduler, MIDI sink, config loader, and live display
// together.
//
// Flags are parsed by hand (parseArgs/printUsage) with a simple subcommand
// switch and fmt.Printf+os.Exit(1) error reporting rather than a
// flag-package/cobra dependency.
package main

import (
	"fmt"
	"os"
	"strings"
)

var configPath string
var outPath string
var noUI bool

func main() {
	args := parseArgs(os.Args[1:])
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "play":
		if err := runPlay(configPath, noUI); err != nil {
			fmt.Fprintf(os.Stderr, "play: %v\n", err)
			os.Exit(1)
		}
	case "render":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: render requires a command-script file")
			printUsage()
			os.Exit(1)
		}
		out := outPath
		if out == "" {
			out = "out.mid"
		}
		if err := runRender(args[1], out, configPath); err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

// parseArgs extracts flags and returns the remaining positional args,
// mirroring main.go's --soundfont handling.
func parseArgs(args []string) []string {
	var remaining []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			} else {
				fmt.Fprintln(os.Stderr, "Error: --config requires a path")
				os.Exit(1)
			}
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--out" || arg == "-o":
			if i+1 < len(args) {
				outPath = args[i+1]
				i++
			} else {
				fmt.Fprintln(os.Stderr, "Error: --out requires a path")
				os.Exit(1)
			}
		case strings.HasPrefix(arg, "--out="):
			outPath = strings.TrimPrefix(arg, "--out=")
		case arg == "--no-ui":
			noUI = true
		case arg == "--help" || arg == "-h":
			printUsage()
			os.Exit(0)
		default:
			remaining = append(remaining, arg)
		}
	}
	if configPath == "" {
		configPath = os.Getenv("LOOPIAN_CONFIG")
	}
	return remaining
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  loopian play [--config path] [--no-ui]")
	fmt.Println("  loopian render <script> [--out out.mid] [--config path]")
}
