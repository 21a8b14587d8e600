// Package main implements the synthgen command, which runs a corpus of text
// through a remote generation service exactly once per distinct item,
// caching every result durably so interrupted or repeated runs only pay for
// work not yet done.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: synthgen [--config file] <command> [flags]

Commands:
  run      process a corpus file and write the result file
  id       print the identifier of a payload
  serve    start the read-only cache inspection API
  migrate  apply or inspect the postgres cache schema
  token    issue a bearer token for the inspection API
`

// errUsage signals a command line error that has already been reported.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "synthgen: %v\n", err)
		}
		os.Exit(1)
	}
}

// execute parses global flags and dispatches to the named command.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("synthgen", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "path to a config file (default: ./config.yaml when present)")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	env := &cliEnv{configPath: *configPath, stdin: stdin, stdout: stdout, stderr: stderr}

	switch cmd {
	case "run":
		return runCommand(ctx, env, cmdArgs)
	case "id":
		return idCommand(env, cmdArgs)
	case "serve":
		return serveCommand(ctx, env, cmdArgs)
	case "migrate":
		return migrateCommand(ctx, env, cmdArgs)
	case "token":
		return tokenCommand(ctx, env, cmdArgs)
	case "help":
		global.Usage()
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return errUsage
	}
}

// cliEnv carries what every command needs from the process.
type cliEnv struct {
	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// newFlagSet creates a flag set for a subcommand that reports errors to stderr.
func (e *cliEnv) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("synthgen "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parseFlags parses a subcommand's flags, mapping parse failures to errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
