// Command resumectl edits a persisted résumé history from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("resumectl", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file (.toml or .yaml)")
	envFile := flags.String("env-file", "", "dotenv file loaded before RESUME_* overrides")
	key := flags.String("key", "", "storage key (defaults to the configured key)")
	flags.Usage = usage
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		usage()
		return 2
	}
	name, cmdArgs := rest[0], rest[1:]
	if name == "help" {
		usage()
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		return 2
	}

	sess, err := openSession(ctx, sessionOptions{configPath: *configPath, envFile: *envFile, key: *key})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sess.Close()

	if err := cmd.run(sess, cmdArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var usageErr usageError
		if errors.As(err, &usageErr) {
			return 2
		}
		return 1
	}
	if err := sess.saveErr(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: resumectl [--config path] [--env-file path] [--key name] <command> [args]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, name := range commandNames() {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].usage)
	}
}
