// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/mapfs"
)

const (
	exitCodeFailure = 1
	exitCodeUsage   = 2
)

// IO provides input and output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func newFlagsFromArgs(args []string, cfg IO) (*flags, error) {
	flags := newFlags(cfg.Stderr)

	err := flags.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	config, err := LoadConfig(os.DirFS("."), flags.configFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	flags.applyConfig(config)

	return flags, nil
}

func newFS(flags *flags, logger *slog.Logger) (*mapfs.FS, error) {
	password := flags.password
	if password == "" {
		password = EnvPassword()
	}

	opts := []mapfs.Option{
		mapfs.WithLogger(logger),
		mapfs.WithPasswordFunc(flags.config.PasswordFunc(password)),
	}

	if flags.noMmap {
		opts = append(opts, mapfs.WithoutMmap())
	}

	fsys, err := mapfs.New(flags.dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", flags.dir, err)
	}

	return fsys, nil
}

func run(ctx context.Context, flags *flags, cfg IO, logger *slog.Logger) error {
	fsys, err := newFS(flags, logger)
	if err != nil {
		return err
	}
	defer fsys.Close()

	command := commands[flags.command]
	printHeader := flags.command == "ls" && len(flags.paths) > 1

	var errs []error

	for idx, path := range flags.paths {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck
		}

		if printHeader {
			if idx > 0 {
				fmt.Fprintln(cfg.Stdout)
			}

			fmt.Fprintf(cfg.Stdout, "%s:\n", path)
		}

		err := command(fsys, path, cfg.Stdout)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func handleParseArgsError(err error, stderr io.Writer) int {
	// [ErrHelp] is returned when help or version is requested. So exit
	// without error in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit with an error.
	if !errors.Is(err, &ParseArgsError{}) {
		printError(stderr, err)
	}

	return exitCodeUsage
}

func handleRunError(err error, stderr io.Writer) int {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, err := range joined.Unwrap() {
			printError(stderr, err)
		}
	} else {
		printError(stderr, err)
	}

	return exitCodeFailure
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error [%s]: %v\n", name, err)
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	flags, err := newFlagsFromArgs(args, cfg)
	if err != nil {
		return handleParseArgsError(err, cfg.Stderr)
	}

	logger := newLogger(cfg.Stderr, flags.debug)

	err = run(ctx, flags, cfg, logger)
	if err != nil {
		return handleRunError(err, cfg.Stderr)
	}

	return 0
}
