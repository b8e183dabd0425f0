// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"slices"

	"github.com/spf13/pflag"
)

const (
	name = "mapfs"

	usageMessage = `Usage of 'mapfs':
    mapfs [flags...] command [path...]

Commands:
    ls      list directories and containers
    cat     print regular files
    stat    print file details and the BLAKE3 hash of the content

Paths may point into containers, like:
    mapfs -C assets cat pack.zip/models/tree.tar.gz/tree.obj

All flags but --config can also be set in the config file ./.mapfs.yaml:
    dir: assets
    no_mmap: false
    debug: false
    passwords:
      "*.zip": secret
      "private/*.age": ${SECRET}

The password for all containers can also be set via environment variable
MAPFS_PASSWORD.

Flags:
`
)

var commandNames = []string{"ls", "cat", "stat"}

type flags struct {
	dir        string
	password   string
	configFile string
	noMmap     bool
	debug      bool
	version    bool

	command string
	paths   []string

	config  *Config
	flagSet *pflag.FlagSet
}

func newFlags(output io.Writer) *flags {
	flags := &flags{
		dir:        ".",
		configFile: localConfigFile,
		config:     &Config{},
	}

	flags.initFlagset(output)

	return flags
}

func (f *flags) initFlagset(output io.Writer) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	fs.Usage = func() {
		fmt.Fprint(output, usageMessage)
		fs.PrintDefaults()
	}

	fs.StringVarP(
		&f.dir,
		"dir",
		"C",
		f.dir,
		"root directory paths are relative to",
	)

	fs.StringVarP(
		&f.password,
		"password",
		"p",
		f.password,
		"password for all encrypted containers",
	)

	fs.StringVar(
		&f.configFile,
		"config",
		f.configFile,
		"config file to read, if present",
	)

	fs.BoolVar(
		&f.noMmap,
		"no-mmap",
		f.noMmap,
		"read files into memory instead of mapping them",
	)

	fs.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	fs.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = fs
}

// fail fails like pflag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(f.flagSet.Output(), "%s: %s\n", name, buildInfo.Main.Version)

	return nil
}

// ParseArgs parses the given arguments. With help or version requested, it
// returns an error wrapping [ErrHelp].
func (f *flags) ParseArgs(args []string) error {
	err := f.flagSet.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return &ParseArgsError{msg: "help requested", err: ErrHelp}
		}

		return f.fail("flag parse", err)
	}

	// With version flag, just print the version and exit.
	if f.version {
		err := f.printVersionInformation()
		if err != nil {
			return err
		}

		return &ParseArgsError{msg: "version requested", err: ErrHelp}
	}

	positionalArgs := f.flagSet.Args()
	if len(positionalArgs) < 1 {
		return f.fail("no command given", nil)
	}

	f.command = positionalArgs[0]
	f.paths = positionalArgs[1:]

	if !slices.Contains(commandNames, f.command) {
		return f.fail("unknown command "+f.command, nil)
	}

	if len(f.paths) == 0 {
		if f.command != "ls" {
			return f.fail("no path given", nil)
		}

		f.paths = []string{"."}
	}

	return nil
}

// applyConfig sets values of the config for all flags that are not set on
// the command line.
func (f *flags) applyConfig(cfg *Config) {
	if !f.flagSet.Changed("dir") && cfg.Dir != "" {
		f.dir = cfg.Dir
	}

	if !f.flagSet.Changed("no-mmap") {
		f.noMmap = f.noMmap || cfg.NoMmap
	}

	if !f.flagSet.Changed("debug") {
		f.debug = f.debug || cfg.Debug
	}

	f.config = cfg
}
