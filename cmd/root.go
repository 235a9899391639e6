// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd implements the symtab command line.
package cmd

import (
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:           path.Base(os.Args[0]),
	Short:         "Concurrent string interning",
	Long:          "Intern text into named pools and inspect their identifier tables.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newViper returns a viper instance bound to the command flags. Every flag
// can also be set with a SYMTAB_ prefixed environment variable, e.g.
// SYMTAB_LOG_LEVEL=debug.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("symtab")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}
