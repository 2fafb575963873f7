// Copyright 2025 The fusetranslator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is the fusetranslatord CLI, grounded on the teacher's own
// cmd/root.go + cmd/flags.go: a cobra root command carrying the
// persistent flag set cfg.BindFlags registers, decoded via viper once
// per invocation, with a single mount subcommand.
package cmd

import (
	"fmt"
	"os"

	"github.com/fspgo/fusetranslator/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the fusetranslatord root command.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "fusetranslatord",
		Short:         "Translates a POSIX-style wire protocol into native filesystem requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cfg.BindFlags(root.PersistentFlags())
	if err := v.BindPFlags(root.PersistentFlags()); err != nil {
		// BindPFlags only fails on a programmer error (nil flag set), not
		// on anything a user can trigger from the command line.
		panic(fmt.Sprintf("cmd: binding persistent flags: %v", err))
	}
	v.SetEnvPrefix("FUSETRANSLATOR")
	v.AutomaticEnv()

	root.AddCommand(newMountCommand(v))
	return root
}

// Execute runs the CLI, matching the teacher's own main.go entry point.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
