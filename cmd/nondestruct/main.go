// Copyright 2025 walteh LLC
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

package main

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/nondestruct/cmd/nondestruct/commands"
	"github.com/walteh/nondestruct/cmd/nondestruct/opts"
	"github.com/walteh/nondestruct/pkg/log"
)

func main() {
	setupLogging(false)

	o := &opts.RootOpts{Console: os.Stdout}

	rootCmd := &cobra.Command{
		Use:   "nondestruct",
		Short: "Apply file operations without ever touching the original",
		Long: `nondestruct runs an ordered pipeline of operations against files.
Every step writes a new version into a working directory next to the file,
a failing step rolls the whole file back, and only a successful run writes
the final version beside the original.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(o.Debug)
			ctx := zerolog.DefaultContextLogger.WithContext(cmd.Context())
			cmd.SetContext(log.NewContext(ctx, consoleLogger(o)))
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewApplyCmd(o),
		commands.NewOpsCmd(o),
		commands.NewTagsCmd(o),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println("nondestruct failed")
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
