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

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/nondestruct/cmd/nondestruct/opts"
	"github.com/walteh/nondestruct/pkg/config"
	"github.com/walteh/nondestruct/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewOpsCmd creates the ops command
func NewOpsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the operations a pipeline can use",
		Long: `Ops lists every operation name that resolves for the configured
sources, where it is defined, and whether the pipeline uses it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.LoadConfig(ctx)
			if err != nil {
				return err
			}

			return listOperations(ctx, o.Console, cfg)
		},
	}

	return cmd
}

func listOperations(ctx context.Context, w io.Writer, cfg *config.Config) error {
	rows, err := operationRows(ctx, cfg)
	if err != nil {
		return err
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return errors.Errorf("rendering operations: %w", err)
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

// operationRows returns the ops table, header first
func operationRows(ctx context.Context, cfg *config.Config) ([][]string, error) {
	reg := operation.NewDefaultRegistry()
	for _, dir := range cfg.Sources {
		if err := reg.AddSource(ctx, dir); err != nil {
			return nil, err
		}
	}

	used := make(map[string]bool)
	for _, step := range cfg.Steps {
		used[step.Name] = true
	}

	rows := [][]string{{"Operation", "Origin", "Used"}}
	for _, name := range reg.Names() {
		origin, _ := reg.Origin(name)
		mark := ""
		if used[name] {
			mark = "✓"
		}
		rows = append(rows, []string{name, origin, mark})
	}
	return rows, nil
}
