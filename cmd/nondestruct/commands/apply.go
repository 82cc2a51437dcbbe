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
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/nondestruct/cmd/nondestruct/opts"
	"github.com/walteh/nondestruct/pkg/config"
	"github.com/walteh/nondestruct/pkg/history"
	"github.com/walteh/nondestruct/pkg/log"
	"github.com/walteh/nondestruct/pkg/operation"
	"github.com/walteh/nondestruct/pkg/pipeline"
	"github.com/walteh/nondestruct/pkg/status"
	"github.com/walteh/nondestruct/pkg/version"
	"gitlab.com/tozd/go/errors"
)

type applyFlags struct {
	overwrite bool
	keep      bool
	audit     bool
}

// NewApplyCmd creates the apply command
func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	var flags applyFlags

	cmd := &cobra.Command{
		Use:   "apply [files...]",
		Short: "Run the pipeline against every input file",
		Long: `Apply runs the configured steps against each input file.
It will:
1. Expand the configured input globs (plus any files given as arguments)
2. Run every step in order against each file, files in parallel
3. Roll back any file whose pipeline fails
4. Write the last version of every other file next to its original
5. Print a summary and exit non-zero if any file failed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.LoadConfig(ctx)
			if err != nil {
				return err
			}

			report, err := runApply(ctx, cfg, args, flags)
			if err != nil {
				return err
			}

			if err := report.Render(o.Console); err != nil {
				return errors.Errorf("rendering summary: %w", err)
			}

			if report.HasFailures() {
				counts := report.Counts()
				return errors.Errorf("%d of %d files failed", counts[status.StatusRolledBack]+counts[status.StatusFailed], len(report.List()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "replace the original instead of writing a suffixed copy")
	cmd.Flags().BoolVar(&flags.keep, "keep", false, "leave versions in the working directory instead of finalizing")
	cmd.Flags().BoolVar(&flags.audit, "audit", false, "print every logged entry of every step")

	return cmd
}

// runApply does the work of apply and returns the per-file report. Per-file
// failures are in the report; the error is for failures before any file ran.
func runApply(ctx context.Context, cfg *config.Config, args []string, flags applyFlags) (*status.Report, error) {
	logger := log.FromContext(ctx)

	inputs, err := expandInputs(ctx, cfg.Inputs, args)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input files matched")
	}

	var fileOpts []version.Option
	if cfg.Suffix != "" {
		fileOpts = append(fileOpts, version.WithSuffix(cfg.Suffix))
	}

	files := make([]*version.File, 0, len(inputs))
	for _, in := range inputs {
		f, err := version.New(in, fileOpts...)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if err := checkWorkDirs(files); err != nil {
		return nil, err
	}

	p, err := pipeline.FromConfig(ctx, cfg, operation.NewDefaultRegistry())
	if err != nil {
		return nil, errors.Errorf("building pipeline: %w", err)
	}

	overwrite := cfg.Overwrite || flags.overwrite
	keep := cfg.KeepVersions || flags.keep

	logger.Header(fmt.Sprintf("applying %d steps to %d files", len(p.Operations()), len(files)))

	report := status.New(nil)
	report.StartOperation(ctx, len(files))

	// reporting and finalize run in input order once every file is done
	for _, outcome := range p.BatchApply(ctx, files) {
		report.Track(ctx, settle(ctx, logger, outcome, overwrite, keep, flags.audit))
		report.UpdateProgress(ctx, 1)
	}

	report.FinishOperation(ctx)
	logger.LogNewline()

	return report, nil
}

// settle reports one outcome and finalizes the file when it succeeded.
func settle(ctx context.Context, logger *log.Logger, outcome pipeline.Outcome, overwrite, keep, audit bool) status.FileInfo {
	f := outcome.File
	info := status.FileInfo{
		Original: f.Original(),
		WorkDir:  f.WorkDir(),
		Versions: len(f.Versions()),
	}

	logger.StartFile(ctx, log.FileReport{Original: f.Original(), WorkDir: f.WorkDir()})
	defer logger.EndFile(ctx)

	if outcome.Err != nil {
		logger.LogEvent(ctx, log.VersionEvent{Path: f.Original(), Kind: log.EventRolledBack})
		logger.Error(outcome.Err.Error())
		info.Status = status.StatusRolledBack
		info.Err = outcome.Err
		return info
	}

	logger.LogHistory(ctx, f.Original(), f.History())
	if audit {
		printAudit(logger, f.History().Log())
	}

	if keep {
		info.Status = status.StatusKept
		return info
	}

	written, err := f.Finalize(ctx, overwrite)
	if err != nil {
		logger.Errorf("finalizing %s: %v", filepath.Base(info.Original), err)
		info.Status = status.StatusFailed
		info.Err = err
		return info
	}

	logger.LogEvent(ctx, log.VersionEvent{Path: written, Kind: log.EventFinalized})
	info.Written = written
	info.Status = status.StatusFinalized
	return info
}

func printAudit(logger *log.Logger, traces []history.Trace) {
	for _, tr := range traces {
		state := "ok"
		if !tr.Success {
			state = "failed"
		}
		logger.Infof("%s %s [%s]", filepath.Base(tr.Version), tr.Name, state)
		for _, e := range tr.Entries {
			logger.Infof("  %s", e.String())
		}
	}
}

// checkWorkDirs rejects inputs that would share a working directory, such as
// a.txt and a.md next to each other.
func checkWorkDirs(files []*version.File) error {
	owners := make(map[string]string, len(files))
	for _, f := range files {
		if other, ok := owners[f.WorkDir()]; ok {
			return errors.Errorf("inputs %s and %s share working directory %s", other, f.Original(), f.WorkDir())
		}
		owners[f.WorkDir()] = f.Original()
	}
	return nil
}

// 🔍 expandInputs resolves every pattern to regular files, sorted and
// deduplicated. Files inside working directories are skipped.
func expandInputs(ctx context.Context, patterns, args []string) ([]string, error) {
	var out []string
	for _, pattern := range append(slices.Clone(patterns), args...) {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Errorf("expanding %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			zerolog.Ctx(ctx).Warn().Str("pattern", pattern).Msg("input pattern matched nothing")
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, errors.Errorf("resolving %s: %w", m, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, errors.Errorf("reading %s: %w", abs, err)
			}
			if info.IsDir() || inWorkDir(abs) {
				continue
			}
			out = append(out, abs)
		}
	}

	slices.Sort(out)
	return slices.Compact(out), nil
}

func inWorkDir(path string) bool {
	for _, part := range strings.Split(filepath.Dir(path), string(filepath.Separator)) {
		if strings.HasSuffix(part, "_versions") {
			return true
		}
	}
	return false
}
