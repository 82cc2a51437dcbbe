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
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/walteh/nondestruct/cmd/nondestruct/opts"
	"github.com/walteh/nondestruct/pkg/metadata"
	"github.com/walteh/nondestruct/pkg/version"
	"gitlab.com/tozd/go/errors"
)

type tagsFlags struct {
	exiftool bool
	binary   string
	json     bool
}

// NewTagsCmd creates the tags command
func NewTagsCmd(o *opts.RootOpts) *cobra.Command {
	var flags tagsFlags

	cmd := &cobra.Command{
		Use:   "tags <file>",
		Short: "Print the metadata tags of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTags(cmd.Context(), o.Console, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.exiftool, "exiftool", false, "read tags with exiftool instead of stat")
	cmd.Flags().StringVar(&flags.binary, "exiftool-binary", "", "exiftool binary to run (default: exiftool from PATH)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print tags as JSON")

	return cmd
}

func printTags(ctx context.Context, w io.Writer, path string, flags tagsFlags) error {
	var reader metadata.Reader = metadata.Stat{}
	if flags.exiftool {
		reader = metadata.ExifTool{Binary: flags.binary}
	}

	f, err := version.New(path, version.WithMetadataReader(reader))
	if err != nil {
		return err
	}

	tags, err := f.Tags(ctx)
	if err != nil {
		return err
	}

	if flags.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tags); err != nil {
			return errors.Errorf("encoding tags: %w", err)
		}
		return nil
	}

	for _, k := range slices.Sorted(maps.Keys(tags)) {
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, tags[k]); err != nil {
			return err
		}
	}
	return nil
}
