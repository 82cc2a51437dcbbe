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

package config

import (
	"context"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
//
//	inputs = ["photos/**/*.jpg"]
//
//	step "tags" {
//	  options = { of = "original", capture = "dropped" }
//	}
//
//	step "compress" {
//	  options = { level = "best" }
//	}
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "pipeline.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Sources      []string `hcl:"sources,optional"`
		Inputs       []string `hcl:"inputs,optional"`
		Overwrite    bool     `hcl:"overwrite,optional"`
		Suffix       string   `hcl:"suffix,optional"`
		Concurrency  int      `hcl:"concurrency,optional"`
		KeepVersions bool     `hcl:"keep_versions,optional"`
		Steps        []struct {
			Name    string    `hcl:"name,label"`
			Options cty.Value `hcl:"options,optional"`
		} `hcl:"step,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Sources:      hclCfg.Sources,
		Inputs:       hclCfg.Inputs,
		Overwrite:    hclCfg.Overwrite,
		Suffix:       hclCfg.Suffix,
		Concurrency:  hclCfg.Concurrency,
		KeepVersions: hclCfg.KeepVersions,
	}

	for _, s := range hclCfg.Steps {
		step := Step{Name: s.Name}
		if !s.Options.IsNull() {
			if !s.Options.Type().IsObjectType() && !s.Options.Type().IsMapType() {
				return nil, errors.Errorf("step %q: options must be an object", s.Name)
			}
			opts, err := fromCty(s.Options)
			if err != nil {
				return nil, errors.Errorf("step %q: %w", s.Name, err)
			}
			step.Options, _ = opts.(map[string]any)
		}
		cfg.Steps = append(cfg.Steps, step)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// fromCty converts a cty value to plain Go values: string, bool, int64 or
// float64, []any and map[string]any.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, errors.Errorf("value is not known")
	}

	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			conv, err := fromCty(ev)
			if err != nil {
				return nil, errors.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			conv, err := fromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported value type %s", t.FriendlyName())
	}
}
