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
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 stubParser accepts one exact file name
type stubParser struct {
	name string
}

func (p *stubParser) CanParse(filename string) bool {
	return filename == p.name
}

func (p *stubParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	return &Config{Steps: []Step{{Name: string(data)}}}, nil
}

// 🧪 TestParserRegistration tests the parser registration system
func TestParserRegistration(t *testing.T) {
	originalParsers := parsers
	defer func() {
		parsers = originalParsers
	}()

	parsers = nil

	stub := &stubParser{name: "pipeline.stub"}
	Register(stub)
	assert.Len(t, parsers, 1, "should have 1 parser registered")
	assert.Same(t, stub, GetParser("pipeline.stub"))
	assert.Nil(t, GetParser("pipeline.yaml"), "built-ins are gone after reset")
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Parser
	}{
		{name: "yaml_file", filename: "pipeline.yaml", want: &YAMLParser{}},
		{name: "yml_file", filename: "pipeline.yml", want: &YAMLParser{}},
		{name: "upper_case_yaml", filename: "PIPELINE.YAML", want: &YAMLParser{}},
		{name: "hcl_file", filename: "pipeline.hcl", want: &HCLParser{}},
		{name: "json_file", filename: "pipeline.json", want: &JSONParser{}},
		{name: "unknown_file", filename: "pipeline.toml", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}
