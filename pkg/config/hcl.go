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
	"os"
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

// 🔧 HCLParser implements the Parser interface for HCL files.
//
// Expressions can read the process environment through the env object, so
// secrets stay out of the file:
//
//	store {
//	  kind    = "rest"
//	  url     = "https://example.supabase.co"
//	  api_key = env.SHELFWATCH_API_KEY
//	}
type HCLParser struct {
	// Environ overrides os.Environ, for tests.
	Environ func() []string
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	environ := os.Environ
	if p.Environ != nil {
		environ = p.Environ
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(environ()),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		PollInterval string `hcl:"poll_interval,optional"`
		Store        *struct {
			Kind      string   `hcl:"kind,optional"`
			Path      string   `hcl:"path,optional"`
			URL       string   `hcl:"url,optional"`
			APIKey    string   `hcl:"api_key,optional"`
			Table     string   `hcl:"table,optional"`
			Locations []string `hcl:"locations,optional"`
		} `hcl:"store,block"`
		Local *struct {
			Enabled *bool `hcl:"enabled,optional"`
		} `hcl:"local,block"`
		Email *struct {
			Enabled    bool     `hcl:"enabled,optional"`
			Endpoint   string   `hcl:"endpoint,optional"`
			ServiceID  string   `hcl:"service_id,optional"`
			TemplateID string   `hcl:"template_id,optional"`
			UserID     string   `hcl:"user_id,optional"`
			Recipients []string `hcl:"recipients,optional"`
			Timeout    string   `hcl:"timeout,optional"`
		} `hcl:"email,block"`
		Metrics *struct {
			Addr string `hcl:"addr,optional"`
		} `hcl:"metrics,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{}
	if hclCfg.PollInterval != "" {
		if err := cfg.PollInterval.UnmarshalText([]byte(hclCfg.PollInterval)); err != nil {
			return nil, errors.Errorf("poll_interval: %w", err)
		}
	}
	if s := hclCfg.Store; s != nil {
		cfg.Store = StoreConfig{
			Kind:      s.Kind,
			Path:      s.Path,
			URL:       s.URL,
			APIKey:    s.APIKey,
			Table:     s.Table,
			Locations: s.Locations,
		}
	}
	if l := hclCfg.Local; l != nil {
		cfg.Local.Enabled = l.Enabled
	}
	if e := hclCfg.Email; e != nil {
		cfg.Email = EmailConfig{
			Enabled:    e.Enabled,
			Endpoint:   e.Endpoint,
			ServiceID:  e.ServiceID,
			TemplateID: e.TemplateID,
			UserID:     e.UserID,
			Recipients: e.Recipients,
		}
		if e.Timeout != "" {
			if err := cfg.Email.Timeout.UnmarshalText([]byte(e.Timeout)); err != nil {
				return nil, errors.Errorf("email.timeout: %w", err)
			}
		}
	}
	if m := hclCfg.Metrics; m != nil {
		cfg.Metrics.Addr = m.Addr
	}

	return cfg, nil
}

func envObject(environ []string) cty.Value {
	vals := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	if len(vals) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vals)
}
