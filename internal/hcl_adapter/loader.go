package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/specialistvlad/eonc/internal/config"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// DotenvPaths are read, in order, before evaluation. Missing files are
	// skipped. Process environment variables take precedence over them.
	DotenvPaths []string
	// Environ returns the process environment. Defaults to os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader(dotenvPaths ...string) *Loader {
	return &Loader{DotenvPaths: dotenvPaths, Environ: os.Environ}
}

// Load parses the HCL settings file at path. An empty path yields an empty
// model. Attribute expressions may reference env.NAME.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		logger.Debug("No settings file configured.")
		return &config.Model{}, nil
	}
	logger.Debug("HCL loader started.", "path", path)

	env, err := l.environment()
	if err != nil {
		return nil, err
	}

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	model, err := translate(&root)
	if err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	logger.Debug("HCL loading complete.", "path", path, "env_vars", len(env))
	return model, nil
}

// environment merges the dotenv files under the process environment.
func (l *Loader) environment() (map[string]string, error) {
	env := make(map[string]string)
	for _, p := range l.DotenvPaths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		vars, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", p, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}

	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// evalContext exposes env as the env object. An empty environment still
// defines env so references fail with a missing-attribute diagnostic rather
// than an unknown variable.
func evalContext(env map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vals) > 0 {
		envVal = cty.ObjectVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
	}
}
