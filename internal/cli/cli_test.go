package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/eonc/internal/app"
	"github.com/specialistvlad/eonc/internal/config"
	"github.com/stretchr/testify/require"
)

// stubLoader returns a fixed model and records the path it was asked for.
type stubLoader struct {
	model *config.Model
	err   error
	path  string
}

func (l *stubLoader) Load(_ context.Context, path string) (*config.Model, error) {
	l.path = path
	if l.err != nil {
		return nil, l.err
	}
	if l.model == nil {
		return &config.Model{}, nil
	}
	return l.model, nil
}

func ptr[T any](v T) *T { return &v }

func withDefaults(fn func(*app.Config)) *app.Config {
	cfg := app.DefaultConfig()
	fn(&cfg)
	return &cfg
}

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		model          *config.Model
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
	}{
		{
			name: "compile with defaults",
			args: []string{"compile", "main.eon"},
			expectedConfig: withDefaults(func(c *app.Config) {
				c.Command = app.CommandCompile
				c.SourcePath = "main.eon"
			}),
		},
		{
			name: "global flags before and after the command",
			args: []string{"-log-level=DEBUG", "compile", "-format", "yaml", "-full", "-log-format=json", "main.eon"},
			expectedConfig: withDefaults(func(c *app.Config) {
				c.Command = app.CommandCompile
				c.SourcePath = "main.eon"
				c.LogLevel = "debug"
				c.LogFormat = "json"
				c.Format = "yaml"
				c.Full = true
			}),
		},
		{
			name: "settings file below flags",
			args: []string{"serve", "-addr", ":9999"},
			model: &config.Model{
				LogLevel: ptr("warn"),
				Server:   &config.Server{Addr: ptr(":7000"), AllowedOrigins: []string{"http://a.local"}},
				Cache:    &config.Cache{Size: ptr(32)},
			},
			expectedConfig: withDefaults(func(c *app.Config) {
				c.Command = app.CommandServe
				c.LogLevel = "warn"
				c.Addr = ":9999"
				c.AllowedOrigins = []string{"http://a.local"}
				c.CacheSize = 32
			}),
		},
		{
			name: "publish flags",
			args: []string{"publish", "-url", "http://r.local/socket.io/", "-event", "scene", "-timeout", "2s", "main.eon"},
			expectedConfig: withDefaults(func(c *app.Config) {
				c.Command = app.CommandPublish
				c.SourcePath = "main.eon"
				c.Publish.URL = "http://r.local/socket.io/"
				c.Publish.Event = "scene"
				c.Publish.Timeout = 2 * time.Second
			}),
		},
		{
			name: "watch interval from settings file",
			args: []string{"watch", "main.eon"},
			model: &config.Model{
				Watch: &config.Watch{Interval: ptr(time.Second)},
			},
			expectedConfig: withDefaults(func(c *app.Config) {
				c.Command = app.CommandWatch
				c.SourcePath = "main.eon"
				c.WatchInterval = time.Second
			}),
		},
		{name: "no command prints usage", args: []string{}, expectExit: true},
		{name: "help flag", args: []string{"-h"}, expectExit: true},
		{name: "command help", args: []string{"compile", "-h"}, expectExit: true},
		{name: "unknown command", args: []string{"render", "x"}, expectErr: true},
		{name: "missing file", args: []string{"compile"}, expectErr: true},
		{name: "serve takes no file", args: []string{"serve", "main.eon"}, expectErr: true},
		{name: "invalid format", args: []string{"compile", "-format", "xml", "main.eon"}, expectErr: true},
		{name: "invalid log level", args: []string{"-log-level", "loud", "check", "main.eon"}, expectErr: true},
		{name: "publish without url", args: []string{"publish", "main.eon"}, expectErr: true},
		{name: "unknown flag", args: []string{"tree", "-bogus", "main.eon"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			cfg, shouldExit, err := Parse(context.Background(), tc.args, &out, &stubLoader{model: tc.model})

			require.Equal(t, tc.expectExit, shouldExit)
			if tc.expectErr {
				require.Error(t, err)
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr))
				require.Equal(t, 2, exitErr.Code)
				return
			}
			require.NoError(t, err)
			if tc.expectExit {
				require.Contains(t, out.String(), "Usage:")
				return
			}
			if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
				t.Errorf("Parse() config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ConfigPathAndLoaderErrors(t *testing.T) {
	l := &stubLoader{}
	cfg, _, err := Parse(context.Background(), []string{"-config", "custom.hcl", "check", "a.eon"}, &bytes.Buffer{}, l)
	require.NoError(t, err)
	require.Equal(t, "custom.hcl", l.path)
	require.Equal(t, "custom.hcl", cfg.ConfigPath)

	_, _, err = Parse(context.Background(), []string{"check", "a.eon"}, &bytes.Buffer{}, &stubLoader{err: errors.New("bad file")})
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Contains(t, exitErr.Message, "bad file")
}
