package app

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Server struct {
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
	Rovers map[string]string `mapstructure:"rovers"`

	completed   bool
	validateErr error
}

func newTestOptions() *testOptions {
	o := &testOptions{}
	o.Server.Addr = ":5001"
	o.Server.Timeout = time.Second
	o.Rovers = map[string]string{"jetson": "cam"}
	return o
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "addr")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	fss.FlagSet("fleet").AddFlagSet(roverFlags(o))
	return fss
}

func roverFlags(o *testOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("rovers", pflag.ContinueOnError)
	fs.StringToStringVar(&o.Rovers, "rovers", o.Rovers, "rovers")
	return fs
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return o.validateErr }

func execute(t *testing.T, opts *testOptions, args ...string) (bool, error) {
	t.Helper()
	ran := false
	a := NewApp("rover-test", "test",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	cmd := a.Command()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return ran, cmd.Execute()
}

func TestAppDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	opts := newTestOptions()
	ran, err := execute(t, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran || !opts.completed {
		t.Fatalf("ran=%v completed=%v", ran, opts.completed)
	}
	if opts.Server.Addr != ":5001" || opts.Server.Timeout != time.Second {
		t.Errorf("defaults changed: %+v", opts.Server)
	}
	if opts.Rovers["jetson"] != "cam" {
		t.Errorf("rovers = %v", opts.Rovers)
	}
}

func TestAppFlagsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROVER_TEST_SERVER_TIMEOUT", "3s")

	opts := newTestOptions()
	if _, err := execute(t, opts, "--server.addr", ":9000"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != ":9000" {
		t.Errorf("addr = %q, want flag value", opts.Server.Addr)
	}
	if opts.Server.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want env value", opts.Server.Timeout)
	}
}

func TestAppConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "hub.yaml")
	content := "server:\n  addr: \":7000\"\n  timeout: 2s\nrovers:\n  rover1: cam1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	opts := newTestOptions()
	if _, err := execute(t, opts, "--config", path); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != ":7000" || opts.Server.Timeout != 2*time.Second {
		t.Errorf("server = %+v", opts.Server)
	}
	if len(opts.Rovers) != 1 || opts.Rovers["rover1"] != "cam1" {
		t.Errorf("rovers = %v, want only the configured fleet", opts.Rovers)
	}

	// Flags still win over the file.
	opts = newTestOptions()
	if _, err := execute(t, opts, "--config", path, "--server.addr", ":7100"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != ":7100" {
		t.Errorf("addr = %q", opts.Server.Addr)
	}
}

func TestAppErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		opts func() *testOptions
		args []string
	}{
		{"positional args", newTestOptions, []string{"extra"}},
		{"missing config file", newTestOptions, []string{"--config", "/nonexistent/hub.yaml"}},
		{"validation", func() *testOptions {
			o := newTestOptions()
			o.validateErr = errors.New("bad")
			return o
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran, err := execute(t, tt.opts(), tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if ran {
				t.Error("run func must not be called")
			}
		})
	}
}

func TestEnvPrefix(t *testing.T) {
	if got := envPrefix("rover-hub"); got != "ROVER_HUB" {
		t.Errorf("envPrefix = %q", got)
	}
}
