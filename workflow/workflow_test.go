package workflow

import (
	"bytes"
	"context"
	"github.com/saylorsolutions/tispbuild/config"
	"github.com/saylorsolutions/tispbuild/coverage"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const testPID = 4242

// fakeGo stands in for the go tool and other programs.
// Listing returns the configured packages, and testing a package writes its configured profile.
type fakeGo struct {
	packages []string
	profiles map[string]string
	fail     map[string]int
	calls    []invoke.Command
}

func (f *fakeGo) Invoke(_ context.Context, cmd invoke.Command) (invoke.Result, error) {
	f.calls = append(f.calls, cmd)
	if cmd.Program != "go" || len(cmd.Args) == 0 {
		return invoke.Result{}, nil
	}
	switch cmd.Args[0] {
	case "list":
		return invoke.Result{Stdout: []byte(strings.Join(f.packages, "\n") + "\n")}, nil
	case "test":
		pkg := cmd.Args[len(cmd.Args)-1]
		if idx := slices.Index(cmd.Args, "-coverprofile"); idx >= 0 {
			if content, ok := f.profiles[pkg]; ok {
				profile := cmd.Args[idx+1]
				if !filepath.IsAbs(profile) {
					profile = filepath.Join(cmd.Dir, profile)
				}
				if err := os.WriteFile(profile, []byte(content), 0644); err != nil {
					return invoke.Result{ExitCode: -1}, err
				}
			}
		}
		if code, ok := f.fail[pkg]; ok {
			return invoke.Result{ExitCode: code}, &invoke.ExitError{Command: cmd, Code: code}
		}
	}
	return invoke.Result{}, nil
}

func (f *fakeGo) commandLines() []string {
	lines := make([]string, len(f.calls))
	for i, cmd := range f.calls {
		lines[i] = cmd.String()
	}
	return lines
}

func (f *fakeGo) tested() []string {
	var pkgs []string
	for _, cmd := range f.calls {
		if cmd.Program == "go" && len(cmd.Args) > 0 && cmd.Args[0] == "test" && slices.Contains(cmd.Args, "-coverprofile") {
			pkgs = append(pkgs, cmd.Args[len(cmd.Args)-1])
		}
	}
	return pkgs
}

type fixture struct {
	cfg     *config.Config
	fake    *fakeGo
	out     *bytes.Buffer
	metrics *metrics.Recorder
	wf      *Workflow
}

func newFixture(t *testing.T, race bool, fake *fakeGo) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.RootDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	f := &fixture{cfg: cfg, fake: fake, out: new(bytes.Buffer), metrics: metrics.NewRecorder()}
	f.wf = New(Options{
		Config:  cfg,
		Invoker: fake,
		Race:    race,
		PID:     testPID,
		Environ: []string{"HOME=/home/tisp", "PATH=/usr/bin"},
		Out:     f.out,
		Metrics: f.metrics,
	})
	return f
}

func (f *fixture) report(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.cfg.Path(f.cfg.CoverageReport))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) profile() string {
	return coverage.ProfilePath(f.cfg.Path(f.cfg.TempDir), f.cfg.ProfilePrefix, testPID)
}

func scenario() *fakeGo {
	return &fakeGo{
		packages: []string{"example.com/tisp/a", "example.com/tisp/b", "example.com/tisp/c"},
		profiles: map[string]string{
			"example.com/tisp/a": "mode:atomic\nfoo.go:1.1,2.2 1 1\n",
			"example.com/tisp/c": "mode:atomic\nbar.go:3.1,4.2 1 0\n",
		},
	}
}

func TestUnitTest_Scenario(t *testing.T) {
	f := newFixture(t, true, scenario())
	require.NoError(t, f.wf.unitTest(context.Background()))

	assert.Equal(t, "mode: atomic\nfoo.go:1.1,2.2 1 1\nbar.go:3.1,4.2 1 0\n", f.report(t))
	assert.Equal(t, []string{"example.com/tisp/a", "example.com/tisp/b", "example.com/tisp/c"}, f.fake.tested())
	assert.NoFileExists(t, f.profile())
	assert.Contains(t, f.out.String(), "50.0%", "Coverage summary should be printed")

	list := f.fake.calls[0]
	assert.Equal(t, []string{"list", "./src/lib/..."}, list.Args)
	assert.Equal(t, f.cfg.RootDir, list.Dir)

	expected := []string{"test", "-covermode", "atomic", "-coverprofile", f.profile(), "-race", "example.com/tisp/a"}
	assert.Equal(t, expected, f.fake.calls[1].Args)
	assert.True(t, f.fake.calls[1].Verbose)
}

func TestUnitTest_RaceOnlyWhenSupported(t *testing.T) {
	for _, race := range []bool{true, false} {
		f := newFixture(t, race, scenario())
		require.NoError(t, f.wf.unitTest(context.Background()))
		for _, cmd := range f.fake.calls[1:] {
			assert.Equal(t, race, slices.Contains(cmd.Args, "-race"), "race=%v: %s", race, cmd)
		}
	}
}

func TestUnitTest_FailureLeavesPartialReport(t *testing.T) {
	fake := scenario()
	fake.profiles["example.com/tisp/b"] = "mode: atomic\nbaz.go:1.1,1.9 2 0\n"
	fake.fail = map[string]int{"example.com/tisp/b": 1}
	f := newFixture(t, false, fake)

	err := f.wf.unitTest(context.Background())
	require.Error(t, err)
	code, ok := invoke.ExitCode(err)
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	assert.Equal(t, "mode: atomic\nfoo.go:1.1,2.2 1 1\n", f.report(t), "Only packages before the failure should be merged")
	assert.Equal(t, []string{"example.com/tisp/a", "example.com/tisp/b"}, f.fake.tested(), "Later packages should never be tested")
}

func TestUnitTest_NoPackages(t *testing.T) {
	f := newFixture(t, false, &fakeGo{})
	require.NoError(t, f.wf.unitTest(context.Background()))
	assert.Equal(t, "mode: atomic\n", f.report(t))
	assert.Empty(t, f.out.String())
}

func TestUnitTest_ListFailure(t *testing.T) {
	fail := invoke.Func(func(_ context.Context, cmd invoke.Command) (invoke.Result, error) {
		return invoke.Result{ExitCode: 1}, &invoke.ExitError{Command: cmd, Code: 1}
	})
	cfg := config.Default()
	cfg.RootDir = t.TempDir()
	wf := New(Options{Config: cfg, Invoker: fail, PID: testPID})
	err := wf.unitTest(context.Background())
	require.Error(t, err)
	data, readErr := os.ReadFile(cfg.Path(cfg.CoverageReport))
	require.NoError(t, readErr)
	assert.Equal(t, "mode: atomic\n", string(data))
}

func TestUnitTest_StaleProfileIgnored(t *testing.T) {
	fake := &fakeGo{packages: []string{"example.com/tisp/notests"}}
	f := newFixture(t, false, fake)
	require.NoError(t, os.WriteFile(f.profile(), []byte("mode: atomic\nstale.go:1.1,1.2 1 1\n"), 0644))

	require.NoError(t, f.wf.unitTest(context.Background()))
	assert.Equal(t, "mode: atomic\n", f.report(t))
}

func TestUnitTest_Exclude(t *testing.T) {
	f := newFixture(t, false, scenario())
	f.cfg.Exclude = []string{"example.com/*/b"}
	require.NoError(t, f.wf.unitTest(context.Background()))
	assert.Equal(t, []string{"example.com/tisp/a", "example.com/tisp/c"}, f.fake.tested())
}

func TestUnitTest_RelativeTempDir(t *testing.T) {
	f := newFixture(t, false, scenario())
	f.cfg.TempDir = "tmp"
	require.NoError(t, f.wf.unitTest(context.Background()))

	profile := filepath.Join(f.cfg.RootDir, "tmp", "tisp-unit-test-4242.coverage")
	assert.Equal(t, profile, f.profile())
	assert.Equal(t, "mode: atomic\nfoo.go:1.1,2.2 1 1\nbar.go:3.1,4.2 1 0\n", f.report(t), "Profiles should be found relative to the root")
	assert.Equal(t, profile, f.fake.calls[1].Args[4])
	assert.NoFileExists(t, profile, "The profile shouldn't be orphaned")
	assert.DirExists(t, filepath.Join(f.cfg.RootDir, "tmp"))
}

func TestUnitTest_ProfileCleanupFailureLogged(t *testing.T) {
	cfg := config.Default()
	cfg.RootDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	profile := coverage.ProfilePath(cfg.TempDir, cfg.ProfilePrefix, testPID)
	fail := invoke.Func(func(_ context.Context, cmd invoke.Command) (invoke.Result, error) {
		if cmd.Args[0] == "list" {
			return invoke.Result{Stdout: []byte("example.com/tisp/a\n")}, nil
		}
		// A non-empty directory in place of the profile can't be removed.
		if err := os.MkdirAll(filepath.Join(profile, "stuck"), 0755); err != nil {
			return invoke.Result{ExitCode: -1}, err
		}
		return invoke.Result{ExitCode: 2}, &invoke.ExitError{Command: cmd, Code: 2}
	})
	var logs bytes.Buffer
	wf := New(Options{
		Config:  cfg,
		Invoker: fail,
		PID:     testPID,
		Log:     slog.New(slog.NewTextHandler(&logs, nil)),
	})

	err := wf.unitTest(context.Background())
	code, ok := invoke.ExitCode(err)
	assert.True(t, ok, "The test failure should be returned, not the cleanup failure")
	assert.Equal(t, 2, code)
	assert.Contains(t, logs.String(), "Unable to remove coverage profile")
	assert.Contains(t, logs.String(), profile)
}

func TestGraph_Install(t *testing.T) {
	f := newFixture(t, false, scenario())
	g, err := f.wf.Graph()
	require.NoError(t, err)

	results, err := g.Run(context.Background(), Install)
	require.NoError(t, err)
	var ran []string
	for _, r := range results {
		ran = append(ran, r.Task)
	}
	assert.Equal(t, []string{Deps, UnitTest, Build, CommandTest, Test, Install}, ran)

	lines := f.fake.commandLines()
	assert.Equal(t, "go get -u github.com/alecthomas/gometalinter github.com/mattn/goveralls github.com/raviqqe/liche", lines[0])
	assert.Equal(t, "gometalinter --install", lines[1])
	assert.Equal(t, "go get -d -t ./...", lines[2])
	assert.Equal(t, "gem install bundler rubocop", lines[3])
	assert.Equal(t, "go get ./...", lines[len(lines)-1])
	assert.Equal(t, 1, countPrefix(lines, "go build"), "build should only run once")
}

func TestGraph_InstallStopsOnTestFailure(t *testing.T) {
	fake := scenario()
	fake.fail = map[string]int{"example.com/tisp/a": 2}
	f := newFixture(t, false, fake)
	g, err := f.wf.Graph()
	require.NoError(t, err)

	_, err = g.Run(context.Background(), Install)
	require.Error(t, err)
	code, ok := invoke.ExitCode(err)
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	lines := f.fake.commandLines()
	assert.Equal(t, 0, countPrefix(lines, "go build"))
	assert.Equal(t, 0, countPrefix(lines, "bundle"))
	assert.Equal(t, 0, countPrefix(lines, "go get ./..."))
}

func TestGraph_Default(t *testing.T) {
	f := newFixture(t, false, scenario())
	g, err := f.wf.Graph()
	require.NoError(t, err)
	_, err = g.Run(context.Background(), Default)
	require.NoError(t, err)

	lines := f.fake.commandLines()
	build := slices.Index(lines, "go build -o "+filepath.Join("bin", "tisp")+" src/cmd/tisp/main.go")
	bundle := slices.Index(lines, "bundle install")
	lastTest := slices.IndexFunc(lines, func(s string) bool { return strings.HasSuffix(s, "example.com/tisp/c") })
	require.True(t, build >= 0 && bundle >= 0 && lastTest >= 0)
	assert.Less(t, lastTest, build, "unit_test should finish before command_test builds")
	assert.Less(t, build, bundle)
}

func TestCommandTest_SearchPath(t *testing.T) {
	f := newFixture(t, false, &fakeGo{})
	require.NoError(t, f.wf.commandTest(context.Background()))
	require.Len(t, f.fake.calls, 2)

	cucumber := f.fake.calls[1]
	assert.Equal(t, "bundle", cucumber.Program)
	assert.Equal(t, []string{"exec", "cucumber", "-r", "examples/aruba.rb", "examples"}, cucumber.Args)
	binDir, err := f.cfg.BinDir()
	require.NoError(t, err)
	assert.Contains(t, cucumber.Env, "PATH="+binDir+string(os.PathListSeparator)+"/usr/bin")
	assert.Contains(t, cucumber.Env, "HOME=/home/tisp")
	assert.Nil(t, f.fake.calls[0].Env, "bundle install should use the normal environment")
}

func TestFormat(t *testing.T) {
	f := newFixture(t, false, &fakeGo{})
	root := f.cfg.RootDir
	for _, file := range []string{"src/lib/core/a.go", "src/cmd/tisp/main.go", "vendor/x/x.go", ".git/hook.go", "README.md"} {
		path := filepath.Join(root, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	require.NoError(t, f.wf.format(context.Background()))
	assert.Equal(t, []string{
		"go fix ./...",
		"go fmt ./...",
		"goimports -w src/cmd/tisp/main.go",
		"goimports -w src/lib/core/a.go",
		"rubocop -a",
	}, f.fake.commandLines())
}

func TestLint(t *testing.T) {
	f := newFixture(t, false, &fakeGo{})
	require.NoError(t, f.wf.lint(context.Background()))
	assert.Equal(t, []string{
		"gometalinter --disable gocyclo --disable vetshadow --enable gofmt --enable goimports --enable misspell ./...",
		"rubocop",
	}, f.fake.commandLines(), "liche should be skipped without documentation")

	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.RootDir, "README.md"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.RootDir, "doc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.RootDir, "doc", "tutorial.md"), nil, 0644))
	f.fake.calls = nil
	require.NoError(t, f.wf.lint(context.Background()))
	assert.Equal(t, "liche -v README.md doc/tutorial.md", f.fake.commandLines()[2])
}

func TestSimpleTasks(t *testing.T) {
	tests := map[string]struct {
		task     string
		expected []string
	}{
		"Fast unit test": {task: FastUnitTest, expected: []string{"go test ./..."}},
		"Clean":          {task: Clean, expected: []string{"git clean -dfx"}},
		"Build":          {task: Build, expected: []string{"go build -o " + filepath.Join("bin", "tisp") + " src/cmd/tisp/main.go"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false, &fakeGo{})
			g, err := f.wf.Graph()
			require.NoError(t, err)
			_, err = g.Run(context.Background(), tc.task)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f.fake.commandLines())
			for _, cmd := range f.fake.calls {
				assert.Equal(t, f.cfg.RootDir, cmd.Dir)
			}
		})
	}
}

func countPrefix(lines []string, prefix string) int {
	var count int
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}

func TestCatalog(t *testing.T) {
	tasks := Catalog()
	require.Len(t, tasks, 11)
	for _, tk := range tasks {
		assert.Nil(t, tk.Action, "Catalog entries should not be bound: %s", tk.Name)
		assert.NotEmpty(t, tk.Description, tk.Name)
	}
	tasks[0].Name = "changed"
	assert.Equal(t, Deps, Catalog()[0].Name, "Catalog should return a copy")

	f := newFixture(t, false, &fakeGo{})
	g, err := f.wf.Graph()
	require.NoError(t, err)
	for _, name := range []string{Test, Default} {
		tk, ok := g.Lookup(name)
		require.True(t, ok)
		assert.True(t, tk.IsGroup(), name)
	}
	tk, ok := g.Lookup(UnitTest)
	require.True(t, ok)
	assert.False(t, tk.IsGroup())
}
