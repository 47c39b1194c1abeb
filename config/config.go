// Package config holds the locations and tool choices used by build tasks.
//
// Values are layered, with later layers taking precedence:
//  1. [Default]
//  2. An optional YAML or TOML file, see [Config.LoadFile]
//  3. TISPBUILD_* environment variables, see [Config.ApplyEnv]
//  4. Command flags, applied by the caller
//
// The resulting [Config] is passed explicitly to everything that needs it, nothing reads it from global state.
package config

import (
	"errors"
	"fmt"
	"github.com/pelletier/go-toml/v2"
	"github.com/saylorsolutions/tispbuild/arch"
	"github.com/saylorsolutions/tispbuild/assert"
	"github.com/saylorsolutions/tispbuild/env"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	EnvPrefix   = "TISPBUILD"
	DefaultFile = "tispbuild.yaml"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	ErrNoModule          = errors.New("no Go module found")

	validModes = []string{"set", "count", "atomic"}
)

// Config describes where build inputs and outputs live, and which external tools are used.
type Config struct {
	RootDir           string   `yaml:"root" toml:"root"`
	GoBinary          string   `yaml:"go" toml:"go"`
	BinaryPath        string   `yaml:"binary" toml:"binary"`
	MainPackage       string   `yaml:"main" toml:"main"`
	LibraryPackages   string   `yaml:"library" toml:"library"`
	Exclude           []string `yaml:"exclude" toml:"exclude"`
	CoverageReport    string   `yaml:"coverage_report" toml:"coverage_report"`
	CoverageMode      string   `yaml:"coverage_mode" toml:"coverage_mode"`
	TempDir           string   `yaml:"temp_dir" toml:"temp_dir"`
	ProfilePrefix     string   `yaml:"profile_prefix" toml:"profile_prefix"`
	Arch              string   `yaml:"arch" toml:"arch"`
	RaceArchitectures []string `yaml:"race_architectures" toml:"race_architectures"`
	ExamplesDir       string   `yaml:"examples" toml:"examples"`
	Tools             []string `yaml:"tools" toml:"tools"`
	Linter            string   `yaml:"linter" toml:"linter"`
	LinterArgs        []string `yaml:"linter_args" toml:"linter_args"`
	LogFile           string   `yaml:"log_file" toml:"log_file"`
	MetricsFile       string   `yaml:"metrics_file" toml:"metrics_file"`
	TranscriptFile    string   `yaml:"transcript_file" toml:"transcript_file"`
	Verbose           bool     `yaml:"verbose" toml:"verbose"`
	DryRun            bool     `yaml:"-" toml:"-"`
}

// Default returns the settings used by the interpreter project.
// The coverage report location is the one expected by codecov.
func Default() *Config {
	return &Config{
		RootDir:           ".",
		GoBinary:          "go",
		BinaryPath:        filepath.Join("bin", "tisp"),
		MainPackage:       "src/cmd/tisp/main.go",
		LibraryPackages:   "./src/lib/...",
		CoverageReport:    "coverage.txt",
		CoverageMode:      "atomic",
		TempDir:           os.TempDir(),
		ProfilePrefix:     "tisp-unit-test",
		RaceArchitectures: slices.Clone(arch.DefaultRaceArchitectures),
		ExamplesDir:       "examples",
		Tools: []string{
			"github.com/alecthomas/gometalinter",
			"github.com/mattn/goveralls",
			"github.com/raviqqe/liche",
		},
		Linter: "gometalinter",
		LinterArgs: []string{
			"--disable", "gocyclo",
			"--disable", "vetshadow",
			"--enable", "gofmt",
			"--enable", "goimports",
			"--enable", "misspell",
			"./...",
		},
	}
}

// Load builds a [Config] from defaults, an optional file, and the environment.
// If path is empty, the TISPBUILD_CONFIG variable is checked, then [DefaultFile] is used if it exists.
func Load(path string, src *env.Source) (*Config, error) {
	cfg := Default()
	explicit := len(path) > 0
	if !explicit {
		path, explicit = src.Lookup("config")
	}
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg.ApplyEnv(src)
	return cfg, nil
}

// LoadFile overlays settings from a YAML (.yaml, .yml) or TOML (.toml) file.
// Settings missing from the file are left unchanged.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays settings from environment variables, such as TISPBUILD_COVERAGE_REPORT.
func (c *Config) ApplyEnv(src *env.Source) {
	c.RootDir = src.Val("root", c.RootDir)
	c.GoBinary = src.Val("go", c.GoBinary)
	c.BinaryPath = src.Val("binary", c.BinaryPath)
	c.MainPackage = src.Val("main", c.MainPackage)
	c.LibraryPackages = src.Val("library", c.LibraryPackages)
	c.Exclude = src.List("exclude", c.Exclude)
	c.CoverageReport = src.Val("coverage_report", c.CoverageReport)
	c.CoverageMode = src.Val("coverage_mode", c.CoverageMode)
	c.TempDir = src.Val("temp_dir", c.TempDir)
	c.ProfilePrefix = src.Val("profile_prefix", c.ProfilePrefix)
	c.Arch = src.Val("arch", c.Arch)
	c.RaceArchitectures = src.List("race_architectures", c.RaceArchitectures)
	c.ExamplesDir = src.Val("examples", c.ExamplesDir)
	c.Tools = src.List("tools", c.Tools)
	c.Linter = src.Val("linter", c.Linter)
	c.LogFile = src.Val("log_file", c.LogFile)
	c.MetricsFile = src.Val("metrics_file", c.MetricsFile)
	c.TranscriptFile = src.Val("transcript_file", c.TranscriptFile)
	c.Verbose = src.Bool("verbose", c.Verbose)
	c.DryRun = src.Bool("dry_run", c.DryRun)
}

// Validate reports every setting that can't be used.
func (c *Config) Validate() error {
	errs := assert.CollectErrors("\n  ").Prefix("invalid configuration:")
	errs.Check(len(c.GoBinary) > 0, "go binary is required")
	errs.Check(len(c.BinaryPath) > 0, "binary path is required")
	errs.Check(len(c.MainPackage) > 0, "main package is required")
	errs.Check(len(c.LibraryPackages) > 0, "library package pattern is required")
	errs.Check(len(c.CoverageReport) > 0, "coverage report path is required")
	errs.Check(slices.Contains(validModes, c.CoverageMode), "coverage mode '%s' must be one of %s", c.CoverageMode, strings.Join(validModes, ", "))
	errs.Check(len(c.ProfilePrefix) > 0, "profile prefix is required")
	errs.Check(!strings.ContainsAny(c.ProfilePrefix, `/\`), "profile prefix '%s' must not contain path separators", c.ProfilePrefix)
	errs.Check(len(c.ExamplesDir) > 0, "examples directory is required")
	errs.Check(len(c.Linter) > 0, "linter is required")
	return errs.Result()
}

// Path resolves a configured path against the root directory.
func (c *Config) Path(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.RootDir, path)
}

// BinDir is the absolute directory of the built binary, which is added to the search path for command tests.
func (c *Config) BinDir() (string, error) {
	return filepath.Abs(filepath.Dir(c.Path(c.BinaryPath)))
}

// ModulePath reads the module path declared in the root directory's go.mod.
func (c *Config) ModulePath() (string, error) {
	gomod := filepath.Join(c.RootDir, "go.mod")
	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", fmt.Errorf("%w in %s: %w", ErrNoModule, c.RootDir, err)
	}
	modPath := modfile.ModulePath(data)
	if len(modPath) == 0 {
		return "", fmt.Errorf("%w: %s has no module directive", ErrNoModule, gomod)
	}
	return modPath, nil
}
