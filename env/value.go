// Package env reads tool configuration from environment variables, and builds environments for child processes.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	DefaultTrue  = []string{"1", "yes", "true", "on"}  // DefaultTrue are the values considered "true" when using [Source.Bool], and can be changed.
	DefaultFalse = []string{"0", "no", "false", "off"} // DefaultFalse are the values considered "false" when using [Source.Bool], and can be changed.
)

// Source looks up variables that share a common prefix, such as TISPBUILD_REPORT.
// Keys are compared case-insensitive, and values are trimmed of surrounding whitespace.
type Source struct {
	prefix  string
	environ func() []string
}

// New creates a [Source] backed by the current process environment.
// The prefix is joined to variable names with an underscore, and may be empty.
func New(prefix string) *Source {
	return &Source{prefix: prefix, environ: os.Environ}
}

// FromEnviron creates a [Source] backed by a fixed environment in the "KEY=value" form of [os.Environ].
func FromEnviron(prefix string, environ []string) *Source {
	fixed := append([]string(nil), environ...)
	return &Source{prefix: prefix, environ: func() []string { return fixed }}
}

// Key returns the full variable name for name.
func (s *Source) Key(name string) string {
	if len(s.prefix) == 0 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(s.prefix + "_" + name)
}

func (s *Source) envMap() map[string]string {
	envMap := map[string]string{}
	environ := s.environ()
	for i := 0; i < len(environ); i++ {
		key, val, found := strings.Cut(environ[i], "=")
		if !found {
			continue
		}
		envMap[strings.ToLower(key)] = val
	}
	return envMap
}

// Lookup returns the trimmed value of the variable, and whether it was set to something other than whitespace.
func (s *Source) Lookup(name string) (string, bool) {
	val, ok := s.envMap()[strings.ToLower(s.Key(name))]
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(val)
	return trimmed, len(trimmed) > 0
}

// Val will attempt to get an environment variable value using the given name.
// If the variable isn't set, or is empty, then the defaultVal will be returned.
func (s *Source) Val(name string, defaultVal string) string {
	if val, ok := s.Lookup(name); ok {
		return val
	}
	return defaultVal
}

// Bool interprets an environment variable as a boolean, using [DefaultTrue] and [DefaultFalse].
// The defaultVal will be returned if the variable isn't set, is empty, or can't be a boolean value.
func (s *Source) Bool(name string, defaultVal bool) bool {
	sval := strings.ToLower(s.Val(name, ""))
	if len(sval) == 0 {
		return defaultVal
	}
	for _, t := range DefaultTrue {
		if sval == strings.ToLower(t) {
			return true
		}
	}
	for _, f := range DefaultFalse {
		if sval == strings.ToLower(f) {
			return false
		}
	}
	return defaultVal
}

// Int will attempt to interpret an environment variable as an integer, returning the defaultVal if the environment variable isn't found or can't be a valid integer.
func (s *Source) Int(name string, defaultVal int64) int64 {
	sval := s.Val(name, "")
	if len(sval) == 0 {
		return defaultVal
	}
	ival, err := strconv.ParseInt(sval, 10, 64)
	if err != nil {
		return defaultVal
	}
	return ival
}

// Duration will attempt to interpret an environment variable as a [time.Duration], returning the defaultVal if the environment variable isn't found or can't be a valid [time.Duration].
func (s *Source) Duration(name string, defaultVal time.Duration) time.Duration {
	sval := s.Val(name, "")
	if len(sval) == 0 {
		return defaultVal
	}
	dval, err := time.ParseDuration(sval)
	if err != nil {
		return defaultVal
	}
	return dval
}

// List splits a comma separated variable into its non-empty, trimmed elements.
// The defaultVal is returned if the variable isn't set, or contains no elements.
func (s *Source) List(name string, defaultVal []string) []string {
	sval := s.Val(name, "")
	if len(sval) == 0 {
		return defaultVal
	}
	var vals []string
	for _, elem := range strings.Split(sval, ",") {
		elem = strings.TrimSpace(elem)
		if len(elem) > 0 {
			vals = append(vals, elem)
		}
	}
	if len(vals) == 0 {
		return defaultVal
	}
	return vals
}
