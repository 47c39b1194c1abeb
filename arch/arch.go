// Package arch decides whether race detection instrumentation may be enabled for tests on the host machine.
package arch

import (
	"context"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/structures/set"
	"runtime"
	"strings"
)

// DefaultRaceArchitectures are the machine identifiers of the 64-bit x86 class, as reported by either `uname -m` or [runtime.GOARCH].
var DefaultRaceArchitectures = []string{"x86_64", "amd64"}

// Detector answers whether a machine identifier supports race detection.
type Detector struct {
	Supported set.Set[string]
}

// NewDetector creates a [Detector] for the given identifiers, or [DefaultRaceArchitectures] if none are given.
// Identifiers are compared case-insensitive.
func NewDetector(supported ...string) *Detector {
	if len(supported) == 0 {
		supported = DefaultRaceArchitectures
	}
	s := set.New[string]()
	for _, id := range supported {
		id = normalize(id)
		if len(id) > 0 {
			s = s.Add(id)
		}
	}
	return &Detector{Supported: s}
}

func normalize(machine string) string {
	return strings.ToLower(strings.TrimSpace(machine))
}

// Architectures lists the supported identifiers in order, for display.
func (d *Detector) Architectures() []string {
	return set.Sorted(d.Supported)
}

// SupportsRaceDetection returns true only if machine is exactly one of the supported identifiers.
func (d *Detector) SupportsRaceDetection(machine string) bool {
	return d.Supported.Has(normalize(machine))
}

// HostMachine queries the host's machine identifier with `uname -m`.
// Hosts without uname (such as Windows) fall back to [runtime.GOARCH].
func HostMachine(ctx context.Context, inv invoke.Invoker) string {
	result, err := inv.Invoke(ctx, invoke.Cmd("uname", "-m").Quiet().Captured())
	if err == nil {
		if machine := normalize(string(result.Stdout)); len(machine) > 0 {
			return machine
		}
	}
	return runtime.GOARCH
}

// Resolve determines race detection support once for the run.
// A non-empty override replaces the host query, which allows forcing the answer in CI or tests.
func (d *Detector) Resolve(ctx context.Context, inv invoke.Invoker, override string) (machine string, race bool) {
	machine = normalize(override)
	if len(machine) == 0 {
		machine = HostMachine(ctx, inv)
	}
	return machine, d.SupportsRaceDetection(machine)
}
