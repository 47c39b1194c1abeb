// Package packages enumerates the testable Go packages of a project.
package packages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/tispbuild/contextx"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/iterx"
	"golang.org/x/mod/module"
	"iter"
	"path"
)

var (
	ErrList          = errors.New("failed to list packages")
	ErrInvalidImport = errors.New("invalid import path")
)

// Ref names a single package by import path.
type Ref string

func (r Ref) String() string {
	return string(r)
}

// Enumerator lists packages with the go tool.
type Enumerator struct {
	Invoker  invoke.Invoker
	Dir      string   // Dir is the directory the go tool runs in, usually the module root.
	GoBinary string   // GoBinary defaults to "go".
	Exclude  []string // Exclude holds [path.Match] patterns of import paths to skip.
}

func (e *Enumerator) goBinary() string {
	if len(e.GoBinary) == 0 {
		return "go"
	}
	return e.GoBinary
}

// Enumerate returns a lazy sequence of the packages matching root, such as "./src/lib/...".
//
// Nothing is queried until the sequence is ranged over, and ranging again queries again.
// Packages are yielded in the order reported by the go tool.
// If listing fails, or ctx ends between packages, a single zero [Ref] is yielded with the error, and the sequence ends.
func (e *Enumerator) Enumerate(ctx context.Context, root string) iter.Seq2[Ref, error] {
	return func(yield func(Ref, error) bool) {
		refs, err := e.list(ctx, root)
		if err != nil {
			yield("", err)
			return
		}
		for ref := range refs.Seq() {
			if contextx.IsDone(ctx) {
				yield("", contextx.Err(ctx))
				return
			}
			if !yield(ref, nil) {
				return
			}
		}
	}
}

func (e *Enumerator) list(ctx context.Context, root string) (iterx.SliceIter[Ref], error) {
	keep, err := excludeFilter(e.Exclude)
	if err != nil {
		return nil, err
	}
	cmd := invoke.Cmd(e.goBinary(), "list", root).InDir(e.Dir).Quiet().Captured()
	result, err := e.Invoker.Invoke(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrList, root, err)
	}
	fields := bytes.Fields(result.Stdout)
	refs := make([]Ref, len(fields))
	for i, field := range fields {
		if err := module.CheckImportPath(string(field)); err != nil {
			return nil, fmt.Errorf("%w from %s: %w", ErrInvalidImport, root, err)
		}
		refs[i] = Ref(field)
	}
	return iterx.Select(refs, keep), nil
}

func excludeFilter(patterns []string) (iterx.Filter[Ref], error) {
	excluded := iterx.None[Ref]()
	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("exclude pattern '%s': %w", pattern, err)
		}
		excluded = excluded.Or(func(ref Ref) bool {
			matched, _ := path.Match(pattern, string(ref))
			return matched
		})
	}
	return iterx.NoZeroValues[Ref]().And(iterx.Invert(excluded)), nil
}

// Collect drains a package sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Ref, error]) ([]Ref, error) {
	var refs []Ref
	for ref, err := range seq {
		if err != nil {
			return refs, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
