package cli

import "context"

// PreExec is a function that may run before execution of a [Command], after its flags are parsed.
type PreExec func(ctx context.Context, cmd *Command) error

// PreExec registers a function that will be executed right before any [Command] in this set runs.
// If an error is returned from a [PreExec], then the [Command] will not be executed, and the error will be returned from Exec instead.
// No [PreExec] is run when only usage information is printed.
//
// Passing a nil [PreExec] function to this method will panic.
func (s *CommandSet) PreExec(fn PreExec) *CommandSet {
	if fn == nil {
		panic("nil pre-exec function")
	}
	s.preExec = append(s.preExec, fn)
	return s
}

func (s *CommandSet) runPreExec(ctx context.Context, cmd *Command) error {
	for _, fn := range s.preExec {
		if err := fn(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
