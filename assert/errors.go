package assert

import (
	"fmt"
	"strings"
)

// Collector collects errors and can join them with the specified join string.
// This is a little bit more convenient than maintaining a slice and using [errors.Join].
//
// Note that a Collector is not concurrency safe.
type Collector struct {
	errs    []error
	joinStr string
	prefix  string
}

// CollectErrors creates a new Collector, optionally with a join string that differs from the default of "\n".
func CollectErrors(joinString ...string) *Collector {
	joinStr := "\n"
	if len(joinString) > 0 {
		joinStr = joinString[0]
	}
	return &Collector{
		joinStr: joinStr,
	}
}

// Prefix sets a leading message that is only included in [Collector.Error] output if any errors were added.
func (c *Collector) Prefix(format string, args ...any) *Collector {
	c.prefix = fmt.Sprintf(format, args...)
	return c
}

// Add adds a new, potentially nil error to the Collector.
// Nil errors will not be included.
func (c *Collector) Add(err error) *Collector {
	if err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// Addf allows creating an error with [fmt.Errorf], which means that the "%w" verb may be used.
func (c *Collector) Addf(msg string, args ...any) *Collector {
	return c.Add(fmt.Errorf(msg, args...))
}

// Check adds an error created with [fmt.Errorf] only if ok is false.
func (c *Collector) Check(ok bool, msg string, args ...any) *Collector {
	if ok {
		return c
	}
	return c.Addf(msg, args...)
}

// Len returns the number of errors collected so far.
func (c *Collector) Len() int {
	return len(c.errs)
}

// Result will return nil if no errors have been added to the Collector.
// Otherwise, it will return itself.
//
// This is provided because returning an empty Collector is still returning a non-nil error.
func (c *Collector) Result() error {
	if len(c.errs) > 0 {
		return c
	}
	return nil
}

// Error satisfies the error interface.
func (c *Collector) Error() string {
	var buf strings.Builder
	if len(c.prefix) > 0 {
		buf.WriteString(c.prefix)
		buf.WriteString(c.joinStr)
	}
	for i, err := range c.errs {
		if i > 0 {
			buf.WriteString(c.joinStr)
		}
		buf.WriteString(err.Error())
	}
	return buf.String()
}

// Unwrap allows using [errors.Is] and [errors.As] to identify any error in the Collector.
func (c *Collector) Unwrap() []error {
	return c.errs
}
