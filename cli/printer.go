package cli

import (
	"fmt"
	"io"
	"os"
)

// Printer is where user-visible output goes, which is [os.Stderr] by default.
type Printer struct {
	out io.Writer
}

func NewPrinter() *Printer {
	return &Printer{out: os.Stderr}
}

func (p *Printer) Redirect(writer io.Writer) {
	p.out = writer
}

// Out is the current destination, for writers that render directly, like tables.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Write makes a [Printer] usable as an [io.Writer] that follows redirects.
func (p *Printer) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

func (p *Printer) Print(msg ...any) {
	_, _ = fmt.Fprint(p.out, msg...)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Println(msg ...any) {
	_, _ = fmt.Fprintln(p.out, msg...)
}
