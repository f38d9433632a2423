// Package tool invokes the external command-line collaborators: a
// DICOM header dump tool (dcmdump) and a DICOM-to-NIfTI converter
// (dcm2niix). Every invocation is synchronous, attempted exactly
// once, and bounded by an optional timeout.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolError reports a collaborator process that exited non-zero, was
// killed by the timeout, or produced no output.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("external tool %s failed", e.Tool)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += " (" + s + ")"
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a new tool error
func NewToolError(tool, stderr string, err error) *ToolError {
	return &ToolError{Tool: tool, Stderr: stderr, Err: err}
}

// run executes one collaborator invocation and returns its stdout.
// The subprocess is always reaped, on success and on failure, and the
// context bounds its lifetime.
func run(ctx context.Context, timeout time.Duration, bin string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", NewToolError(bin, stderr.String(), err)
	}
	return stdout.String(), nil
}

// HeaderDumper runs the header dump tool. The tool is expected to
// print the requested tags as whitespace-separated name/value pairs
// with bracket-decorated values, one --search option per tag code.
type HeaderDumper struct {
	// Bin is the dump tool binary, resolved via PATH when relative.
	Bin string
	// Timeout bounds one invocation; zero means no bound.
	Timeout time.Duration
}

// Dump invokes the tool scoped to exactly the given tag codes and
// returns its raw text output. Empty output is a failure: it means
// the tool could not read the file at all.
func (d *HeaderDumper) Dump(ctx context.Context, codes []string, path string) (string, error) {
	args := make([]string, 0, 2*len(codes)+1)
	for _, code := range codes {
		args = append(args, "--search", code)
	}
	args = append(args, path)

	out, err := run(ctx, d.Timeout, d.Bin, args...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", NewToolError(d.Bin, "", fmt.Errorf("no output for %s", path))
	}
	return out, nil
}

// NiftiConverter runs the DICOM-to-NIfTI conversion tool against a
// source directory. The converter writes the NIfTI files itself; its
// text output is returned verbatim for display and never parsed.
type NiftiConverter struct {
	Bin     string
	Timeout time.Duration
}

// Convert invokes the converter on the source directory.
func (c *NiftiConverter) Convert(ctx context.Context, dir string) (string, error) {
	return run(ctx, c.Timeout, c.Bin, dir)
}
