package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrRenderUnavailable is returned when the Graphviz binary is missing or
// rasterization fails. Callers treat it as a degradation, not a run failure:
// the report is still produced, just without the diagram image.
var ErrRenderUnavailable = errors.New("diagram rendering unavailable")

// DefaultRenderTimeout bounds one Graphviz invocation.
const DefaultRenderTimeout = 30 * time.Second

// Renderer rasterizes DOT text to PNG by invoking the Graphviz `dot`
// binary. The zero value is usable.
type Renderer struct {
	// Binary overrides the Graphviz executable name. Empty means "dot".
	Binary string

	// Timeout bounds one invocation. Zero means DefaultRenderTimeout.
	Timeout time.Duration
}

// RenderPNG pipes dotSource through Graphviz and writes the PNG to outPath
// atomically (temp file then rename), so a failed render never leaves a
// partial image behind. A missing binary, a non-zero exit, or a timeout all
// surface as ErrRenderUnavailable.
func (r *Renderer) RenderPNG(ctx context.Context, dotSource, outPath string) error {
	binary := r.Binary
	if binary == "" {
		binary = "dot"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrRenderUnavailable, binary)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-Tpng")
	cmd.Stdin = bytes.NewReader([]byte(dotSource))
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s: %s", ErrRenderUnavailable, binary, msg)
	}

	tmp := outPath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	if err := os.WriteFile(tmp, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	return nil
}
