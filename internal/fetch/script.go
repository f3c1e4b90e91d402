package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ScriptProvider runs the scraper script as a subprocess and parses its JSON
// stdout. The script opens a full browser session per call, which is why the
// poller enforces strictly sequential, paced invocations.
type ScriptProvider struct {
	PythonBin  string
	ScriptPath string
}

// NewScriptProvider creates a provider around the given interpreter and script.
func NewScriptProvider(pythonBin, scriptPath string) *ScriptProvider {
	return &ScriptProvider{PythonBin: pythonBin, ScriptPath: scriptPath}
}

// Fetch invokes the script with (origin, destination, date) arguments. The
// context bounds the whole subprocess lifetime; a stuck browser session is
// killed when the deadline passes.
func (p *ScriptProvider) Fetch(ctx context.Context, origin, destination, date string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.PythonBin, p.ScriptPath, origin, destination, date)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		log.Printf("[Fetch/script] %s", msg)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch script timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("fetch script failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &result); err != nil {
		out := stdout.String()
		if len(out) > 500 {
			out = out[:500]
		}
		return nil, fmt.Errorf("failed to parse fetch script output: %w (stdout: %q)", err, out)
	}
	if result.Source == "" {
		result.Source = SourcePrimary
	}
	return &result, nil
}
