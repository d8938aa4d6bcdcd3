// Package backend drives the external MathJax renderer process. The
// renderer is launched in stdio mode and spoken to over newline
// delimited JSON: one request line in, one response line out. The
// renderer owns all layout, font handling, and caching; this package
// treats it as a black box.
package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/eqsvg/eqsvg/internal/typeset"
	"github.com/sirupsen/logrus"
)

// startupBanner is the first stderr line the renderer emits once its
// stdio loop is ready.
const startupBanner = "Running in stdio mode"

// request is one line written to the renderer.
type request struct {
	Math    string `json:"math"`
	Format  string `json:"format"`
	SVG     bool   `json:"svg"`
	Display bool   `json:"display"`
}

// response is one line read back from the renderer. Errors holds the
// typesetting error messages; a non-empty list means no usable SVG.
type response struct {
	SVG    string   `json:"svg"`
	Errors []string `json:"errors"`
}

// MathJax runs the renderer script as a child process and implements
// typeset.Backend over its stdio protocol. The child is started lazily
// on the first call and killed by Close. Requests are serialised: the
// protocol has no interleaving, so one call is in flight at a time.
type MathJax struct {
	scriptPath string
	logger     *logrus.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  *json.Encoder
	stdout *bufio.Reader
}

// NewMathJax returns a backend for the renderer script at scriptPath.
// The process is not started until the first Typeset call.
func NewMathJax(scriptPath string, logger *logrus.Logger) *MathJax {
	return &MathJax{scriptPath: scriptPath, logger: logger}
}

// ensureStarted launches the renderer if it is not already running.
// Callers must hold m.mu.
func (m *MathJax) ensureStarted() error {
	if m.cmd != nil {
		return nil
	}

	cmd := exec.Command(m.scriptPath, "stdio")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("renderer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("renderer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("renderer stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start renderer %s: %w", m.scriptPath, err)
	}

	// The renderer announces readiness on stderr before accepting
	// requests. Anything else means we launched the wrong thing.
	banner, err := bufio.NewReader(stderr).ReadString('\n')
	if err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("renderer startup: %w", err)
	}
	if !strings.Contains(banner, startupBanner) {
		_ = cmd.Process.Kill()
		return fmt.Errorf("unexpected renderer output: %s", strings.TrimSpace(banner))
	}

	m.logger.WithField("script", m.scriptPath).Debug("Renderer process started")
	m.cmd = cmd
	m.stdin = json.NewEncoder(stdin)
	m.stdout = bufio.NewReaderSize(stdout, 1024*1024)
	return nil
}

// Typeset sends one conversion request to the renderer and waits for
// its response line. There is no timeout at this layer: a hung
// renderer hangs the request.
func (m *MathJax) Typeset(ctx context.Context, req typeset.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStarted(); err != nil {
		return "", err
	}

	wire := request{
		Math:    req.Markup,
		Format:  string(req.Format),
		SVG:     true,
		Display: req.Display,
	}
	if err := m.stdin.Encode(&wire); err != nil {
		return "", fmt.Errorf("failed to write to renderer: %w", err)
	}

	line, err := m.stdout.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read from renderer: %w", err)
	}

	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return "", fmt.Errorf("malformed renderer response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return "", &typeset.BackendError{Messages: resp.Errors}
	}
	return strings.TrimSpace(resp.SVG), nil
}

// Close kills the renderer process if it was started.
func (m *MathJax) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return nil
	}
	err := m.cmd.Process.Kill()
	_ = m.cmd.Wait()
	m.cmd = nil
	return err
}
