package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/eqsvg/eqsvg/internal/typeset"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script standing in for the
// renderer process.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake renderer scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "renderer.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTypeset(t *testing.T) {
	t.Run("returns the svg from the response line", func(t *testing.T) {
		script := writeScript(t, `
echo "Running in stdio mode" >&2
while read line; do
  echo '{"svg":"<svg>ok</svg>","errors":[]}'
done
`)
		be := NewMathJax(script, testLogger())
		defer func() { _ = be.Close() }()

		svg, err := be.Typeset(context.Background(), typeset.Request{Markup: "x^2", Format: typeset.FormatTeX, Display: true})
		require.NoError(t, err)
		assert.Equal(t, "<svg>ok</svg>", svg)

		// Second call reuses the running process.
		svg, err = be.Typeset(context.Background(), typeset.Request{Markup: "y", Format: typeset.FormatTeX, Display: true})
		require.NoError(t, err)
		assert.Equal(t, "<svg>ok</svg>", svg)
	})

	t.Run("renderer errors surface as BackendError", func(t *testing.T) {
		script := writeScript(t, `
echo "Running in stdio mode" >&2
while read line; do
  echo '{"svg":"","errors":["undefined control sequence","missing brace"]}'
done
`)
		be := NewMathJax(script, testLogger())
		defer func() { _ = be.Close() }()

		_, err := be.Typeset(context.Background(), typeset.Request{Markup: "\\oops", Format: typeset.FormatTeX, Display: true})
		var berr *typeset.BackendError
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, []string{"undefined control sequence", "missing brace"}, berr.Messages)
	})

	t.Run("wrong startup banner is rejected", func(t *testing.T) {
		script := writeScript(t, `
echo "hello world" >&2
sleep 1
`)
		be := NewMathJax(script, testLogger())
		defer func() { _ = be.Close() }()

		_, err := be.Typeset(context.Background(), typeset.Request{Markup: "x", Format: typeset.FormatTeX, Display: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected renderer output")
	})

	t.Run("missing script fails to start", func(t *testing.T) {
		be := NewMathJax(filepath.Join(t.TempDir(), "absent"), testLogger())
		defer func() { _ = be.Close() }()

		_, err := be.Typeset(context.Background(), typeset.Request{Markup: "x", Format: typeset.FormatTeX, Display: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start renderer")
	})

	t.Run("cancelled context short circuits", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		be := NewMathJax("irrelevant", testLogger())
		_, err := be.Typeset(ctx, typeset.Request{Markup: "x", Format: typeset.FormatTeX, Display: true})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCloseWithoutStart(t *testing.T) {
	be := NewMathJax("irrelevant", testLogger())
	assert.NoError(t, be.Close())
}

func TestRequestWireFormat(t *testing.T) {
	// The renderer consumes {math, format, svg, display}; inline mode
	// is display=false.
	script := writeScript(t, `
echo "Running in stdio mode" >&2
read line
printf '{"svg":"%s","errors":[]}\n' "$(echo "$line" | tr -d '\n' | sed 's/"/\\"/g')"
`)
	be := NewMathJax(script, testLogger())
	defer func() { _ = be.Close() }()

	echoed, err := be.Typeset(context.Background(), typeset.Request{Markup: "a+b", Format: typeset.FormatAsciiMath, Display: false})
	require.NoError(t, err)
	assert.Contains(t, echoed, `"math":"a+b"`)
	assert.Contains(t, echoed, `"format":"AsciiMath"`)
	assert.Contains(t, echoed, `"display":false`)
}
