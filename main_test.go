package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eqsvg/eqsvg/internal/typeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	svg       string
	err       error
	callCount int
	lastReq   typeset.Request
}

func (m *mockBackend) Typeset(ctx context.Context, req typeset.Request) (string, error) {
	m.callCount++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.svg, nil
}

func TestRunConvert(t *testing.T) {
	t.Run("piped stdin produces the same output as the input flag", func(t *testing.T) {
		flagBackend := &mockBackend{svg: "<svg>y=mx+b</svg>"}
		flagOut := &bytes.Buffer{}
		err := runConvert(context.Background(), convertOptions{Input: "y=mx+b"}, flagBackend, strings.NewReader(""), flagOut, &bytes.Buffer{})
		require.NoError(t, err)

		pipeBackend := &mockBackend{svg: "<svg>y=mx+b</svg>"}
		pipeOut := &bytes.Buffer{}
		err = runConvert(context.Background(), convertOptions{}, pipeBackend, strings.NewReader("y=mx+b"), pipeOut, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, flagOut.String(), pipeOut.String())
		assert.Equal(t, flagBackend.lastReq, pipeBackend.lastReq)
		assert.Equal(t, "<svg>y=mx+b</svg>", pipeOut.String())
	})

	t.Run("empty input is rejected without a backend call", func(t *testing.T) {
		be := &mockBackend{svg: "<svg/>"}
		err := runConvert(context.Background(), convertOptions{}, be, strings.NewReader("  \n"), &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no equation provided")
		assert.Equal(t, 0, be.callCount)
	})

	t.Run("output flag writes the SVG to a file with a confirmation diagnostic", func(t *testing.T) {
		be := &mockBackend{svg: "<svg>file</svg>"}
		path := filepath.Join(t.TempDir(), "out.svg")
		out := &bytes.Buffer{}
		errOut := &bytes.Buffer{}

		err := runConvert(context.Background(), convertOptions{Input: "x", Output: path}, be, strings.NewReader(""), out, errOut)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<svg>file</svg>", string(data))
		assert.Empty(t, out.String(), "SVG must not also go to stdout")
		assert.Contains(t, errOut.String(), "SVG written to")
	})

	t.Run("invalid format is rejected naming the allowed set", func(t *testing.T) {
		be := &mockBackend{svg: "<svg/>"}
		err := runConvert(context.Background(), convertOptions{Input: "x", Format: "docx"}, be, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TeX, MathML, AsciiMath")
		assert.Equal(t, 0, be.callCount)
	})

	t.Run("empty format defaults to TeX in display mode", func(t *testing.T) {
		be := &mockBackend{svg: "<svg/>"}
		err := runConvert(context.Background(), convertOptions{Input: "x^2"}, be, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, typeset.FormatTeX, be.lastReq.Format)
		assert.True(t, be.lastReq.Display)
	})

	t.Run("inline flag maps to non-display rendering", func(t *testing.T) {
		be := &mockBackend{svg: "<svg/>"}
		err := runConvert(context.Background(), convertOptions{Input: "x", Inline: true}, be, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, be.lastReq.Display)
	})

	t.Run("backend failure propagates", func(t *testing.T) {
		be := &mockBackend{err: &typeset.BackendError{Messages: []string{"bad TeX"}}}
		err := runConvert(context.Background(), convertOptions{Input: "\\oops"}, be, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad TeX")
	})
}
