// Package store keeps converted SVG documents and their placeholder
// bitmaps in memory for the RPC bitmap methods. Bitmap "rendering" is
// a deliberate stub: the stored bytes are the SVG itself, base64
// encoded on the wire, with declared dimensions. No rasterization
// happens anywhere in this repository.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Default dimensions declared for a placeholder bitmap when the
// request does not specify them.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Bitmap holds placeholder bitmap bytes and their declared dimensions.
// Data serialises as base64 via encoding/json.
type Bitmap struct {
	Data   []byte `json:"data"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// RenderResult is the outcome of a placeholder render.
type RenderResult struct {
	ID     string `json:"id"`
	Cached bool   `json:"cached"`
	Bitmap Bitmap `json:"bitmap"`
}

// Store is a process-local map of SVG documents and placeholder
// bitmaps keyed by opaque id. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	svgs    map[string]string
	bitmaps map[string]Bitmap
}

// New returns an empty store.
func New() *Store {
	return &Store{
		svgs:    make(map[string]string),
		bitmaps: make(map[string]Bitmap),
	}
}

// GenerateID derives a stable opaque id from the SVG content.
func GenerateID(svg string) string {
	sum := sha256.Sum256([]byte(svg))
	return hex.EncodeToString(sum[:])[:16]
}

// SVG returns a stored SVG document by id.
func (s *Store) SVG(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svg, ok := s.svgs[id]
	return svg, ok
}

// Bitmap returns a stored placeholder bitmap by id.
func (s *Store) Bitmap(id string) (Bitmap, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm, ok := s.bitmaps[id]
	return bm, ok
}

// Render stores the SVG under the given id (or one derived from its
// content) and records a placeholder bitmap for it. The stored SVG is
// always overwritten so it stays consistent with the bitmap; Cached
// reports whether the id was already present. The bitmap bytes are the
// SVG itself; width and height default to 800x600 when zero.
func (s *Store) Render(svg, id string, width, height uint32) RenderResult {
	if id == "" {
		id = GenerateID(svg)
	}
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, cached := s.svgs[id]
	s.svgs[id] = svg

	bm := Bitmap{Data: []byte(svg), Width: width, Height: height}
	s.bitmaps[id] = bm

	return RenderResult{ID: id, Cached: cached, Bitmap: bm}
}

// Lookup returns the placeholder bitmap for a previously rendered id.
func (s *Store) Lookup(id string) (Bitmap, error) {
	bm, ok := s.Bitmap(id)
	if !ok {
		return Bitmap{}, fmt.Errorf("bitmap not found: %s", id)
	}
	return bm, nil
}
