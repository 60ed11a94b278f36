// Package editor defines the text surface the engine edits and navigates.
package editor

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/buemura/contractlens/pkg/types"
)

// ErrOutOfRange is returned when a range does not address the current text.
var ErrOutOfRange = errors.New("range outside text")

// Editor is implemented by whatever hosts the source being analyzed.
type Editor interface {
	Text() string
	Replace(r types.Range, text string) error
	SetSelection(r types.Range) error
	RevealRange(r types.Range) error
}

// Buffer is an in-memory Editor safe for concurrent use.
type Buffer struct {
	mu        sync.RWMutex
	text      string
	selection types.Range
	revealed  types.Range
	version   int
}

func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// SetText replaces the whole buffer.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.version++
}

// Version increments on every change.
func (b *Buffer) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *Buffer) Replace(r types.Range, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end, ok := types.NewSource(b.text).Span(r)
	if !ok {
		return fmt.Errorf("replace %d:%d-%d:%d: %w", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn, ErrOutOfRange)
	}
	b.text = b.text[:start] + text + b.text[end:]
	b.version++
	return nil
}

func (b *Buffer) SetSelection(r types.Range) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !types.NewSource(b.text).Contains(r) {
		return fmt.Errorf("select: %w", ErrOutOfRange)
	}
	b.selection = r
	return nil
}

func (b *Buffer) RevealRange(r types.Range) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !types.NewSource(b.text).Contains(r) {
		return fmt.Errorf("reveal: %w", ErrOutOfRange)
	}
	b.revealed = r
	return nil
}

// Selection returns the last selected range.
func (b *Buffer) Selection() types.Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection
}

// Revealed returns the last revealed range.
func (b *Buffer) Revealed() types.Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revealed
}

// FileBuffer is a Buffer backed by a file. Every Replace is written through.
type FileBuffer struct {
	*Buffer
	path string
	perm os.FileMode
}

// OpenFile loads path into a FileBuffer.
func OpenFile(path string) (*FileBuffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &FileBuffer{Buffer: NewBuffer(string(data)), path: path, perm: info.Mode().Perm()}, nil
}

func (f *FileBuffer) Path() string { return f.path }

func (f *FileBuffer) Replace(r types.Range, text string) error {
	if err := f.Buffer.Replace(r, text); err != nil {
		return err
	}
	return f.Save()
}

// Save writes the buffer to its file.
func (f *FileBuffer) Save() error {
	if err := os.WriteFile(f.path, []byte(f.Text()), f.perm); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

// Reload replaces the buffer with the file's current content and reports
// whether it changed.
func (f *FileBuffer) Reload() (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if string(data) == f.Text() {
		return false, nil
	}
	f.SetText(string(data))
	return true, nil
}
