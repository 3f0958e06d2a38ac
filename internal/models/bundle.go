package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
)

// ProjectFile is one file of a project bundle.
type ProjectFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	IsBinary bool   `json:"isBinary,omitempty"`
}

// Bundle is an ordered mapping of path to ProjectFile with exactly one
// designated entry file.
type Bundle struct {
	Framework framework.Name
	EntryPath string
	// Verified is false when structural repair could not balance the source.
	Verified bool

	files []ProjectFile
	index map[string]int
}

// NewBundle returns an empty bundle whose entry file will be entryPath.
func NewBundle(fw framework.Name, entryPath string) *Bundle {
	return &Bundle{Framework: fw, EntryPath: entryPath, Verified: true, index: make(map[string]int)}
}

// Add appends a file. Paths must be unique.
func (b *Bundle) Add(f ProjectFile) error {
	if f.Path == "" {
		return fmt.Errorf("bundle file without path")
	}
	if _, dup := b.index[f.Path]; dup {
		return fmt.Errorf("duplicate bundle path %s", f.Path)
	}
	b.index[f.Path] = len(b.files)
	b.files = append(b.files, f)
	return nil
}

// File returns the file stored at path.
func (b *Bundle) File(path string) (ProjectFile, bool) {
	i, ok := b.index[path]
	if !ok {
		return ProjectFile{}, false
	}
	return b.files[i], true
}

// Entry returns the designated entry file.
func (b *Bundle) Entry() (ProjectFile, bool) { return b.File(b.EntryPath) }

// Files returns a copy of the files in insertion order.
func (b *Bundle) Files() []ProjectFile {
	out := make([]ProjectFile, len(b.files))
	copy(out, b.files)
	return out
}

// Paths returns the file paths in insertion order.
func (b *Bundle) Paths() []string {
	out := make([]string, len(b.files))
	for i, f := range b.files {
		out[i] = f.Path
	}
	return out
}

// Len returns the number of files.
func (b *Bundle) Len() int { return len(b.files) }

// Hash returns a hex SHA-256 over the ordered paths and contents.
func (b *Bundle) Hash() string {
	h := sha256.New()
	for _, f := range b.files {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		if f.IsBinary {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		h.Write([]byte(f.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
