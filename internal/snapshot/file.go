package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"semsearch/internal/domain"
)

// Codec is the compression applied to a JSON snapshot.
type Codec int

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	}
	return "none"
}

// CodecFor picks the codec from the file extension: .zst and .zstd select
// zstd, .lz4 selects lz4, anything else is plain JSON.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CodecZstd
	case ".lz4":
		return CodecLZ4
	}
	return CodecNone
}

// File keeps the snapshot as a JSON array in a single file.
type File struct {
	path  string
	codec Codec
}

var _ Store = (*File)(nil)

// NewFile creates a file store. The codec follows the extension.
func NewFile(path string) *File {
	return &File{path: path, codec: CodecFor(path)}
}

// Path returns the snapshot location.
func (f *File) Path() string { return f.path }

func (f *File) Exists(context.Context) (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (f *File) Load(context.Context) ([]domain.Record, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	switch f.codec {
	case CodecZstd:
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	case CodecLZ4:
		r = lz4.NewReader(file)
	}
	return decodeJSON(r)
}

// Save writes to a temporary file next to the target and renames it into
// place, so a crash never leaves a truncated snapshot behind.
func (f *File) Save(_ context.Context, records []domain.Record) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeCompressed(tmp, f.codec, records); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Close() error { return nil }

func writeCompressed(w io.Writer, codec Codec, records []domain.Record) error {
	switch codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := encodeJSON(enc, records); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case CodecLZ4:
		zw := lz4.NewWriter(w)
		if err := encodeJSON(zw, records); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return encodeJSON(w, records)
}
