// Package ingest turns input files into the ordered list of texts that make
// up the corpus: one text per CSV row, or sentence chunks of plain-text files.
package ingest

import (
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"semsearch/internal/chunker"
	"semsearch/internal/domain"
)

// Options configures a FileIngestor.
type Options struct {
	// Fields are the CSV columns joined into a record's text. Empty means all
	// columns in header order.
	Fields []string
	// Comma is the CSV field delimiter; zero means ','.
	Comma             rune
	SentencesPerChunk int
	OverlapSentences  int
}

// FileIngestor reads .csv and .txt inputs.
type FileIngestor struct {
	fields  []string
	comma   rune
	chunker domain.Chunker
}

var _ domain.Ingestor = (*FileIngestor)(nil)

// New creates a FileIngestor.
func New(opts Options) *FileIngestor {
	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}
	return &FileIngestor{
		fields:  opts.Fields,
		comma:   comma,
		chunker: chunker.NewSentenceChunker(opts.SentencesPerChunk, opts.OverlapSentences),
	}
}

// Ingest expands glob patterns and returns the texts in argument order,
// then match order, then row or chunk order. Files with other extensions
// are skipped; blank texts are dropped.
func (in *FileIngestor) Ingest(paths []string) ([]string, error) {
	var texts []string
	files := 0
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("input pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			var (
				got []string
				err error
			)
			switch strings.ToLower(filepath.Ext(m)) {
			case ".csv":
				got, err = in.readCSV(m)
			case ".txt":
				got, err = in.readText(m)
			default:
				continue
			}
			if err != nil {
				return nil, err
			}
			files++
			texts = append(texts, got...)
		}
	}
	if files == 0 {
		return nil, errors.New("no .csv or .txt inputs found")
	}
	if len(texts) == 0 {
		return nil, errors.New("inputs contain no text")
	}
	return texts, nil
}

func (in *FileIngestor) readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return in.parseCSV(path, f)
}

func (in *FileIngestor) parseCSV(name string, r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = in.comma
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header row", name)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	columns := make([]int, 0, len(header))
	if len(in.fields) == 0 {
		for i := range header {
			columns = append(columns, i)
		}
	} else {
		index := make(map[string]int, len(header))
		for i, h := range header {
			index[strings.TrimSpace(h)] = i
		}
		for _, field := range in.fields {
			i, ok := index[field]
			if !ok {
				return nil, fmt.Errorf("%s: column %q not found", name, field)
			}
			columns = append(columns, i)
		}
	}

	var texts []string
	parts := make([]string, len(columns))
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for i, col := range columns {
			parts[i] = row[col]
		}
		text := strings.Join(parts, " ")
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (in *FileIngestor) readText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chunks, err := in.chunker.Chunk(domain.Document{ID: hashString(path), Path: path, Content: string(data)})
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	return texts, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
