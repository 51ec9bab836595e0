package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ecsFields = "\ufeffField_Set,Field,Level,Description,Example\n" +
	"base,@timestamp,core,Date/time when the event originated.,2016-05-23\n" +
	"agent,agent.name,core,Custom name of the agent.,foo\n" +
	",,,,\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestIngest_CSVJoinsConfiguredFields(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "fields.csv", ecsFields)

	in := New(Options{Fields: []string{"Field_Set", "Field", "Level", "Description"}})
	texts, err := in.Ingest([]string{p})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"base @timestamp core Date/time when the event originated.",
		"agent agent.name core Custom name of the agent.",
	}, texts)
}

func TestIngest_CSVAllColumnsByDefault(t *testing.T) {
	in := New(Options{Comma: ';'})
	texts, err := in.parseCSV("inline", strings.NewReader("a;b\n1;2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 2"}, texts)
}

func TestIngest_CSVErrors(t *testing.T) {
	in := New(Options{Fields: []string{"Missing"}})
	_, err := in.parseCSV("x.csv", strings.NewReader("a,b\n1,2\n"))
	assert.ErrorContains(t, err, `x.csv: column "Missing" not found`)

	_, err = in.parseCSV("empty.csv", strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header row")
}

func TestIngest_TextAndGlobOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Beta one. Beta two.")
	writeFile(t, dir, "a.txt", "Alpha one. Alpha two. Alpha three.")
	writeFile(t, dir, "notes.md", "ignored")
	csvPath := writeFile(t, dir, "z.csv", "text\nfrom csv\n")

	in := New(Options{SentencesPerChunk: 2})
	texts, err := in.Ingest([]string{csvPath, filepath.Join(dir, "*.txt"), filepath.Join(dir, "*.md")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"from csv",
		"Alpha one. Alpha two.",
		"Alpha three.",
		"Beta one. Beta two.",
	}, texts)
}

func TestIngest_NoUsableInputs(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "readme.md", "x")
	_, err := New(Options{}).Ingest([]string{md})
	assert.ErrorContains(t, err, "no .csv or .txt inputs")

	blank := writeFile(t, dir, "blank.txt", "   ")
	_, err = New(Options{}).Ingest([]string{blank})
	assert.ErrorContains(t, err, "no text")

	_, err = New(Options{}).Ingest([]string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}

func TestIngest_MalformedPattern(t *testing.T) {
	_, err := New(Options{}).Ingest([]string{"data/[fields.csv"})
	assert.ErrorIs(t, err, filepath.ErrBadPattern)
	assert.ErrorContains(t, err, `"data/[fields.csv"`)
}
