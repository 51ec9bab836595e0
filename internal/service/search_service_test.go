package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/ann"
	"semsearch/internal/domain"
	"semsearch/internal/embedding/tfidf"
	"semsearch/internal/ingest"
	"semsearch/internal/logging"
	"semsearch/internal/snapshot"
)

const fieldsCSV = `Field_Set,Field,Level,Description
base,@timestamp,core,Date/time when the event originated.
agent,agent.name,core,Custom name of the agent.
host,host.ip,extended,Host ip addresses.
http,http.request.method,extended,HTTP request method.
log,log.level,core,Original log level of the log event.
source,source.port,core,Port of the source.
`

type sliceIngestor struct {
	texts []string
	err   error
	calls int
}

func (s *sliceIngestor) Ingest([]string) ([]string, error) {
	s.calls++
	return s.texts, s.err
}

type memSnapshots struct {
	records []domain.Record
	saves   int
}

func (m *memSnapshots) Exists(context.Context) (bool, error) { return m.records != nil, nil }

func (m *memSnapshots) Load(context.Context) ([]domain.Record, error) { return m.records, nil }

func (m *memSnapshots) Save(_ context.Context, records []domain.Record) error {
	m.saves++
	m.records = records
	return nil
}

func (m *memSnapshots) Close() error { return nil }

func newService(ing domain.Ingestor, snaps domain.SnapshotStore) *SearchServiceImpl {
	return NewSearchService(ing, tfidf.NewEmbedder(), snaps, ann.DefaultConfig(), WithLogger(logging.Discard()))
}

func TestOpen_IngestsThenReusesSnapshot(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "fields.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(fieldsCSV), 0o644))
	snapPath := filepath.Join(dir, "embeddings.json.zst")
	ctx := context.Background()

	ing := ingest.New(ingest.Options{Fields: []string{"Field_Set", "Field", "Level", "Description"}})
	svc := newService(ing, snapshot.NewFile(snapPath))
	summary, err := svc.Open(ctx, []string{csvPath}, false)
	require.NoError(t, err)
	assert.Contains(t, summary, "6 records from inputs")
	assert.FileExists(t, snapPath)

	first, err := svc.Query(ctx, "log level", 3)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 4, first[0].ID)
	assert.Equal(t, "log log.level core Original log level of the log event.", first[0].Text)
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Distance, first[i].Distance)
	}

	// A second process reloads the snapshot without touching the inputs.
	failing := &sliceIngestor{err: errors.New("inputs must not be read")}
	again := newService(failing, snapshot.NewFile(snapPath))
	summary, err = again.Open(ctx, nil, false)
	require.NoError(t, err)
	assert.Contains(t, summary, "6 records from snapshot")
	assert.Zero(t, failing.calls)

	second, err := again.Query(ctx, "log level", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = again.Open(ctx, nil, true)
	assert.ErrorContains(t, err, "inputs must not be read")
	assert.Equal(t, 1, failing.calls)
}

func TestOpen_RebuildReplacesSnapshot(t *testing.T) {
	snaps := &memSnapshots{}
	ing := &sliceIngestor{texts: []string{"alpha beta", "gamma delta"}}
	svc := newService(ing, snaps)
	ctx := context.Background()

	_, err := svc.Open(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, snaps.saves)

	_, err = svc.Open(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, ing.calls)

	ing.texts = []string{"epsilon", "zeta eta", "theta"}
	summary, err := svc.Open(ctx, nil, true)
	require.NoError(t, err)
	assert.Contains(t, summary, "3 records from inputs")
	assert.Equal(t, 2, snaps.saves)

	stats, ok := svc.Stats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Items)
	assert.Len(t, stats.Trees, 10)
}

func TestOpen_SnapshotFromDifferentEmbedder(t *testing.T) {
	snaps := &memSnapshots{records: []domain.Record{
		{ID: 0, Text: "alpha beta", Vector: []float32{1, 0, 0}},
		{ID: 1, Text: "gamma delta", Vector: []float32{0, 1, 0}},
	}}
	_, err := newService(&sliceIngestor{}, snaps).Open(context.Background(), nil, false)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestQuery_Errors(t *testing.T) {
	svc := newService(&sliceIngestor{texts: []string{"alpha", "beta"}}, &memSnapshots{})
	ctx := context.Background()

	_, err := svc.Query(ctx, "alpha", 3)
	assert.ErrorIs(t, err, domain.ErrNotBuilt)
	_, ok := svc.Stats()
	assert.False(t, ok)

	_, err = svc.Open(ctx, nil, false)
	require.NoError(t, err)
	_, err = svc.Query(ctx, "  ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = svc.Query(ctx, "alpha", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidK)
}

func TestQuery_LexicalFallbackForZeroVector(t *testing.T) {
	svc := newService(&sliceIngestor{texts: []string{"alpha beta", "the gamma", "delta"}}, &memSnapshots{})
	ctx := context.Background()
	_, err := svc.Open(ctx, nil, false)
	require.NoError(t, err)

	// "the" is a stopword, so the TF-IDF vector is zero.
	res, err := svc.Query(ctx, "the", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{res[0].ID, res[1].ID, res[2].ID})
	assert.InDelta(t, 1-1/1.4142135623730951, res[0].Distance, 1e-9)
	assert.Equal(t, 1.0, res[1].Distance)

	res, err = svc.Query(ctx, "unknown words", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 0, res[0].ID)
}

func TestOverlapOchiai(t *testing.T) {
	q := toTokenSet("Log level")
	assert.InDelta(t, 1.0, overlapOchiai(q, "level LOG"), 1e-12)
	assert.InDelta(t, 0.5, overlapOchiai(q, "log event"), 1e-12)
	assert.Zero(t, overlapOchiai(q, ""))
	assert.Zero(t, overlapOchiai(toTokenSet("..."), "log"))
}
