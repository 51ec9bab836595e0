package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"semsearch/internal/ann"
	"semsearch/internal/domain"
	"semsearch/internal/embedding"
	"semsearch/internal/snapshot"
	"semsearch/internal/vectorstore"
)

// ErrEmptyQuery is returned for a blank query text.
var ErrEmptyQuery = errors.New("empty query")

// SearchServiceImpl owns the corpus, its forest, and the embedder used for
// both records and queries.
type SearchServiceImpl struct {
	ingestor  domain.Ingestor
	embedder  domain.Embedder
	snapshots domain.SnapshotStore
	indexCfg  ann.Config
	logger    *slog.Logger
	progress  ann.ProgressFunc

	mu     sync.RWMutex
	guard  *embedding.Guard
	store  *vectorstore.Store
	forest *ann.Forest
}

var _ domain.SearchService = (*SearchServiceImpl)(nil)

// Option configures a SearchServiceImpl.
type Option func(*SearchServiceImpl)

// WithLogger sets the service logger. The forest logs through it as well.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SearchServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress reports forest build progress.
func WithProgress(fn ann.ProgressFunc) Option {
	return func(s *SearchServiceImpl) { s.progress = fn }
}

func NewSearchService(ingestor domain.Ingestor, embedder domain.Embedder, snapshots domain.SnapshotStore, indexCfg ann.Config, opts ...Option) *SearchServiceImpl {
	s := &SearchServiceImpl{
		ingestor:  ingestor,
		embedder:  embedder,
		snapshots: snapshots,
		indexCfg:  indexCfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open makes the service queryable. A stored snapshot is reused unless
// rebuild is set; otherwise inputs are ingested, embedded and saved. The
// returned line summarises the built index.
func (s *SearchServiceImpl) Open(ctx context.Context, inputs []string, rebuild bool) (string, error) {
	start := time.Now()
	guard := embedding.NewGuard(s.embedder, 0)

	records, source, err := s.loadRecords(ctx, guard, inputs, rebuild)
	if err != nil {
		return "", err
	}

	store := vectorstore.New(0)
	if err := snapshot.Populate(store, records); err != nil {
		return "", err
	}
	if source == "snapshot" {
		if err := guard.Prepare(ctx, payloads(records)); err != nil {
			return "", err
		}
	}
	if d := guard.Dimension(); d != 0 && d != store.Dimension() {
		return "", fmt.Errorf("%s embedder does not match the snapshot: %w", guard.Name(), domain.NewDimensionMismatch(store.Dimension(), d))
	}

	forest, err := ann.Build(ctx, store, s.indexCfg, ann.WithLogger(s.logger), ann.WithProgress(s.progress))
	if err != nil {
		return "", fmt.Errorf("build index: %w", err)
	}

	s.mu.Lock()
	s.guard, s.store, s.forest = guard, store, forest
	s.mu.Unlock()

	stats := forest.Stats()
	s.logger.Info("index ready",
		"records", stats.Items,
		"source", source,
		"embedder", guard.Name(),
		"duration", time.Since(start))
	return fmt.Sprintf("%d records from %s, dimension %d, %d trees, max depth %d",
		stats.Items, source, stats.Dimension, len(stats.Trees), stats.MaxDepth()), nil
}

func (s *SearchServiceImpl) loadRecords(ctx context.Context, guard *embedding.Guard, inputs []string, rebuild bool) ([]domain.Record, string, error) {
	if !rebuild {
		ok, err := s.snapshots.Exists(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("check snapshot: %w", err)
		}
		if ok {
			records, err := s.snapshots.Load(ctx)
			if err != nil {
				return nil, "", fmt.Errorf("load snapshot: %w", err)
			}
			if len(records) > 0 {
				s.logger.Info("snapshot hit", "records", len(records))
				return records, "snapshot", nil
			}
		}
		s.logger.Info("snapshot miss")
	}

	texts, err := s.ingestor.Ingest(inputs)
	if err != nil {
		return nil, "", fmt.Errorf("ingest: %w", err)
	}
	s.logger.Info("ingested inputs", "inputs", len(inputs), "texts", len(texts))

	if err := guard.Prepare(ctx, texts); err != nil {
		return nil, "", err
	}
	vecs, err := guard.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, "", fmt.Errorf("embed: %w", err)
	}
	records := make([]domain.Record, len(texts))
	for i := range texts {
		records[i] = domain.Record{ID: i, Text: texts[i], Vector: vecs[i]}
	}
	if err := s.snapshots.Save(ctx, records); err != nil {
		return nil, "", fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("snapshot saved", "records", len(records))
	return records, "inputs", nil
}

// Query returns up to topK records closest to the query text, nearest
// first. When the query embeds to the zero vector it has no direction, so
// records are ranked by token overlap instead.
func (s *SearchServiceImpl) Query(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	s.mu.RLock()
	guard, store, forest := s.guard, s.store, s.forest
	s.mu.RUnlock()
	if forest == nil {
		return nil, domain.ErrNotBuilt
	}

	vec, err := guard.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		s.logger.Debug("zero query vector, using lexical ranking", "query", query)
		return lexicalSearch(store, query, topK)
	}

	neighbors, err := forest.Search(vec, topK)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, len(neighbors))
	for i, n := range neighbors {
		out[i] = domain.SearchResult{ID: n.ID, Text: store.Payload(n.ID), Distance: n.Distance}
	}
	s.logger.Debug("query", "query", query, "k", topK, "results", len(out))
	return out, nil
}

// Stats describes the current forest. The second value is false before
// Open succeeds.
func (s *SearchServiceImpl) Stats() (ann.ForestStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.forest == nil {
		return ann.ForestStats{}, false
	}
	return s.forest.Stats(), true
}

func payloads(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// lexicalSearch ranks every record by 1 - Ochiai(query tokens, record
// tokens), ties by id.
func lexicalSearch(store *vectorstore.Store, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidK
	}
	qset := toTokenSet(query)
	results := make([]domain.SearchResult, 0, store.Len())
	for id, item := range store.All() {
		results = append(results, domain.SearchResult{
			ID:       id,
			Text:     item.Payload,
			Distance: 1 - overlapOchiai(qset, item.Payload),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := toTokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
