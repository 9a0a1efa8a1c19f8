// Package store owns the connection pool to the vector+text candidate
// store and builds the parameterized hybrid retrieval SQL (RRF and
// weighted-sum variants) described in §4.11.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

// Mode selects which hybrid SQL variant a query uses.
type Mode string

const (
	ModeRRF         Mode = "rrf"
	ModeWeightedSum Mode = "weighted_sum"
)

// PoolConfig configures the underlying *sql.DB connection pool.
type PoolConfig struct {
	MinConns           int
	MaxConns           int
	IdleTimeout        time.Duration
	ConnectTimeout     time.Duration
	StatementTimeout   time.Duration
	AutoMigrate        bool
	RRFEnabled         bool
	RRFK               int
	PerMethodLimit     int
	ANNEFSearch        int
}

// DefaultPoolConfig matches the defaults named in §4.11/§6.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinConns:         2,
		MaxConns:         20,
		IdleTimeout:      5 * time.Minute,
		ConnectTimeout:   5 * time.Second,
		StatementTimeout: 10 * time.Second,
		AutoMigrate:      false,
		RRFEnabled:       true,
		RRFK:             60,
		PerMethodLimit:   100,
		ANNEFSearch:      100,
	}
}

// Store wraps a *sql.DB with the pool-warmup, health, schema, and hybrid
// query behavior required by the search orchestrator.
type Store struct {
	db     *sql.DB
	cfg    PoolConfig
	logger *logrus.Logger

	mu         sync.RWMutex
	inFlight   int
}

// New wraps an already-opened *sql.DB and applies cfg's pool settings to it
// via SetMaxOpenConns/SetMaxIdleConns/SetConnMaxIdleTime.
func New(db *sql.DB, cfg PoolConfig, logger *logrus.Logger) *Store {
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)
	return &Store{db: db, cfg: cfg, logger: logger}
}

// WarmPool opens cfg.MinConns connections in parallel at startup so the
// first request does not pay connection-setup latency.
func (s *Store) WarmPool(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, s.cfg.MinConns)
	for i := 0; i < s.cfg.MinConns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = s.db.PingContext(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("warm pool: %w", err)
		}
	}
	return nil
}

// VerifySchema checks that the expected tables/indexes/extensions exist,
// creating them when cfg.AutoMigrate is set.
func (s *Store) VerifySchema(ctx context.Context) error {
	if !s.cfg.AutoMigrate {
		var exists bool
		err := s.db.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT FROM information_schema.tables WHERE table_name = 'candidate_profiles')`).Scan(&exists)
		if err != nil {
			return fmt.Errorf("verify schema: %w", err)
		}
		if !exists {
			return fmt.Errorf("verify schema: candidate_profiles table missing and auto-migrate disabled")
		}
		return nil
	}
	return s.Migrate(ctx)
}

// Migrate creates the candidate_profiles/candidate_embeddings schema and
// required extensions/indexes if they do not already exist. It is also
// exposed directly via the admin FTS-migration route.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// HealthSnapshot is returned by Health.
type HealthSnapshot struct {
	Healthy          bool
	Degraded         bool
	OpenConnections  int
	InUse            int
	Idle             int
	WaitingRequests  int
}

// waitingRequestsDegradedThreshold is the number of Search calls in flight
// above which the store reports itself degraded. The count includes calls
// that already hold a connection; blocked connection acquisitions are not
// counted separately.
const waitingRequestsDegradedThreshold = 10

// Health returns a snapshot of the pool's current state.
func (s *Store) Health(ctx context.Context) HealthSnapshot {
	stats := s.db.Stats()
	snapshot := HealthSnapshot{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
	}
	snapshot.WaitingRequests = s.waitingRequests()
	snapshot.Degraded = snapshot.WaitingRequests > waitingRequestsDegradedThreshold
	snapshot.Healthy = s.db.PingContext(ctx) == nil && !snapshot.Degraded
	return snapshot
}

func (s *Store) waitingRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// Filters scopes a hybrid query beyond tenant + vector/text similarity.
type Filters struct {
	Locations        []string
	Countries        []string // nil country values are included when CountryNullable is set
	CountryNullable  bool
	Industries       []string
	Skills           []string
	MinExperience    *int
	MaxExperience    *int
	MetadataEquals   map[string]string
}

// Query is one hybrid-search request against the store.
type Query struct {
	TenantID      string
	QueryText     string
	QueryEmbedding pgvector.Vector
	Mode          Mode
	VectorWeight  float64
	TextWeight    float64
	MinSimilarity float64
	Filters       Filters
	Limit         int
	Offset        int
}

// Row is one hydrated candidate row returned by a hybrid query.
type Row struct {
	CandidateID  string
	VectorScore  float64
	TextScore    float64
	RRFScore     float64
	Metadata     map[string]any
	Profile      map[string]any
}

// Diagnostics summarizes one query's candidate mix for observability.
type Diagnostics struct {
	VectorOnlyCount int
	TextOnlyCount   int
	BothCount       int
	NeitherCount    int
}

// defaultANNEFSearch mirrors DefaultPoolConfig's ANNEFSearch; used when a
// Store is constructed with a zero-value PoolConfig.
const defaultANNEFSearch = 100

// Search runs the configured hybrid SQL variant and hydrates results. The
// vector CTE runs inside a transaction so the ANN index search-list-size
// parameter (HNSW's ef_search) can be set with SET LOCAL, scoping it to this
// statement only rather than leaking into the pooled connection's session
// state for whichever request reuses it next.
func (s *Store) Search(ctx context.Context, q Query) ([]Row, Diagnostics, error) {
	s.beginRequest()
	defer s.endRequest()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("hybrid search: begin tx: %w", err)
	}
	defer tx.Rollback()

	efSearch := s.cfg.ANNEFSearch
	if efSearch <= 0 {
		efSearch = defaultANNEFSearch
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch)); err != nil {
		return nil, Diagnostics{}, fmt.Errorf("hybrid search: set ef_search: %w", err)
	}

	sqlText, args := buildHybridQuery(q, s.cfg)

	rows, err := tx.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("hybrid search: %w", err)
	}

	var results []Row
	var diag Diagnostics
	for rows.Next() {
		var r Row
		var metadataJSON, profileJSON []byte
		if err := rows.Scan(&r.CandidateID, &r.VectorScore, &r.TextScore, &r.RRFScore, &metadataJSON, &profileJSON); err != nil {
			rows.Close()
			return nil, Diagnostics{}, fmt.Errorf("hybrid search scan: %w", err)
		}
		r.Metadata = decodeJSONObject(metadataJSON)
		r.Profile = decodeJSONObject(profileJSON)
		results = append(results, r)
		classify(&diag, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, Diagnostics{}, fmt.Errorf("hybrid search rows: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, Diagnostics{}, fmt.Errorf("hybrid search: commit: %w", err)
	}

	if q.QueryText != "" && diag.TextOnlyCount == 0 && diag.BothCount == 0 {
		s.logger.WithField("tenant_id", q.TenantID).Warn("text query produced no FTS matches")
	}

	return results, diag, nil
}

func classify(diag *Diagnostics, r Row) {
	switch {
	case r.VectorScore > 0 && r.TextScore > 0:
		diag.BothCount++
	case r.VectorScore > 0:
		diag.VectorOnlyCount++
	case r.TextScore > 0:
		diag.TextOnlyCount++
	default:
		diag.NeitherCount++
	}
}

func (s *Store) beginRequest() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *Store) endRequest() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}
