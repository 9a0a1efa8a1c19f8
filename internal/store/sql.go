package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS candidate_profiles (
		candidate_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		location TEXT,
		country TEXT,
		industry TEXT,
		skills TEXT[],
		experience_years INT,
		metadata JSONB NOT NULL DEFAULT '{}',
		search_document TEXT,
		search_tsv tsvector
	)`,
	`CREATE TABLE IF NOT EXISTS candidate_embeddings (
		candidate_id TEXT PRIMARY KEY REFERENCES candidate_profiles(candidate_id),
		tenant_id TEXT NOT NULL,
		embedding vector(1536) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_embeddings_tenant ON candidate_embeddings (tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_profiles_tenant ON candidate_profiles (tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_profiles_search_tsv ON candidate_profiles USING GIN (search_tsv)`,
}

// buildHybridQuery renders the parameterized SQL for q, selecting the RRF or
// weighted-sum variant per q.Mode. Returned args are positional ($1, $2...).
func buildHybridQuery(q Query, cfg PoolConfig) (string, []any) {
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	tenantParam := arg(q.TenantID)
	embeddingParam := arg(q.QueryEmbedding)
	perMethodLimit := cfg.PerMethodLimit
	if perMethodLimit == 0 {
		perMethodLimit = 100
	}

	var sb strings.Builder
	sb.WriteString("WITH vector_candidates AS (\n")
	sb.WriteString(fmt.Sprintf(
		"  SELECT candidate_id, (embedding <=> %s) AS distance,\n"+
			"    ROW_NUMBER() OVER (ORDER BY embedding <=> %s ASC) AS vector_rank\n"+
			"  FROM candidate_embeddings\n"+
			"  WHERE tenant_id = %s\n"+
			"  ORDER BY distance ASC\n"+
			"  LIMIT %d\n", embeddingParam, embeddingParam, tenantParam, perMethodLimit))
	sb.WriteString(")")

	if q.QueryText != "" {
		queryParam := arg(q.QueryText)
		sb.WriteString(",\ntext_candidates AS (\n")
		sb.WriteString(fmt.Sprintf(
			"  SELECT candidate_id, ts_rank(search_tsv, plainto_tsquery('portuguese', %s)) AS rank,\n"+
				"    ROW_NUMBER() OVER (ORDER BY ts_rank(search_tsv, plainto_tsquery('portuguese', %s)) DESC) AS text_rank\n"+
				"  FROM candidate_profiles\n"+
				"  WHERE tenant_id = %s AND search_tsv @@ plainto_tsquery('portuguese', %s)\n"+
				"  ORDER BY rank DESC\n"+
				"  LIMIT %d\n", queryParam, queryParam, tenantParam, queryParam, perMethodLimit))
		sb.WriteString(")")
	}

	sb.WriteString("\nSELECT\n")
	sb.WriteString("  COALESCE(v.candidate_id, t.candidate_id) AS candidate_id,\n")
	sb.WriteString("  COALESCE(1 - v.distance, 0) AS vector_score,\n")

	if q.QueryText != "" {
		sb.WriteString("  COALESCE(t.rank, 0) AS text_score,\n")
	} else {
		sb.WriteString("  0 AS text_score,\n")
	}

	if q.Mode == ModeWeightedSum {
		vw := arg(q.VectorWeight)
		tw := arg(q.TextWeight)
		if q.QueryText != "" {
			sb.WriteString(fmt.Sprintf("  (%s * COALESCE(1 - v.distance, 0) + %s * COALESCE(t.rank, 0)) AS rrf_score,\n", vw, tw))
		} else {
			sb.WriteString(fmt.Sprintf("  (%s * COALESCE(1 - v.distance, 0)) AS rrf_score,\n", vw))
		}
	} else {
		k := cfg.RRFK
		if k == 0 {
			k = 60
		}
		if q.QueryText != "" {
			sb.WriteString(fmt.Sprintf(
				"  (COALESCE(1.0/(%d + v.vector_rank), 0) + COALESCE(1.0/(%d + t.text_rank), 0)) AS rrf_score,\n", k, k))
		} else {
			sb.WriteString(fmt.Sprintf("  COALESCE(1.0/(%d + v.vector_rank), 0) AS rrf_score,\n", k))
		}
	}

	sb.WriteString("  p.metadata, to_jsonb(p.*) AS profile\n")
	sb.WriteString("FROM vector_candidates v\n")
	if q.QueryText != "" {
		sb.WriteString("FULL OUTER JOIN text_candidates t ON v.candidate_id = t.candidate_id\n")
	} else {
		sb.WriteString("LEFT JOIN (SELECT NULL::text AS candidate_id) t ON false\n")
	}
	sb.WriteString("JOIN candidate_profiles p ON p.candidate_id = COALESCE(v.candidate_id, t.candidate_id)\n")
	sb.WriteString(fmt.Sprintf("WHERE p.tenant_id = %s\n", tenantParam))

	minSim := arg(q.MinSimilarity)
	sb.WriteString(fmt.Sprintf("  AND (COALESCE(1 - v.distance, 0) >= %s OR COALESCE(t.rank, 0) > 0)\n", minSim))

	for clause, value := range filterClauses(q.Filters, arg) {
		sb.WriteString("  AND " + clause + "\n")
		_ = value
	}

	sb.WriteString("ORDER BY rrf_score DESC, candidate_id ASC\n")
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	sb.WriteString(fmt.Sprintf("LIMIT %d OFFSET %d", limit, q.Offset))

	return sb.String(), args
}

// filterClauses renders Filters predicates, registering each literal via
// arg so the caller's positional-parameter slice stays in sync. The second
// map value is unused; it exists so range order does not need to be
// significant to callers (Go map iteration order is randomized, which is
// fine here since every clause is independently ANDed).
func filterClauses(f Filters, arg func(any) string) map[string]bool {
	clauses := map[string]bool{}
	if len(f.Locations) > 0 {
		clauses[fmt.Sprintf("p.location = ANY(%s)", arg(pq.Array(f.Locations)))] = true
	}
	if len(f.Countries) > 0 {
		param := arg(pq.Array(f.Countries))
		if f.CountryNullable {
			clauses[fmt.Sprintf("(p.country = ANY(%s) OR p.country IS NULL)", param)] = true
		} else {
			clauses[fmt.Sprintf("p.country = ANY(%s)", param)] = true
		}
	}
	if len(f.Industries) > 0 {
		clauses[fmt.Sprintf("p.industry = ANY(%s)", arg(pq.Array(f.Industries)))] = true
	}
	if len(f.Skills) > 0 {
		clauses[fmt.Sprintf("p.skills && %s", arg(pq.Array(f.Skills)))] = true
	}
	if f.MinExperience != nil {
		clauses[fmt.Sprintf("p.experience_years >= %s", arg(*f.MinExperience))] = true
	}
	if f.MaxExperience != nil {
		clauses[fmt.Sprintf("p.experience_years <= %s", arg(*f.MaxExperience))] = true
	}
	for key, value := range f.MetadataEquals {
		clauses[fmt.Sprintf("p.metadata ->> '%s' = %s", escapeJSONKey(key), arg(value))] = true
	}
	return clauses
}

func escapeJSONKey(key string) string {
	return strings.ReplaceAll(key, "'", "")
}

func decodeJSONObject(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
