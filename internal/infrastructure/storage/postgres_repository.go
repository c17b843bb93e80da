package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

const uniqueViolation = "23505"

// PostgresRepository reads keywords and persists leads. The leads table
// carries a unique index on (keyword_id, post_url); that index, not the
// Exists pre-check, is the authoritative dedup guard.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.KeywordStore = (*PostgresRepository)(nil)
var _ ports.LeadStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActive returns all active keywords joined with their owner's email
// for notification routing.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]domain.Keyword, error) {
	query := `SELECT k.id, k.user_id, u.email, k.text, k.platforms, k.created_at
              FROM keywords k
              JOIN users u ON u.id = k.user_id
              WHERE k.is_active
              ORDER BY k.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active keywords: %w", err)
	}
	defer rows.Close()

	var keywords []domain.Keyword
	for rows.Next() {
		var (
			kw   domain.Keyword
			tags pq.StringArray
		)
		if err := rows.Scan(&kw.ID, &kw.UserID, &kw.UserEmail, &kw.Text, &tags, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		kw.Active = true
		for _, tag := range tags {
			kw.Platforms = append(kw.Platforms, domain.Platform(tag))
		}
		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return keywords, nil
}

// Exists checks the dedup key before scoring results are persisted. It is
// an optimization; concurrent runs still fall through to the unique index.
func (r *PostgresRepository) Exists(ctx context.Context, keywordID, postURL string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM leads WHERE keyword_id = $1 AND post_url = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, keywordID, postURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("check lead exists: %w", err)
	}

	return exists, nil
}

// Insert stores a new lead, generating its identifier. A unique-index hit
// on (keyword_id, post_url) is reported as domain.ErrDuplicateLead.
func (r *PostgresRepository) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO leads (id, keyword_id, platform, content, author, post_url, lead_score, reasoning, metadata, processed, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		lead.ID,
		lead.KeywordID,
		string(lead.Platform),
		lead.Content,
		lead.Author,
		lead.PostURL,
		lead.Score,
		lead.Reasoning,
		metadata,
		lead.Processed,
		lead.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.Lead{}, domain.ErrDuplicateLead
		}
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return lead, nil
}

// List returns a page of leads newest-first plus the total match count.
func (r *PostgresRepository) List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	base := listQuery(filter)

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	pageSQL, pageArgs, err := base.
		Columns("id", "keyword_id", "platform", "content", "author", "post_url", "lead_score", "reasoning", "metadata", "processed", "created_at").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var (
			lead     domain.Lead
			platform string
			metadata []byte
		)
		if err := rows.Scan(&lead.ID, &lead.KeywordID, &platform, &lead.Content, &lead.Author,
			&lead.PostURL, &lead.Score, &lead.Reasoning, &metadata, &lead.Processed, &lead.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		lead.Platform = domain.Platform(platform)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
				return nil, 0, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	return leads, total, nil
}

// SetProcessed flips the review flag on the given leads.
func (r *PostgresRepository) SetProcessed(ctx context.Context, leadIDs []string, processed bool) error {
	if len(leadIDs) == 0 {
		return nil
	}

	query := `UPDATE leads SET processed = $1 WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, processed, pq.StringArray(leadIDs)); err != nil {
		return fmt.Errorf("update processed flag: %w", err)
	}

	return nil
}

func listQuery(filter domain.LeadFilter) sq.SelectBuilder {
	builder := sq.Select().
		From("leads").
		PlaceholderFormat(sq.Dollar)

	if filter.Platform != "" {
		builder = builder.Where(sq.Eq{"platform": string(filter.Platform)})
	}
	if filter.MinScore > 0 {
		builder = builder.Where(sq.GtOrEq{"lead_score": filter.MinScore})
	}
	if filter.MaxScore > 0 {
		builder = builder.Where(sq.LtOrEq{"lead_score": filter.MaxScore})
	}

	return builder
}
