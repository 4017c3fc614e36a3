package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nordnytt/aggregator/internal/article"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// Config holds database connection configuration.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewPostgresConnection creates a new PostgreSQL database connection.
func NewPostgresConnection(cfg Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// articlesSchema creates the articles table on first use. The unique
// constraint on url_canonical is the durable half of the deduplication
// design.
const articlesSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id            BIGSERIAL PRIMARY KEY,
	url           VARCHAR(1024) NOT NULL,
	url_canonical VARCHAR(1024) NOT NULL,
	source_domain VARCHAR(255)  NOT NULL,
	source_name   VARCHAR(255)  NOT NULL,
	title         VARCHAR(1024) NOT NULL,
	summary       TEXT,
	author        VARCHAR(255),
	published_at  TIMESTAMPTZ,
	language      VARCHAR(10),
	theme         VARCHAR(64),
	raw           JSONB,
	minhash_sig   VARCHAR(2048),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_articles_urlcanon UNIQUE (url_canonical)
);
CREATE INDEX IF NOT EXISTS ix_articles_pub_desc ON articles (published_at);
CREATE INDEX IF NOT EXISTS ix_articles_filters  ON articles (source_domain, theme, language);
`

// EnsureSchema creates the articles table and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, articlesSchema); err != nil {
		return fmt.Errorf("failed to ensure articles schema: %w", err)
	}

	return nil
}

// PostgresStore persists articles in PostgreSQL. Inserts during a run are
// queued on a single transaction and committed together; ON CONFLICT DO
// NOTHING on the canonical-URL constraint turns duplicate inserts into
// rejections instead of errors.
type PostgresStore struct {
	db *sqlx.DB
	mu sync.Mutex
	tx *sqlx.Tx
}

// NewPostgresStore creates a PostgresStore on an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertArticleQuery = `
	INSERT INTO articles
		(url, url_canonical, source_domain, source_name, title, summary,
		 author, published_at, language, theme, raw, minhash_sig, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (url_canonical) DO NOTHING
`

// InsertIfAbsent queues the article on the run transaction unless its
// canonical URL already exists.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, a *article.Article) (InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.currentTx(ctx)
	if err != nil {
		return RejectedDuplicateKey, err
	}

	result, execErr := tx.ExecContext(ctx, insertArticleQuery,
		a.URL, a.CanonicalURL, a.SourceDomain, a.SourceName, a.Title,
		a.Summary, a.Author, a.PublishedAt, a.Language, a.Topic,
		a.Raw, a.Signature, a.CreatedAt,
	)
	if execErr != nil {
		return RejectedDuplicateKey, fmt.Errorf("failed to insert article: %w", execErr)
	}

	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return RejectedDuplicateKey, fmt.Errorf("failed to read rows affected: %w", rowsErr)
	}

	if rows == 0 {
		return RejectedDuplicateKey, nil
	}

	return Accepted, nil
}

// Commit commits the run transaction. A commit with no queued inserts is a
// no-op.
func (s *PostgresStore) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit articles: %w", err)
	}

	return nil
}

// currentTx returns the run transaction, beginning one if needed. Callers
// hold the lock.
func (s *PostgresStore) currentTx(ctx context.Context) (*sqlx.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	s.tx = tx

	return tx, nil
}

// articleSelectColumns lists columns for SELECT queries on articles.
const articleSelectColumns = `id, url, url_canonical, source_domain, source_name, title,
	summary, author, published_at, language, theme, raw, minhash_sig, created_at`

// List returns committed articles matching the filter, newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*article.Article, error) {
	where, args := buildWhere(filter)

	page, pageSize := normalizePaging(filter.Page, filter.PageSize)

	query := fmt.Sprintf(
		`SELECT %s FROM articles %s ORDER BY published_at DESC NULLS LAST, id DESC LIMIT $%d OFFSET $%d`,
		articleSelectColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	var articles []*article.Article
	if err := s.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	if articles == nil {
		articles = []*article.Article{}
	}

	return articles, nil
}

// Count returns the number of committed articles matching the filter.
func (s *PostgresStore) Count(ctx context.Context, filter ListFilter) (int64, error) {
	where, args := buildWhere(filter)

	var count int64
	query := `SELECT COUNT(*) FROM articles ` + where

	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	return count, nil
}

// Categories returns the distinct topics of stored articles, sorted.
func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	return s.selectDistinct(ctx, "theme")
}

// Sources returns the distinct source domains of stored articles, sorted.
func (s *PostgresStore) Sources(ctx context.Context) ([]string, error) {
	return s.selectDistinct(ctx, "source_domain")
}

// selectDistinct returns the sorted distinct non-empty values of one
// articles column. The column name comes from the two callers above, never
// from input.
func (s *PostgresStore) selectDistinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM articles WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s`,
		column, column, column, column,
	)

	values := []string{}
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to select distinct %s: %w", column, err)
	}

	return values, nil
}

// buildWhere assembles the WHERE clause and arguments for a list filter.
func buildWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if len(filter.SourceDomains) > 0 {
		add("source_domain = ANY($%d)", pq.Array(filter.SourceDomains))
	}

	if filter.Topic != "" {
		add("theme = $%d", filter.Topic)
	}

	if filter.Language != "" {
		add("language = $%d", filter.Language)
	}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE $%d OR summary ILIKE $%d)", len(args), len(args),
		))
	}

	if filter.DateFrom != nil {
		add("published_at >= $%d", *filter.DateFrom)
	}

	if filter.DateTo != nil {
		add("published_at <= $%d", *filter.DateTo)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
