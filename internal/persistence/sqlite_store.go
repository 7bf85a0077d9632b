package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bankassist/banking-agent/internal/rag"
	"github.com/bankassist/banking-agent/internal/tools"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) SaveConversation(ctx context.Context, record ConversationRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	messagesJSON, err := json.Marshal(record.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO conversations (id, language, messages_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			language=excluded.language,
			messages_json=excluded.messages_json,
			updated_at=excluded.updated_at`,
		record.ID,
		record.Language,
		string(messagesJSON),
		updatedAt,
	)
	return err
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (ConversationRecord, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, language, messages_json, updated_at
		 FROM conversations
		 WHERE id = ?`,
		id,
	)
	var ret ConversationRecord
	var messagesJSON string
	if err := row.Scan(&ret.ID, &ret.Language, &messagesJSON, &ret.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ConversationRecord{}, false, nil
		}
		return ConversationRecord{}, false, err
	}
	if err := json.Unmarshal([]byte(messagesJSON), &ret.Messages); err != nil {
		return ConversationRecord{}, false, fmt.Errorf("unmarshal messages: %w", err)
	}
	return ret, true, nil
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	return err
}

// DeleteConversationsBefore removes conversations idle since before cutoff and
// reports how many rows went away.
func (s *SQLiteStore) DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) CountConversations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) SaveTicket(ctx context.Context, ticket tools.Ticket) error {
	if strings.TrimSpace(ticket.TicketID) == "" {
		return fmt.Errorf("ticket id is required")
	}
	createdAt := ticket.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO escalations (ticket_id, account_id, reason, language, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id) DO UPDATE SET
			account_id=excluded.account_id,
			reason=excluded.reason,
			language=excluded.language,
			priority=excluded.priority,
			created_at=excluded.created_at`,
		ticket.TicketID,
		ticket.AccountID,
		ticket.Reason,
		ticket.Language,
		ticket.Priority,
		createdAt,
	)
	return err
}

func (s *SQLiteStore) ListTickets(ctx context.Context) ([]tools.Ticket, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT ticket_id, account_id, reason, language, priority, created_at
		 FROM escalations
		 ORDER BY created_at ASC, ticket_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []tools.Ticket
	for rows.Next() {
		var t tools.Ticket
		if err := rows.Scan(&t.TicketID, &t.AccountID, &t.Reason, &t.Language, &t.Priority, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SaveVectors replaces the cached corpus vectors. Only one corpus is cached at
// a time, so rows from earlier fingerprints are dropped first.
func (s *SQLiteStore) SaveVectors(ctx context.Context, fingerprint string, vectors []rag.CachedVector) error {
	if strings.TrimSpace(fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vector cache tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_cache`); err != nil {
		return fmt.Errorf("clear vector cache: %w", err)
	}
	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO vector_cache (fingerprint, ord, doc_id, source, content, vector)
		VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare vector insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, fingerprint, i, v.DocID, v.Source, v.Content, encodeVector(v.Vector)); err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadVectors(ctx context.Context, fingerprint string) ([]rag.CachedVector, bool, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT doc_id, source, content, vector
		 FROM vector_cache
		 WHERE fingerprint = ?
		 ORDER BY ord ASC`,
		fingerprint,
	)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var vectors []rag.CachedVector
	for rows.Next() {
		var v rag.CachedVector
		var blob []byte
		if err := rows.Scan(&v.DocID, &v.Source, &v.Content, &blob); err != nil {
			return nil, false, err
		}
		v.Vector = decodeVector(blob)
		vectors = append(vectors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(vectors) == 0 {
		return nil, false, nil
	}
	return vectors, true, nil
}

// encodeVector packs float32 components little-endian, 4 bytes each.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, f := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vector
}
