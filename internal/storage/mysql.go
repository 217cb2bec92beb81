package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
)

// MySQLStorage keeps encoded snapshots in a single MySQL table.
type MySQLStorage struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	codec  save.Codec
	logger *slog.Logger
}

var _ Storage = (*MySQLStorage)(nil)

const (
	queryUpsertSnapshot = "upsert-snapshot"
	queryGetSnapshot    = "get-snapshot-by-game-id"
	queryDeleteSnapshot = "delete-snapshot-by-game-id"
)

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS snapshot (
		game_id    CHAR(36)    NOT NULL PRIMARY KEY,
		format     VARCHAR(8)  NOT NULL,
		data       MEDIUMBLOB  NOT NULL,
		updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
`

var unprepared = map[string]string{
	queryUpsertSnapshot: `
		INSERT INTO snapshot (game_id, format, data)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			format = VALUES(format),
			data = VALUES(data);
	`,
	queryGetSnapshot: `
		SELECT
			s.format,
			s.data
		FROM snapshot s
		WHERE s.game_id = ?;
	`,
	queryDeleteSnapshot: `
		DELETE FROM snapshot
		WHERE game_id = ?;
	`,
}

// OpenMySQLStorage connects to dsn, creates the snapshot table if needed
// and prepares every statement.
func OpenMySQLStorage(ctx context.Context, dsn string, codec save.Codec, logger *slog.Logger) (*MySQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	store, err := NewMySQLStorage(db, codec, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Connected to MySQL", "database", cfg.DBName, "addr", cfg.Addr)
	return store, nil
}

// NewMySQLStorage returns a store with statements prepared against db. The
// snapshot table must already exist.
func NewMySQLStorage(db *sql.DB, codec save.Codec, logger *slog.Logger) (*MySQLStorage, error) {
	if codec == nil {
		codec = save.JSONCodec{}
	}
	stmts := make(map[string]*sql.Stmt)
	for key, query := range unprepared {
		stmt, err := db.Prepare(query)
		if err != nil {
			return nil, fmt.Errorf("error preparing statement %s: %w", key, err)
		}
		stmts[key] = stmt
	}
	return &MySQLStorage{
		db:     db,
		stmts:  stmts,
		codec:  codec,
		logger: logger,
	}, nil
}

func (m *MySQLStorage) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

func (m *MySQLStorage) Close() error {
	for key, stmt := range m.stmts {
		if err := stmt.Close(); err != nil {
			m.logger.Warn("Failed to close statement", "statement", key, "error", err)
		}
	}
	return m.db.Close()
}

func (m *MySQLStorage) SaveSnapshot(ctx context.Context, id uuid.UUID, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := m.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := m.stmts[queryUpsertSnapshot].ExecContext(ctx, id.String(), m.codec.Name(), data); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			m.logger.Error("Failed to save snapshot", "uuid", id, "mysql_error", mysqlErr.Number, "error", err)
		} else {
			m.logger.Error("Failed to save snapshot", "uuid", id, "error", err)
		}
		return fmt.Errorf("INSERT snapshot failed: %w", err)
	}
	return nil
}

// LoadSnapshot decodes with the codec the row was written with, so a
// change of SAVE_FORMAT does not strand older saves.
func (m *MySQLStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*save.Snapshot, error) {
	var (
		format string
		data   []byte
	)
	err := m.stmts[queryGetSnapshot].QueryRowContext(ctx, id.String()).Scan(&format, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			m.logger.Warn("Snapshot not found", "uuid", id)
			return nil, nil
		}
		return nil, fmt.Errorf("SELECT snapshot failed: %w", err)
	}

	codec, err := save.CodecFor(format)
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(data)
}

func (m *MySQLStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if _, err := m.stmts[queryDeleteSnapshot].ExecContext(ctx, id.String()); err != nil {
		return fmt.Errorf("DELETE snapshot failed: %w", err)
	}
	return nil
}
