// Package store persists converted records to Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/fixconv/internal/record"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("store: record not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Entry is one stored conversion.
type Entry struct {
	ID        uuid.UUID
	Version   string
	Record    record.Record
	Payload   []byte
	CreatedAt time.Time
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS fix_records (
	id             UUID PRIMARY KEY,
	version        TEXT NOT NULL,
	begin_string   TEXT NOT NULL,
	body_length    TEXT NOT NULL,
	msg_type       TEXT NOT NULL,
	sender_comp_id TEXT NOT NULL,
	target_comp_id TEXT NOT NULL,
	msg_seq_num    TEXT NOT NULL,
	sending_time   TEXT NOT NULL,
	check_sum      TEXT NOT NULL,
	fields         JSONB NOT NULL,
	payload        BYTEA NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS fix_records_msg_type_idx ON fix_records (msg_type)`,
	`CREATE INDEX IF NOT EXISTS fix_records_sender_idx ON fix_records (sender_comp_id, msg_seq_num)`,
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

const insertSQL = `INSERT INTO fix_records (
	id, version, begin_string, body_length, msg_type, sender_comp_id,
	target_comp_id, msg_seq_num, sending_time, check_sum, fields, payload
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Insert stores e and returns its id. A nil ID is replaced with a new one.
func (s *Store) Insert(ctx context.Context, e Entry) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	fields := e.Record.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	r := e.Record
	if _, err := s.db.Exec(ctx, insertSQL,
		e.ID, e.Version, r.BeginString, r.BodyLength, r.MsgType, r.SenderCompID,
		r.TargetCompID, r.MsgSeqNum, r.SendingTime, r.CheckSum, fields, e.Payload,
	); err != nil {
		return uuid.Nil, fmt.Errorf("store: insert %s: %w", e.ID, err)
	}
	log.Debug().Str("id", e.ID.String()).Str("msg_type", r.MsgType).Msg("store.Insert")
	return e.ID, nil
}

const getSQL = `SELECT
	id, version, begin_string, body_length, msg_type, sender_comp_id,
	target_comp_id, msg_seq_num, sending_time, check_sum, fields, payload, created_at
FROM fix_records WHERE id = $1`

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var e Entry
	r := &e.Record
	err := s.db.QueryRow(ctx, getSQL, id).Scan(
		&e.ID, &e.Version, &r.BeginString, &r.BodyLength, &r.MsgType, &r.SenderCompID,
		&r.TargetCompID, &r.MsgSeqNum, &r.SendingTime, &r.CheckSum, &r.Fields, &e.Payload, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	return e, nil
}

// Sink adapts Insert to the converter's batch sink.
func (s *Store) Sink(ctx context.Context, version string) func(record.Record, []byte) error {
	return func(rec record.Record, payload []byte) error {
		_, err := s.Insert(ctx, Entry{Version: version, Record: rec, Payload: payload})
		return err
	}
}
