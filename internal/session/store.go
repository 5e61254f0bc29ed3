// Package session records what was played to a sqlite database and exports
// recordings as Standard MIDI Files.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/logging"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session: not found")

// Kind is the type of a recorded message.
type Kind uint8

const (
	NoteOn Kind = iota + 1
	NoteOff
	ProgramChange
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case ProgramChange:
		return "program_change"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is one recorded message. At is the offset from the session start.
// For program changes Key holds the program and Velocity is zero.
type Event struct {
	At       time.Duration
	Kind     Kind
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// Session describes one recording.
type Session struct {
	ID      string
	Output  string
	Started time.Time
	Ended   time.Time // zero while recording
	Events  int
}

const schema = `
create table if not exists sessions (
	id      text not null primary key,
	output  text not null,
	started integer not null,
	ended   integer not null default 0
);
create table if not exists events (
	session  text not null references sessions(id),
	seq      integer not null,
	at       integer not null,
	kind     integer not null,
	channel  integer not null,
	key      integer not null,
	velocity integer not null,
	primary key (session, seq)
);
`

// Store is a sqlite-backed session log. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens or creates the database at path.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	logger = logging.OrNop(logger)
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=3500")
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: init schema: %w", err)
	}
	logger.Debugw("session: store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a new session and returns its id.
func (s *Store) Begin(output string, started time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec("insert into sessions(id, output, started) values(?, ?, ?)",
		id, output, started.UnixNano())
	if err != nil {
		return "", fmt.Errorf("session: begin: %w", err)
	}
	s.logger.Infow("session: recording", "id", id, "output", output)
	return id, nil
}

// End marks the session finished.
func (s *Store) End(id string, ended time.Time) error {
	res, err := s.db.Exec("update sessions set ended = ? where id = ?", ended.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("session: end %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AppendBatch stores events as numbers first, first+1, ... of the session in
// one transaction.
func (s *Store) AppendBatch(id string, first int, events []Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("session: append to %s: %w", id, err)
	}
	stmt, err := tx.Prepare(
		"insert into events(session, seq, at, kind, channel, key, velocity) values(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("session: append to %s: %w", id, err)
	}
	defer stmt.Close()
	for i, e := range events {
		if _, err := stmt.Exec(id, first+i, int64(e.At), e.Kind, e.Channel, e.Key, e.Velocity); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("session: append to %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session: append to %s: %w", id, err)
	}
	return nil
}

const selectSession = `
select s.id, s.output, s.started, s.ended, count(e.seq)
from sessions s left join events e on e.session = s.id
`

// Get returns one session.
func (s *Store) Get(id string) (Session, error) {
	row := s.db.QueryRow(selectSession+"where s.id = ? group by s.id", id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, err
}

// List returns every session, newest first.
func (s *Store) List() ([]Session, error) {
	rows, err := s.db.Query(selectSession + "group by s.id order by s.started desc")
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess           Session
		started, ended int64
	)
	if err := row.Scan(&sess.ID, &sess.Output, &started, &ended, &sess.Events); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("session: scan: %w", err)
	}
	sess.Started = time.Unix(0, started)
	if ended != 0 {
		sess.Ended = time.Unix(0, ended)
	}
	return sess, nil
}

// Events returns the session's events in recording order.
func (s *Store) Events(id string) ([]Event, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		"select at, kind, channel, key, velocity from events where session = ? order by seq", id)
	if err != nil {
		return nil, fmt.Errorf("session: events of %s: %w", id, err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			at int64
		)
		if err := rows.Scan(&at, &e.Kind, &e.Channel, &e.Key, &e.Velocity); err != nil {
			return nil, fmt.Errorf("session: scan event: %w", err)
		}
		e.At = time.Duration(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
