// Package indexdb keeps a queryable SQLite index of tick metrics and
// lifecycle events. It is a secondary read model: writes are queued
// and may be dropped under load; the compressed JSONL logs remain the
// source of truth.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"openroam.dev/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type req struct {
	metrics world.Metrics
	events  []world.Event
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Sized for a multi-second stall without backpressure on the sim.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL durability
	// is enough for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			entities INTEGER NOT NULL,
			loaded_chunks INTEGER NOT NULL,
			active_jobs INTEGER NOT NULL,
			step_ms REAL NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT,
			kind TEXT,
			chunk_x INTEGER,
			chunk_z INTEGER,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_tick ON events(type, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues one tick for indexing. Never blocks; drops when the
// indexer falls behind.
func (s *SQLiteIndex) WriteTick(m world.Metrics, events []world.Event) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	// The world reuses its event slice next tick; copy before queueing.
	var evs []world.Event
	if len(events) > 0 {
		evs = append(evs, events...)
	}
	select {
	case s.ch <- req{metrics: m, events: evs}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,entities,loaded_chunks,active_jobs,step_ms,raw_json) VALUES(?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(tick,seq,type,entity_id,kind,chunk_x,chunk_z,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
	}

	flushTimer := time.NewTicker(500 * time.Millisecond)
	defer flushTimer.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			begin()
			if tx == nil {
				continue
			}
			raw, _ := json.Marshal(r.metrics)
			_, _ = tx.Stmt(insertTick).Exec(
				r.metrics.Tick, r.metrics.Entities, r.metrics.LoadedChunks,
				r.metrics.ActiveJobs, r.metrics.StepMS, string(raw))
			opCount++
			for seq, ev := range r.events {
				rawEv, _ := json.Marshal(ev)
				var cx, cz any
				if ev.Chunk != nil {
					cx, cz = ev.Chunk.X, ev.Chunk.Z
				}
				_, _ = tx.Stmt(insertEvent).Exec(
					ev.Tick, seq, string(ev.Type), ev.EntityID, string(ev.Kind), cx, cz, string(rawEv))
				opCount++
			}
			if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		case <-flushTimer.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}

// TickRange returns min and max indexed tick, for tooling.
func (s *SQLiteIndex) TickRange() (lo, hi uint64, err error) {
	row := s.db.QueryRow(`SELECT COALESCE(MIN(tick),0), COALESCE(MAX(tick),0) FROM ticks`)
	err = row.Scan(&lo, &hi)
	return lo, hi, err
}

// EventCount tallies indexed events by type.
func (s *SQLiteIndex) EventCount(eventType string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE type = ?`, eventType).Scan(&n)
	return n, err
}
