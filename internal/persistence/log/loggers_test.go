package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"openroam.dev/internal/sim/world"
	"openroam.dev/internal/sim/world/geom"
)

func TestMetricsLoggerWritesDecodableJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewMetricsLogger(dir)

	pos := geom.Vec3{X: 1, Z: 2}
	for tick := uint64(0); tick < 3; tick++ {
		var events []world.Event
		if tick == 1 {
			events = []world.Event{{Tick: tick, Type: world.EventEntitySpawned, EntityID: "E000007", Pos: &pos}}
		}
		if err := l.WriteTick(world.Metrics{Tick: tick, Entities: 5}, events); err != nil {
			t.Fatalf("write tick %d: %v", tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "metrics", "metrics-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files: %v (%v)", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var entries []TickEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e TickEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %d: %v", len(entries), err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("entries: %d", len(entries))
	}
	for i, e := range entries {
		if e.Tick != uint64(i) || e.Metrics.Entities != 5 {
			t.Fatalf("entry %d: %+v", i, e)
		}
	}
	if len(entries[1].Events) != 1 || entries[1].Events[0].EntityID != "E000007" {
		t.Fatalf("events lost: %+v", entries[1].Events)
	}
	if len(entries[0].Events) != 0 {
		t.Fatalf("quiet tick has events")
	}
}

func TestWriterRotatesByHourKey(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "test")
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "test-*.jsonl.zst"))
	if len(matches) != 1 {
		t.Fatalf("files: %v", matches)
	}
}
