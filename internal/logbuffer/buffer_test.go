package logbuffer

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBufferEvictsOldest(t *testing.T) {
	b := New(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		b.Add(LogEntry{Message: msg})
	}

	all := b.GetAll()
	if len(all) != 3 || all[0].Message != "b" || all[2].Message != "d" {
		t.Fatalf("entries = %+v", all)
	}
}

func TestWriterCapturesZerologLines(t *testing.T) {
	b := New(10)
	var out bytes.Buffer
	logger := zerolog.New(NewWriter(b, &out)).With().Timestamp().Logger()

	logger.Info().Str("component", "gallery").Str("session_id", "s1").Msg("session opened")
	logger.Warn().Str("component", "media").Str("src", "/D2.mov").Msg("missing file")

	if out.Len() == 0 {
		t.Fatal("fallback writer received nothing")
	}

	entries := b.Query(QueryParams{SessionID: "s1"})
	if len(entries) != 1 || entries[0].Component != "gallery" || entries[0].Level != "info" {
		t.Fatalf("session entries = %+v", entries)
	}

	found := b.Query(QueryParams{Search: "d2.MOV"})
	if len(found) != 1 || found[0].Fields["src"] != "/D2.mov" {
		t.Fatalf("search entries = %+v", found)
	}
}

func TestQueryOrderingAndLimit(t *testing.T) {
	b := New(10)
	base := time.Now()
	for i, lvl := range []string{"info", "error", "info", "error"} {
		b.Add(LogEntry{Level: lvl, Message: lvl, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	got := b.Query(QueryParams{Level: "error", Descending: true, Limit: 1})
	if len(got) != 1 || !got[0].Timestamp.Equal(base.Add(3*time.Second)) {
		t.Fatalf("query = %+v", got)
	}

	since := b.Query(QueryParams{Since: base.Add(2 * time.Second)})
	if len(since) != 2 {
		t.Fatalf("since query = %d entries", len(since))
	}
}

func TestStatsAndComponents(t *testing.T) {
	b := New(10)
	b.Add(LogEntry{Level: "info", Component: "media"})
	b.Add(LogEntry{Level: "warn", Component: "api"})
	b.Add(LogEntry{Level: "info", Component: "media"})

	stats := b.Stats()
	if stats.Count != 3 || stats.LevelCount["info"] != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	comps := b.Components()
	if len(comps) != 2 || comps[0] != "api" {
		t.Fatalf("components = %v", comps)
	}

	b.Clear()
	if len(b.GetAll()) != 0 {
		t.Fatal("clear left entries")
	}
}
