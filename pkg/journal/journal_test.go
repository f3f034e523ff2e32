package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleEntry(id string, at time.Time) Entry {
	return Entry{
		ID:         id,
		CreatedAt:  at,
		Market:     "WETH/USDC",
		Direction:  "BUY",
		Kind:       "limit",
		Tick:       -1234,
		FillVolume: "1000000",
		TxHash:     "0xabc",
		Got:        "500",
		Gave:       "1000",
		Fee:        "5",
		Bounty:     "0",
		OfferID:    "23",
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	if err := j.Record(sampleEntry("a", base)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(sampleEntry("b", base.Add(time.Minute))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "b" || entries[1].ID != "a" {
		t.Errorf("order = %s, %s; want newest first", entries[0].ID, entries[1].ID)
	}
	if entries[1].Tick != -1234 || entries[1].OfferID != "23" {
		t.Errorf("entry fields lost: %+v", entries[1])
	}
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	j := openTestJournal(t)

	e := sampleEntry("dup", time.Now().UTC())
	if err := j.Record(e); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := j.Record(e); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t)

	base := time.Now().UTC()
	for i, id := range []string{"1", "2", "3"} {
		if err := j.Record(sampleEntry(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != "3" {
		t.Errorf("Recent(2) = %v", entries)
	}
}
