package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "tuirace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func fastRecord() record.Record {
	var rec record.Record
	rec.Append(200*time.Millisecond, record.Correct())
	rec.Append(400*time.Millisecond, record.Wrong('i'))
	rec.Append(600*time.Millisecond, record.Correct())
	return rec
}

func slowRecord() record.Record {
	var rec record.Record
	rec.Append(1*time.Second, record.Correct())
	rec.Append(3*time.Second, record.Correct())
	return rec
}

func TestTextKey(t *testing.T) {
	key := TextKey("Hello, there")
	if len(key) != 10 {
		t.Fatalf("unexpected key length %d", len(key))
	}
	if key == TextKey("Hello, there!") {
		t.Fatalf("distinct texts share a key")
	}
	if key != TextKey("Hello, there") {
		t.Fatalf("key not deterministic")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	key := TextKey("Hi")

	want := fastRecord()
	if _, err := st.SaveRecord(ctx, key, "amy", want, true); err != nil {
		t.Fatalf("save record: %v", err)
	}

	sum, got, err := st.LoadBestOrLatest(ctx, key)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if sum.User != "amy" || !sum.Finished || sum.Inputs != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if got.Len() != want.Len() {
		t.Fatalf("input count = %d, want %d", got.Len(), want.Len())
	}
	for i, e := range got.Inputs {
		if e.Elapsed != want.Inputs[i].Elapsed || e.Result != want.Inputs[i].Result {
			t.Fatalf("input %d = %+v, want %+v", i, e, want.Inputs[i])
		}
	}
}

func TestLoadBestPrefersFinished(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	key := TextKey("Hi")

	// An unfinished record saved later must not shadow the finished one.
	if _, err := st.SaveRecord(ctx, key, "amy", slowRecord(), true); err != nil {
		t.Fatalf("save finished: %v", err)
	}
	if _, err := st.SaveRecord(ctx, key, "amy", fastRecord(), false); err != nil {
		t.Fatalf("save unfinished: %v", err)
	}

	sum, _, err := st.LoadBestOrLatest(ctx, key)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if !sum.Finished {
		t.Fatalf("expected the finished record, got %+v", sum)
	}
}

func TestLoadLatestWhenNoneFinished(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	key := TextKey("Hi")

	if _, err := st.SaveRecord(ctx, key, "amy", slowRecord(), false); err != nil {
		t.Fatalf("save: %v", err)
	}
	latest, err := st.SaveRecord(ctx, key, "bob", fastRecord(), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	sum, _, err := st.LoadBestOrLatest(ctx, key)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if sum.ID != latest {
		t.Fatalf("expected latest record %d, got %+v", latest, sum)
	}
}

func TestLoadBestOrLatestNoRecord(t *testing.T) {
	st := openTestStore(t)
	if _, _, err := st.LoadBestOrLatest(context.Background(), TextKey("Hi")); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestListRecordsFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	keyA := TextKey("aaa")
	keyB := TextKey("bbb")

	if _, err := st.SaveRecord(ctx, keyA, "amy", fastRecord(), true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.SaveRecord(ctx, keyB, "bob", slowRecord(), true); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := st.ListRecords(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	only, err := st.ListRecords(ctx, keyA)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(only) != 1 || only[0].TextKey != keyA || only[0].Inputs != 3 {
		t.Fatalf("unexpected filtered records %+v", only)
	}
}
