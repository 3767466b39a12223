package msglog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	return l
}

func TestAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	for i, text := range []string{"/start", "/addexpense 250 food lunch", "/expense"} {
		err := l.Append(ctx, Entry{
			Platform: "telegram",
			Sender:   "42",
			UpdateID: int64(100 + i),
			Text:     text,
			Raw:      fmt.Sprintf(`{"update_id":%d}`, 100+i),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// newest first
	if entries[0].Text != "/expense" || entries[2].Text != "/start" {
		t.Errorf("entries not newest-first: %q ... %q", entries[0].Text, entries[2].Text)
	}
	if entries[0].UpdateID != 102 {
		t.Errorf("UpdateID = %d, want 102", entries[0].UpdateID)
	}
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Append(ctx, Entry{Platform: "telegram", Sender: "42", Text: "hi", Raw: "{}"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestRecentEmpty(t *testing.T) {
	l := openTestLog(t)

	entries, err := l.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
