//go:build integration

package postgres

// go test -tags=integration ./internal/repo/postgres -run AlertsCRUD -count=1

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
)

func TestAlertsCRUD(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("test-%d|PVR Centro Mall", time.Now().UnixNano())

	// none yet
	rec, err := store.Get(ctx, key)
	if err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}

	// set (no sent time)
	if err := store.Set(ctx, key, classify.StatusMentioned, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, err = store.Get(ctx, key)
	if err != nil || rec == nil || rec.LastSentAt != nil || rec.LastStatus != classify.StatusMentioned {
		t.Fatalf("unexpected: %+v err=%v", rec, err)
	}

	// set with sent time
	now := time.Now()
	if err := store.Set(ctx, key, classify.StatusOpen, now); err != nil {
		t.Fatalf("set2: %v", err)
	}
	// status change without a send keeps last_sent_at
	if err := store.Set(ctx, key, classify.StatusOpeningSoon, time.Time{}); err != nil {
		t.Fatalf("set3: %v", err)
	}
	rec, err = store.Get(ctx, key)
	if err != nil || rec == nil || rec.LastSentAt == nil || rec.LastStatus != classify.StatusOpeningSoon {
		t.Fatalf("unexpected2: %+v err=%v", rec, err)
	}
}
