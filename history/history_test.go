package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"wechat_md_publisher/publisher"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Last(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Last on empty store: %v", err)
	}

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	first, err := store.Record(ctx, Entry{Title: "First", Success: false, Error: "登录态超时，请重新登录", CreatedAt: base})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatal("Record did not assign an id")
	}
	second, err := store.Record(ctx, Entry{
		Title:     "Second",
		Success:   true,
		DraftURL:  "https://mp.weixin.qq.com/cgi-bin/appmsg?appmsgid=1",
		Source:    "post.md",
		Markdown:  "# Second",
		CreatedAt: base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Entry{second, first}
	opts := cmp.Options{
		cmpopts.IgnoreFields(Entry{}, "BaseModel"),
		cmpopts.EquateApproxTime(time.Millisecond),
	}
	if diff := cmp.Diff(want, entries, opts); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	last, err := store.Last(ctx)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.ID != second.ID || last.Markdown != "# Second" {
		t.Errorf("Last = %+v", last)
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "First" || got.Success {
		t.Errorf("Get = %+v", got)
	}
	if _, err := store.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown id: %v", err)
	}
}

func TestStore_ListLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, title := range []string{"a", "b", "c"} {
		if _, err := store.Record(ctx, Entry{Title: title, Success: true}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "c" || entries[1].Title != "b" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFromResult(t *testing.T) {
	t.Parallel()

	got := FromResult(publisher.Result{Success: false, Error: "标题超出64字长度限制", Title: "T"}, "post.md", "# T")
	want := Entry{Title: "T", Success: false, Error: "标题超出64字长度限制", Source: "post.md", Markdown: "# T"}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Entry{}, "BaseModel")); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}
