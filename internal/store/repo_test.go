package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "linkograph-test.db"), 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(name string) *models.Protocol {
	return &models.Protocol{
		Name:      name,
		MoveCount: 4,
		Moves:     models.DefaultMoves(4),
		Links:     []linkograph.Link{{Move1: 1, Move2: 2}, {Move1: 1, Move2: 3}},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"linkographs", "moves", "links"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Chair")
	if err := db.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.Checksum == "" || p.CreatedAt.IsZero() {
		t.Fatalf("Create did not fill fields: %+v", p)
	}

	got, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Chair" || got.MoveCount != 4 || len(got.Moves) != 4 || len(got.Links) != 2 {
		t.Errorf("Get = %+v", got)
	}
	if got.Checksum != p.Checksum {
		t.Errorf("checksum = %q, want %q", got.Checksum, p.Checksum)
	}

	// Cached copies must not leak mutations.
	got.Links[0] = linkograph.Link{Move1: 3, Move2: 4}
	again, _ := db.Get(ctx, p.ID)
	if again.Links[0] != (linkograph.Link{Move1: 1, Move2: 2}) {
		t.Errorf("cache returned mutated links: %v", again.Links)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList_FilterAndPaging(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, name := range []string{"Chair study", "Kettle", "Armchair"} {
		if err := db.Create(ctx, sample(name)); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := db.List(ctx, ListOptions{Query: "chair"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total=%d len=%d, want 2", total, len(items))
	}
	if items[0].LinkCount != 2 {
		t.Errorf("link count = %d, want 2", items[0].LinkCount)
	}

	items, total, err = db.List(ctx, ListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Errorf("total=%d len=%d, want 3/1", total, len(items))
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Gone")
	_ = db.Create(ctx, p)

	if err := db.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	var n int
	_ = db.conn.QueryRow(`SELECT count(*) FROM links WHERE linkograph_id = ?`, p.ID).Scan(&n)
	if n != 0 {
		t.Errorf("links not cascaded, %d rows left", n)
	}
	if err := db.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestSetLink(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Toggle")
	_ = db.Create(ctx, p)

	got, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 2, Move2: 4}, true, p.Checksum)
	if err != nil {
		t.Fatalf("SetLink select: %v", err)
	}
	if len(got.Links) != 3 {
		t.Fatalf("links = %v, want 3", got.Links)
	}
	if got.Checksum == p.Checksum {
		t.Error("checksum did not change")
	}

	// Selecting again is idempotent.
	again, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 2, Move2: 4}, true, "")
	if err != nil || len(again.Links) != 3 || again.Checksum != got.Checksum {
		t.Fatalf("reselect: links=%v err=%v", again.Links, err)
	}

	cleared, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 2, Move2: 4}, false, got.Checksum)
	if err != nil {
		t.Fatalf("SetLink clear: %v", err)
	}
	if cleared.Checksum != p.Checksum {
		t.Errorf("checksum after clear = %q, want original %q", cleared.Checksum, p.Checksum)
	}
}

func TestSetLink_Conflict(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Stale")
	_ = db.Create(ctx, p)

	_, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 1, Move2: 4}, true, "stale")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := db.SetLink(ctx, "missing", linkograph.Link{Move1: 1, Move2: 4}, true, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertSource(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := sample("From file")
	p.Source = "chair.md"
	created, err := db.UpsertSource(ctx, p, "f1")
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	id := p.ID

	q := sample("Renamed")
	q.Source = "chair.md"
	q.Links = []linkograph.Link{{Move1: 3, Move2: 4}}
	created, err = db.UpsertSource(ctx, q, "f2")
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if q.ID != id {
		t.Errorf("ID changed on upsert: %s -> %s", id, q.ID)
	}

	got, _ := db.Get(ctx, id)
	if got.Name != "Renamed" || len(got.Links) != 1 {
		t.Errorf("Get after upsert = %+v", got)
	}

	sums, err := db.SourceChecksums(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sums["chair.md"] != "f2" || len(sums) != 1 {
		t.Errorf("source checksums = %v", sums)
	}
	if cs, err := db.SourceChecksum(ctx, "chair.md"); err != nil || cs != "f2" {
		t.Errorf("SourceChecksum = %q, %v", cs, err)
	}
	if _, err := db.SourceChecksum(ctx, "absent.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("SourceChecksum(absent) err = %v", err)
	}

	gone, err := db.DeleteSource(ctx, "chair.md")
	if err != nil || gone != id {
		t.Fatalf("DeleteSource = %q, %v", gone, err)
	}
	if _, err := db.DeleteSource(ctx, "chair.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteSource err = %v", err)
	}
}

func TestCreate_DuplicateSourceConflicts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := sample("A")
	a.Source = "dup.md"
	if err := db.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	b := sample("B")
	b.Source = "dup.md"
	if err := db.Create(ctx, b); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestGet_WriteDuringReadIsNotCachedStale(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Chair")
	if err := db.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	// The write lands after Get has read the rows but before it fills the
	// cache.
	db.beforeFill = func() {
		db.beforeFill = nil
		if _, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 1, Move2: 2}, false, ""); err != nil {
			t.Errorf("SetLink: %v", err)
		}
	}
	old, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(old.Links) != 2 {
		t.Fatalf("first read links = %v", old.Links)
	}

	got, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []linkograph.Link{{Move1: 1, Move2: 3}}
	if len(got.Links) != 1 || got.Links[0] != want[0] {
		t.Errorf("links after write = %v, want %v", got.Links, want)
	}
}

func TestGet_ConcurrentWritesConverge(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := sample("Busy")
	p.MoveCount = 12
	p.Moves = models.DefaultMoves(12)
	p.Links = nil
	if err := db.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := db.Get(ctx, p.ID); err != nil {
					t.Errorf("Get: %v", err)
					return
				}
			}
		}()
	}

	for m := 2; m <= 12; m++ {
		if _, err := db.SetLink(ctx, p.ID, linkograph.Link{Move1: 1, Move2: m}, true, ""); err != nil {
			t.Fatalf("SetLink: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	got, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Links) != 11 {
		t.Errorf("cached links = %d, want 11", len(got.Links))
	}
}
