package boardservice

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/reboard/internal/apperr"
	"github.com/starford/reboard/internal/collection"
	"github.com/starford/reboard/internal/snooze"
	"github.com/starford/reboard/internal/storage"
	"github.com/starford/reboard/internal/testutil"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.Local)

type testEnv struct {
	store   storage.Provider
	snoozes *snooze.Store
	coll    *collection.Collection
	svc     *Service
}

func newTestEnv(t *testing.T, tiers []int) *testEnv {
	t.Helper()
	store, snoozes, coll := testutil.TestCollection(t)
	policy := snooze.NewPolicy(tiers)
	svc := NewService(store, coll, snoozes, policy, 200, testutil.Logger())
	svc.SetClock(func() time.Time { return testNow })
	return &testEnv{store: store, snoozes: snoozes, coll: coll, svc: svc}
}

// seed writes a note and makes the collection aware of it.
func (e *testEnv) seed(t *testing.T, path, content string) {
	t.Helper()
	if err := e.store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	e.coll.RefetchPath(path)
}

func TestBoards(t *testing.T) {
	env := newTestEnv(t, []int{24, 48})
	env.seed(t, "root.md", "# Root")
	env.seed(t, "Inbox/a.md", "# A")
	env.seed(t, "Inbox/b.md", "# B")
	env.seed(t, "Projects/Work/c.md", "# C")

	boards := env.svc.Boards()
	if len(boards) != 3 {
		t.Fatalf("boards = %+v, want 3", boards)
	}
	// Sorted by path: "" < Inbox < Projects/Work.
	if boards[0].Path != "" || boards[0].NoteCount != 1 {
		t.Errorf("root board = %+v", boards[0])
	}
	if boards[1].Path != "Inbox" || boards[1].NoteCount != 2 || boards[1].Name != "Inbox" {
		t.Errorf("inbox board = %+v", boards[1])
	}
	if boards[2].Path != "Projects/Work" || boards[2].Name != "Work" {
		t.Errorf("nested board = %+v", boards[2])
	}
}

func TestBoard_CardsAndSnoozeFilter(t *testing.T) {
	env := newTestEnv(t, []int{24, 48})
	env.seed(t, "Inbox/visible.md", "---\ntitle: Visible Note\n---\n\nSome body text here.")
	env.seed(t, "Inbox/napping.md", "# Napping")

	if _, err := env.svc.SnoozeNote("napping.md", 0); err != nil {
		t.Fatal(err)
	}

	cards, err := env.svc.Board("Inbox", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 {
		t.Fatalf("cards = %+v, want only the visible note", cards)
	}
	card := cards[0]
	if card.Name != "visible.md" || card.Title != "Visible Note" {
		t.Errorf("card = %+v", card)
	}
	if card.Preview == "" || card.Snoozed {
		t.Errorf("card = %+v", card)
	}

	all, err := env.svc.Board("Inbox", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("include-snoozed cards = %d, want 2", len(all))
	}
	for _, c := range all {
		if c.Name == "napping.md" {
			if !c.Snoozed || c.Interval != 24 || c.RemainingHours != 24 || c.ExpireTime == "" {
				t.Errorf("snoozed card = %+v", c)
			}
		}
	}
}

func TestBoard_UnknownFolder(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "Inbox/a.md", "# A")

	if _, err := env.svc.Board("Nope", false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// The root board exists even when empty.
	cards, err := env.svc.Board("", false)
	if err != nil {
		t.Errorf("root board err = %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("root cards = %+v", cards)
	}
}

func TestBoard_FolderWithOnlySnoozedNotesStillExists(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "Inbox/only.md", "# Only")
	if _, err := env.svc.SnoozeNote("only.md", 0); err != nil {
		t.Fatal(err)
	}

	cards, err := env.svc.Board("Inbox", false)
	if err != nil {
		t.Fatalf("board with only snoozed notes reported missing: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("cards = %+v, want none visible", cards)
	}
}

func TestCreateNote_NamingSequence(t *testing.T) {
	env := newTestEnv(t, []int{24})

	want := []string{"New Note.md", "New Note 1.md", "New Note 2.md"}
	for _, name := range want {
		card, err := env.svc.CreateNote("Inbox", "")
		if err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
		if card.Name != name || card.Path != "Inbox/"+name {
			t.Errorf("card = %+v, want name %s", card, name)
		}
	}
}

func TestCreateNote_VaultWideUniqueness(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "Idea.md", "# Existing")

	// Same leaf name in a different folder still collides in the key space.
	card, err := env.svc.CreateNote("Inbox", "Idea")
	if err != nil {
		t.Fatal(err)
	}
	if card.Name != "Idea 1.md" || card.Path != "Inbox/Idea 1.md" {
		t.Errorf("card = %+v, want Idea 1.md", card)
	}
}

func TestCreateNote_TrimsExtension(t *testing.T) {
	env := newTestEnv(t, []int{24})
	card, err := env.svc.CreateNote("", "Draft.md")
	if err != nil {
		t.Fatal(err)
	}
	if card.Name != "Draft.md" {
		t.Errorf("name = %s, want Draft.md (no double extension)", card.Name)
	}
}

func TestSnoozeNote_Escalation(t *testing.T) {
	env := newTestEnv(t, []int{24, 48})
	env.seed(t, "n.md", "# N")

	// First snooze starts at the smallest tier.
	rec, err := env.svc.SnoozeNote("n.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 24 {
		t.Errorf("first interval = %d, want 24", rec.Snooze.Interval)
	}
	if !rec.Snooze.ExpireTime.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("expire = %v", rec.Snooze.ExpireTime)
	}

	// Re-snoozing a live entry advances one tier.
	rec, err = env.svc.SnoozeNote("n.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 48 {
		t.Errorf("second interval = %d, want 48", rec.Snooze.Interval)
	}

	// And saturates at the top tier.
	rec, err = env.svc.SnoozeNote("n.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 48 {
		t.Errorf("third interval = %d, want 48 (saturated)", rec.Snooze.Interval)
	}

	// State comes from the document, not the cache.
	entry, err := env.snoozes.GetEntry("n.md")
	if err != nil || entry == nil {
		t.Fatalf("entry = %+v, %v", entry, err)
	}
	if entry.Interval != 48 {
		t.Errorf("persisted interval = %d", entry.Interval)
	}
}

func TestSnoozeNote_CustomHoursRecordedAsInterval(t *testing.T) {
	env := newTestEnv(t, []int{24, 48})
	env.seed(t, "n.md", "# N")

	rec, err := env.svc.SnoozeNote("n.md", 5)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 5 {
		t.Errorf("custom interval = %d, want 5", rec.Snooze.Interval)
	}
	if !rec.Snooze.ExpireTime.Equal(testNow.Add(5 * time.Hour)) {
		t.Errorf("expire = %v", rec.Snooze.ExpireTime)
	}

	// The next incremental snooze sees the off-tier interval and snaps to
	// the largest tier.
	rec, err = env.svc.SnoozeNote("n.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 48 {
		t.Errorf("interval after custom = %d, want 48", rec.Snooze.Interval)
	}
}

func TestSnoozeNote_ResetsAfterExpiry(t *testing.T) {
	env := newTestEnv(t, []int{24, 48})
	env.seed(t, "n.md", "# N")

	if _, err := env.svc.SnoozeNote("n.md", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.SnoozeNote("n.md", 0); err != nil {
		t.Fatal(err)
	}

	// Jump past the 48h expiry: escalation starts over.
	env.svc.SetClock(func() time.Time { return testNow.Add(49 * time.Hour) })
	rec, err := env.svc.SnoozeNote("n.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Snooze.Interval != 24 {
		t.Errorf("interval after expiry = %d, want 24 (reset)", rec.Snooze.Interval)
	}
}

func TestSnoozeNote_Unknown(t *testing.T) {
	env := newTestEnv(t, []int{24})
	if _, err := env.svc.SnoozeNote("ghost.md", 0); !errors.Is(err, apperr.ErrUnknownNote) {
		t.Errorf("err = %v, want ErrUnknownNote", err)
	}
}

func TestSnoozeNote_NoTiersConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "n.md", "# N")

	if _, err := env.svc.SnoozeNote("n.md", 0); err == nil {
		t.Error("expected error with no tiers configured")
	}
	// Custom hours still work without tiers.
	if _, err := env.svc.SnoozeNote("n.md", 3); err != nil {
		t.Errorf("custom snooze failed: %v", err)
	}
}

func TestWakeNote(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "n.md", "# N")

	if _, err := env.svc.SnoozeNote("n.md", 0); err != nil {
		t.Fatal(err)
	}
	rec, err := env.svc.WakeNote("n.md")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Snooze.IsZero() {
		t.Errorf("snooze info survived wake: %+v", rec.Snooze)
	}
	entry, _ := env.snoozes.GetEntry("n.md")
	if entry != nil {
		t.Errorf("persisted entry survived wake: %+v", entry)
	}
}

func TestUnpinNote(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "Inbox/n.md", "# N")

	rec, err := env.svc.UnpinNote("n.md")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Path != "n.md" {
		t.Errorf("path = %s, want n.md", rec.Path)
	}
	if _, err := env.store.Read("n.md"); err != nil {
		t.Errorf("file not moved: %v", err)
	}

	// Unpinning a root note is a no-op.
	rec, err = env.svc.UnpinNote("n.md")
	if err != nil || rec.Path != "n.md" {
		t.Errorf("second unpin = %+v, %v", rec, err)
	}
}

func TestDeleteNote(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "n.md", "# N")

	if err := env.svc.DeleteNote("n.md"); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.coll.Get("n.md"); ok {
		t.Error("record survived delete")
	}
	if err := env.svc.DeleteNote("n.md"); !errors.Is(err, apperr.ErrUnknownNote) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSweepExpired_ClearsInExpiryOrder(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "late.md", "# Late")
	env.seed(t, "early.md", "# Early")
	env.seed(t, "active.md", "# Active")

	// Two expired entries with distinct expiry instants, one still live.
	mustSet := func(path string, interval int, expire time.Time) {
		t.Helper()
		if err := env.snoozes.SetEntry(path, interval, expire); err != nil {
			t.Fatal(err)
		}
		env.coll.RefetchPath(path)
	}
	mustSet("late.md", 24, testNow.Add(-time.Hour))
	mustSet("early.md", 24, testNow.Add(-3*time.Hour))
	mustSet("active.md", 24, testNow.Add(time.Hour))

	cleared, err := env.svc.SweepExpired("")
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if len(cleared) != 2 || cleared[0] != "early.md" || cleared[1] != "late.md" {
		t.Errorf("cleared = %v, want [early.md late.md]", cleared)
	}

	for _, path := range cleared {
		entry, _ := env.snoozes.GetEntry(path)
		if entry != nil {
			t.Errorf("%s: entry survived sweep: %+v", path, entry)
		}
	}
	entry, _ := env.snoozes.GetEntry("active.md")
	if entry == nil {
		t.Error("active entry cleared by sweep")
	}

	// Swept notes are visible on the board again.
	cards, err := env.svc.Board("", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 {
		t.Errorf("visible cards after sweep = %d, want 2", len(cards))
	}
}

func TestSweepExpired_ScopedToFolder(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "Inbox/in.md", "# In")
	env.seed(t, "out.md", "# Out")
	_ = env.snoozes.SetEntry("Inbox/in.md", 24, testNow.Add(-time.Hour))
	_ = env.snoozes.SetEntry("out.md", 24, testNow.Add(-time.Hour))
	env.coll.RefetchPath("Inbox/in.md")
	env.coll.RefetchPath("out.md")

	cleared, err := env.svc.SweepExpired("Inbox")
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 1 || cleared[0] != "Inbox/in.md" {
		t.Errorf("cleared = %v", cleared)
	}
	entry, _ := env.snoozes.GetEntry("out.md")
	if entry == nil {
		t.Error("out-of-scope entry cleared")
	}
}

func TestSweepExpired_NothingToDo(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "n.md", "# N")

	cleared, err := env.svc.SweepExpired("")
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 0 {
		t.Errorf("cleared = %v, want none", cleared)
	}
}

func TestListSnoozed(t *testing.T) {
	env := newTestEnv(t, []int{24})
	env.seed(t, "a.md", "# A")
	env.seed(t, "b.md", "# B")
	env.seed(t, "plain.md", "# Plain")
	_ = env.snoozes.SetEntry("a.md", 24, testNow.Add(24*time.Hour))
	_ = env.snoozes.SetEntry("b.md", 24, testNow.Add(-time.Hour))
	env.coll.RefetchPath("a.md")
	env.coll.RefetchPath("b.md")

	rows := env.svc.ListSnoozed()
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2", rows)
	}
	// Sorted by expiry ascending: the already-expired entry first.
	if rows[0].Name != "b.md" || rows[0].Status != "expired" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Name != "a.md" || rows[1].Status != "active" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}
