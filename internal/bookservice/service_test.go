package bookservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/bookservice"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/payload"
	"github.com/starford/laguz/internal/store"
	"github.com/starford/laguz/internal/testutil"
)

func TestCreateBookSuffixesDuplicateTitles(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()
	owner := testutil.TestUser(t, db, "alice")

	want := []string{"trip-notes", "trip-notes-2", "trip-notes-3"}
	for _, w := range want {
		b, err := svc.CreateBook(ctx, owner.ID, "Trip Notes", "")
		if err != nil {
			t.Fatal(err)
		}
		if b.Slug != w {
			t.Errorf("slug = %q, want %q", b.Slug, w)
		}
	}
}

func TestCreateBookFallbackSlug(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	owner := testutil.TestUser(t, db, "alice")

	b, err := svc.CreateBook(context.Background(), owner.ID, "!!!", "")
	if err != nil {
		t.Fatal(err)
	}
	if b.Slug != "logbook" {
		t.Errorf("slug = %q, want logbook", b.Slug)
	}
}

func TestCreateBookValidation(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	owner := testutil.TestUser(t, db, "alice")

	if _, err := svc.CreateBook(context.Background(), owner.ID, "   ", ""); err == nil {
		t.Error("empty title should fail")
	}
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.CreateBook(context.Background(), owner.ID, string(long), ""); err == nil {
		t.Error("overlong title should fail")
	}
}

// conflictStore makes the allocator's pre-check lie: the first insert loses
// the slug race even though the probe reported the candidate free.
type conflictStore struct {
	store.Store
	conflicts int
}

func (s *conflictStore) CreateBook(ctx context.Context, b *models.LogBook) error {
	if s.conflicts > 0 {
		s.conflicts--
		return apperr.ErrConflict
	}
	return s.Store.CreateBook(ctx, b)
}

func TestCreateBookRetriesOnSlugRace(t *testing.T) {
	db := testutil.TestDB(t)
	cs := &conflictStore{Store: db, conflicts: 2}
	svc := bookservice.NewService(cs, nil)
	owner := testutil.TestUser(t, db, "alice")

	b, err := svc.CreateBook(context.Background(), owner.ID, "Raced", "")
	if err != nil {
		t.Fatalf("create after retries: %v", err)
	}
	if b.Slug != "raced" {
		t.Errorf("slug = %q", b.Slug)
	}
}

func TestCreateBookGivesUpAfterRetries(t *testing.T) {
	db := testutil.TestDB(t)
	cs := &conflictStore{Store: db, conflicts: 100}
	svc := bookservice.NewService(cs, nil)
	owner := testutil.TestUser(t, db, "alice")

	_, err := svc.CreateBook(context.Background(), owner.ID, "Raced", "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()
	alice := testutil.TestUser(t, db, "alice")
	bob := testutil.TestUser(t, db, "bob")

	if _, err := svc.CreateBook(ctx, alice.ID, "Private", ""); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetBook(ctx, bob.ID, "private"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateBook(ctx, bob.ID, "private", "Mine Now", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteBook(ctx, bob.ID, "private"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete = %v, want ErrNotFound", err)
	}
	if _, err := svc.CreateEntry(ctx, bob.ID, "private", bookservice.EntryInput{
		Payload: payload.Input{Kind: models.KindLongText, LongText: "intrusion"},
	}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("create entry = %v, want ErrNotFound", err)
	}
}

func TestEntryLifecycle(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()
	owner := testutil.TestUser(t, db, "alice")

	if _, err := svc.CreateBook(ctx, owner.ID, "Runs", ""); err != nil {
		t.Fatal(err)
	}

	created, err := svc.CreateEntry(ctx, owner.ID, "runs", bookservice.EntryInput{
		Payload: payload.Input{Kind: models.KindNumberArray, NumberArrayText: "5.2, 4.8\n6.1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Kind != models.KindNumberArray {
		t.Errorf("kind = %q", created.Kind)
	}
	if created.NumberArrayText != "5.2, 4.8, 6.1" {
		t.Errorf("number_array_text = %q", created.NumberArrayText)
	}

	// Switch variant on update; the array must be gone afterwards.
	updated, err := svc.UpdateEntry(ctx, owner.ID, "runs", created.ID, bookservice.EntryInput{
		Payload: payload.Input{Kind: models.KindShortText, ShortText: "rest day"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Kind != models.KindShortText || updated.ShortText != "rest day" {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.NumberArray) != 0 || updated.NumberArrayText != "" {
		t.Errorf("stale array survived: %+v", updated)
	}

	got, err := svc.GetEntry(ctx, owner.ID, "runs", created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != models.KindShortText || len(got.NumberArray) != 0 {
		t.Errorf("persisted entry = %+v", got)
	}

	if err := svc.DeleteEntry(ctx, owner.ID, "runs", created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetEntry(ctx, owner.ID, "runs", created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestEntryBadNumberArrayNotPersisted(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()
	owner := testutil.TestUser(t, db, "alice")

	if _, err := svc.CreateBook(ctx, owner.ID, "Runs", ""); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateEntry(ctx, owner.ID, "runs", bookservice.EntryInput{
		Payload: payload.Input{Kind: models.KindNumberArray, NumberArrayText: "1, abc"},
	})
	ve, ok := apperr.AsValidation(err)
	if !ok || ve.Value != "abc" {
		t.Fatalf("err = %v, want validation error naming abc", err)
	}

	book, err := svc.GetBook(ctx, owner.ID, "runs")
	if err != nil {
		t.Fatal(err)
	}
	if len(book.Entries) != 0 {
		t.Errorf("entry persisted despite validation failure: %+v", book.Entries)
	}
}

func TestLegacyEntryKindInferredByPrecedence(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()
	owner := testutil.TestUser(t, db, "alice")

	book, err := svc.CreateBook(ctx, owner.ID, "Legacy", "")
	if err != nil {
		t.Fatal(err)
	}

	// A row written before the discriminator existed: no kind, number AND
	// a stray short_text. The editor must pre-select number.
	n := 42.0
	now := time.Now().UTC()
	raw := &models.Entry{
		BookID:     book.ID,
		OccurredAt: now,
		Number:     &n,
		ShortText:  "stray",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.CreateEntry(ctx, raw); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetEntry(ctx, owner.ID, "legacy", raw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != models.KindNumber {
		t.Errorf("kind = %q, want number (precedence)", got.Kind)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.PasswordHash == "correct horse" {
		t.Errorf("user = %+v", u)
	}

	if _, err := svc.Register(ctx, "alice", "", "correct horse"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate register = %v, want ErrAlreadyExists", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "correct horse"); err != nil {
		t.Errorf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("bad password = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unknown user = %v, want ErrUnauthorized", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "", "correct horse"); err == nil {
		t.Error("empty username should fail")
	}
	if _, err := svc.Register(ctx, "bob", "", "short"); err == nil {
		t.Error("short password should fail")
	}
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) PublishBookEvent(_, kind, slug string) {
	n.events = append(n.events, "book."+kind+":"+slug)
}

func (n *recordingNotifier) PublishEntryEvent(_, kind, slug string, _ int64) {
	n.events = append(n.events, "entry."+kind+":"+slug)
}

func TestMutationsNotify(t *testing.T) {
	db := testutil.TestDB(t)
	rec := &recordingNotifier{}
	svc := bookservice.NewService(db, rec)
	ctx := context.Background()
	owner := testutil.TestUser(t, db, "alice")

	if _, err := svc.CreateBook(ctx, owner.ID, "Runs", ""); err != nil {
		t.Fatal(err)
	}
	e, err := svc.CreateEntry(ctx, owner.ID, "runs", bookservice.EntryInput{
		Payload: payload.Input{Kind: models.KindLongText, LongText: "day one"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteEntry(ctx, owner.ID, "runs", e.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{"book.created:runs", "entry.created:runs", "entry.deleted:runs"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v", rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}
