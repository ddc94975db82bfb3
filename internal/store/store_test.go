package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/storage"
)

// memPersister keeps the last saved calendar in memory and counts saves.
type memPersister struct {
	saved   event.Buckets
	saves   int
	failing bool
	loadErr error
}

func (m *memPersister) Load() (event.Buckets, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.saved == nil {
		return event.Buckets{}, nil
	}
	return m.saved.Clone(), nil
}

func (m *memPersister) Save(b event.Buckets) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.saves++
	m.saved = b.Clone()
	return nil
}

var (
	jun1 = event.NewDate(2024, time.June, 1)
	jun2 = event.NewDate(2024, time.June, 2)
	jun8 = event.NewDate(2024, time.June, 8)
)

func openMem(t *testing.T, initial event.Buckets) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{saved: initial}
	s, err := Open(p)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, p
}

func bucketNames(s *Store, d event.Date) []string {
	var out []string
	for _, rec := range s.Buckets()[d] {
		out = append(out, rec.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpen_LoadError(t *testing.T) {
	corrupt := &storage.CorruptStorageError{Path: "x", Err: errors.New("bad")}
	_, err := Open(&memPersister{loadErr: corrupt})
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("Open() error = %v, want ErrCorrupt", err)
	}
}

func TestAdd_AppendsAndPersists(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "first"}}})
	before := len(s.AllEvents(jun1))

	rec, err := s.Add(jun1, "  second  ", "details")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.Name != "second" {
		t.Errorf("Add() name = %q, want trimmed", rec.Name)
	}

	if got := bucketNames(s, jun1); !equalStrings(got, []string{"first", "second"}) {
		t.Errorf("bucket = %v, want new record last", got)
	}
	if after := len(s.AllEvents(jun1)); after != before+1 {
		t.Errorf("AllEvents() len = %d, want %d", after, before+1)
	}
	if p.saves != 1 {
		t.Errorf("saves = %d, want 1", p.saves)
	}
	if got := p.saved[jun1]; len(got) != 2 || got[1] != (event.Record{Name: "second", Detail: "details"}) {
		t.Errorf("persisted bucket = %v", got)
	}
}

func TestAdd_CreatesBucket(t *testing.T) {
	s, _ := openMem(t, nil)

	if _, err := s.Add(jun8, "Trip", ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if dates := s.Dates(); len(dates) != 1 || dates[0] != jun8 {
		t.Errorf("Dates() = %v", dates)
	}
}

func TestAdd_BlankNameRejected(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "first"}}})

	_, err := s.Add(jun1, "   ", "keep this detail")
	if !errors.Is(err, event.ErrValidation) {
		t.Fatalf("Add() error = %v, want ErrValidation", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, store changed", s.Len())
	}
	if p.saves != 0 {
		t.Errorf("saves = %d, want none", p.saves)
	}
}

func TestAdd_YearOutOfRangeRejected(t *testing.T) {
	tests := []struct {
		name string
		date event.Date
	}{
		{"Five-digit year", event.NewDate(10238, time.February, 20)},
		{"Year zero", event.NewDate(0, time.December, 31)},
		{"Negative year", event.NewDate(-3, time.May, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := openMem(t, nil)

			_, err := s.Add(tt.date, "Far", "")
			if !errors.Is(err, event.ErrValidation) {
				t.Fatalf("Add(%s) error = %v, want ErrValidation", tt.date, err)
			}
			if s.Len() != 0 || p.saves != 0 {
				t.Errorf("store changed: len=%d saves=%d", s.Len(), p.saves)
			}
		})
	}
}

func TestAdd_FarOffsetKeepsFileReadable(t *testing.T) {
	st, err := storage.New(filepath.Join(t.TempDir(), "events.json"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(st)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(jun1, "kept", ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// An offset that parses but lands past year 9999 must not reach the store.
	far := jun1.AddDays(3000000)
	if _, err := s.Add(far, "Far", ""); !errors.Is(err, event.ErrValidation) {
		t.Fatalf("Add(%s) error = %v, want ErrValidation", far, err)
	}

	reopened, err := Open(st)
	if err != nil {
		t.Fatalf("reopen after rejected add: %v", err)
	}
	if got := bucketNames(reopened, jun1); !equalStrings(got, []string{"kept"}) {
		t.Errorf("reopened jun1 = %v", got)
	}
}

func TestDeleteAt(t *testing.T) {
	tests := []struct {
		name      string
		date      event.Date
		position  int
		wantErr   bool
		wantNames []string
		wantGone  bool
	}{
		{"Middle record", jun1, 1, false, []string{"a", "c"}, false},
		{"Out of range", jun1, 3, true, []string{"a", "b", "c"}, false},
		{"Negative", jun1, -1, true, []string{"a", "b", "c"}, false},
		{"Missing date", jun8, 0, true, []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := openMem(t, event.Buckets{jun1: {{Name: "a"}, {Name: "b"}, {Name: "c"}}})

			err := s.DeleteAt(tt.date, tt.position)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteAt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, event.ErrNotFound) {
					t.Errorf("DeleteAt() error = %v, want ErrNotFound", err)
				}
				if p.saves != 0 {
					t.Errorf("saves = %d after failed delete", p.saves)
				}
			}
			if got := bucketNames(s, jun1); !equalStrings(got, tt.wantNames) {
				t.Errorf("bucket = %v, want %v", got, tt.wantNames)
			}
		})
	}
}

func TestDeleteAt_LastRecordRemovesDate(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "only"}}, jun2: {{Name: "other"}}})

	if err := s.DeleteAt(jun1, 0); err != nil {
		t.Fatalf("DeleteAt() error = %v", err)
	}
	if _, ok := s.Buckets()[jun1]; ok {
		t.Error("date key should be removed with its last record")
	}
	if _, ok := p.saved[jun1]; ok {
		t.Error("persisted file still has the empty date")
	}
}

func TestDeleteAt_PositionsShift(t *testing.T) {
	s, _ := openMem(t, event.Buckets{jun1: {{Name: "a"}, {Name: "b"}}})

	if err := s.DeleteAt(jun1, 0); err != nil {
		t.Fatal(err)
	}
	// The old position 1 is now stale.
	if err := s.DeleteAt(jun1, 1); !errors.Is(err, event.ErrNotFound) {
		t.Errorf("DeleteAt(stale) error = %v, want ErrNotFound", err)
	}
	if rec, err := s.Get(jun1, 0); err != nil || rec.Name != "b" {
		t.Errorf("Get(0) = %v, %v; want b", rec, err)
	}
}

func TestEditAndMove_ToOtherDate(t *testing.T) {
	s, p := openMem(t, event.Buckets{
		jun1: {{Name: "a"}, {Name: "b"}},
		jun8: {{Name: "x"}},
	})

	rec, err := s.EditAndMove(jun1, 0, " A2 ", "moved", jun8)
	if err != nil {
		t.Fatalf("EditAndMove() error = %v", err)
	}
	if rec != (event.Record{Name: "A2", Detail: "moved"}) {
		t.Errorf("EditAndMove() = %+v", rec)
	}
	if got := bucketNames(s, jun1); !equalStrings(got, []string{"b"}) {
		t.Errorf("source bucket = %v", got)
	}
	if got := bucketNames(s, jun8); !equalStrings(got, []string{"x", "A2"}) {
		t.Errorf("target bucket = %v, want edited record appended", got)
	}
	if p.saves != 1 {
		t.Errorf("saves = %d, want exactly one", p.saves)
	}
}

func TestEditAndMove_LastRecordLeavesDate(t *testing.T) {
	s, _ := openMem(t, event.Buckets{jun1: {{Name: "only"}}})

	if _, err := s.EditAndMove(jun1, 0, "only", "", jun2); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Buckets()[jun1]; ok {
		t.Error("source date should be gone")
	}
	if got := bucketNames(s, jun2); !equalStrings(got, []string{"only"}) {
		t.Errorf("target bucket = %v", got)
	}
}

func TestEditAndMove_SameDateMovesToEnd(t *testing.T) {
	s, _ := openMem(t, event.Buckets{jun1: {{Name: "a", Detail: "old"}, {Name: "b"}, {Name: "c"}}})

	if _, err := s.EditAndMove(jun1, 0, "a", "new", jun1); err != nil {
		t.Fatal(err)
	}
	if got := bucketNames(s, jun1); !equalStrings(got, []string{"b", "c", "a"}) {
		t.Errorf("bucket = %v, want edited record moved to the end", got)
	}
	if rec, _ := s.Get(jun1, 2); rec.Detail != "new" {
		t.Errorf("detail = %q, want new", rec.Detail)
	}
}

func TestEditAndMove_Errors(t *testing.T) {
	far := event.NewDate(10238, time.February, 20)

	tests := []struct {
		name     string
		date     event.Date
		position int
		newName  string
		newDate  event.Date
		wantErr  error
	}{
		{"Stale position", jun1, 5, "ok", jun2, event.ErrNotFound},
		{"Missing date", jun8, 0, "ok", jun2, event.ErrNotFound},
		{"Blank name", jun1, 0, "  ", jun2, event.ErrValidation},
		{"Stale and blank", jun1, 5, "", jun2, event.ErrNotFound},
		{"Year out of range", jun1, 0, "ok", far, event.ErrValidation},
		{"Stale and out of range", jun1, 5, "ok", far, event.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := openMem(t, event.Buckets{jun1: {{Name: "a"}, {Name: "b"}}})

			_, err := s.EditAndMove(tt.date, tt.position, tt.newName, "d", tt.newDate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("EditAndMove() error = %v, want %v", err, tt.wantErr)
			}
			if p.saves != 0 {
				t.Errorf("saves = %d after failure", p.saves)
			}
			if got := bucketNames(s, jun1); !equalStrings(got, []string{"a", "b"}) {
				t.Errorf("bucket changed after failure: %v", got)
			}
		})
	}
}

func TestFailedSave_LeavesMemoryUnchanged(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "a"}}})
	p.failing = true

	if _, err := s.Add(jun1, "b", ""); err == nil {
		t.Fatal("Add() expected save error")
	}
	if err := s.DeleteAt(jun1, 0); err == nil {
		t.Fatal("DeleteAt() expected save error")
	}
	if _, err := s.EditAndMove(jun1, 0, "z", "", jun2); err == nil {
		t.Fatal("EditAndMove() expected save error")
	}

	if got := bucketNames(s, jun1); !equalStrings(got, []string{"a"}) {
		t.Errorf("memory changed after failed saves: %v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestImport(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "a"}}})

	n, err := s.Import([]event.Entry{
		{Date: jun1, Record: event.Record{Name: "b", Detail: "1"}},
		{Date: jun8, Record: event.Record{Name: " c ", Detail: "2"}},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}
	if got := bucketNames(s, jun1); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("jun1 = %v", got)
	}
	if got := bucketNames(s, jun8); !equalStrings(got, []string{"c"}) {
		t.Errorf("jun8 = %v", got)
	}
	if p.saves != 1 {
		t.Errorf("saves = %d, want 1", p.saves)
	}
}

func TestImport_InvalidEntryRejectsBatch(t *testing.T) {
	s, p := openMem(t, nil)

	_, err := s.Import([]event.Entry{
		{Date: jun1, Record: event.Record{Name: "fine"}},
		{Date: jun2, Record: event.Record{Name: ""}},
	})
	if !errors.Is(err, event.ErrValidation) {
		t.Fatalf("Import() error = %v, want ErrValidation", err)
	}
	if s.Len() != 0 || p.saves != 0 {
		t.Errorf("store changed: len=%d saves=%d", s.Len(), p.saves)
	}
}

func TestQueriesReflectMutations(t *testing.T) {
	s, _ := openMem(t, nil)
	today := jun1

	if got := s.Upcoming(today, 7); len(got) != 0 {
		t.Fatalf("Upcoming() on empty store = %v", got)
	}
	if _, err := s.Add(jun2, "soon", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(today.AddDays(-2), "past", ""); err != nil {
		t.Fatal(err)
	}

	up := s.Upcoming(today, 7)
	if len(up) != 1 || up[0].Name != "soon" {
		t.Errorf("Upcoming() = %v", up)
	}
	all := s.AllEvents(today)
	if len(all) != 2 || !all[0].Expired || all[1].Expired {
		t.Errorf("AllEvents() = %+v", all)
	}

	// A later "today" moves the window without any mutation.
	if got := s.Upcoming(jun8, 7); len(got) != 0 {
		t.Errorf("Upcoming(later today) = %v", got)
	}
}

func TestReload(t *testing.T) {
	s, p := openMem(t, event.Buckets{jun1: {{Name: "a"}}})

	p.saved = event.Buckets{jun2: {{Name: "external"}}}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := bucketNames(s, jun2); !equalStrings(got, []string{"external"}) {
		t.Errorf("after reload = %v", got)
	}

	p.loadErr = &storage.CorruptStorageError{Err: errors.New("bad")}
	if err := s.Reload(); err == nil {
		t.Fatal("Reload() expected error")
	}
	if s.Len() != 1 {
		t.Errorf("failed reload changed store, Len() = %d", s.Len())
	}
}

func TestImport_YearOutOfRangeRejectsBatch(t *testing.T) {
	s, p := openMem(t, nil)

	_, err := s.Import([]event.Entry{
		{Date: jun1, Record: event.Record{Name: "fine"}},
		{Date: event.NewDate(12000, time.January, 1), Record: event.Record{Name: "far"}},
	})
	if !errors.Is(err, event.ErrValidation) {
		t.Fatalf("Import() error = %v, want ErrValidation", err)
	}
	if s.Len() != 0 || p.saves != 0 {
		t.Errorf("store changed: len=%d saves=%d", s.Len(), p.saves)
	}
}

func TestRoundTripThroughFile(t *testing.T) {
	st, err := storage.New(filepath.Join(t.TempDir(), "events.json"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(st)
	if err != nil {
		t.Fatal(err)
	}

	steps := []func() error{
		func() error { _, err := s.Add(jun1, "a", "1"); return err },
		func() error { _, err := s.Add(jun1, "b", "2"); return err },
		func() error { _, err := s.Add(jun8, "c", ""); return err },
		func() error { _, err := s.EditAndMove(jun1, 0, "a", "edited", jun1); return err },
		func() error { return s.DeleteAt(jun8, 0) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	reopened, err := Open(st)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	want := s.Buckets()
	got := reopened.Buckets()
	if len(got) != len(want) {
		t.Fatalf("reopened dates = %v, want %v", got.Dates(), want.Dates())
	}
	for d, recs := range want {
		for i := range recs {
			if got[d][i] != recs[i] {
				t.Errorf("%s[%d] = %+v, want %+v", d, i, got[d][i], recs[i])
			}
		}
	}
	if got := bucketNames(reopened, jun1); !equalStrings(got, []string{"b", "a"}) {
		t.Errorf("reopened jun1 = %v", got)
	}
}
