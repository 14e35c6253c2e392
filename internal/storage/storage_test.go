package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spendlog/internal/core"
	"spendlog/internal/pet"
)

// KVSuite runs the same contract against every KV implementation.
type KVSuite struct {
	suite.Suite
	newKV   func() KV
	kv      KV
	records *Records
	ctx     context.Context
}

func (s *KVSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = s.newKV()
	s.records = NewRecords(s.kv)
}

func (s *KVSuite) TearDownTest() {
	s.NoError(s.kv.Close())
}

func (s *KVSuite) TestGetMissingKey() {
	_, ok, err := s.kv.Get(s.ctx, "nope")
	s.NoError(err)
	s.False(ok)
}

func (s *KVSuite) TestPutOverwrites() {
	s.Require().NoError(s.kv.Put(s.ctx, "k", "one"))
	s.Require().NoError(s.kv.Put(s.ctx, "k", "two"))
	v, ok, err := s.kv.Get(s.ctx, "k")
	s.NoError(err)
	s.True(ok)
	s.Equal("two", v)
}

func (s *KVSuite) TestExpensesEmptyWhenMissing() {
	got, err := s.records.LoadExpenses(s.ctx)
	s.NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *KVSuite) TestExpensesRoundTrip() {
	created := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	want := []core.Expense{
		{
			ID: "b", Date: core.NewDate(2024, 1, 6), Amount: core.Money{Cents: 999}, Category: core.Shopping,
			Description: "Socks", Sentiment: core.Some(core.Regret), CreatedAt: created.Add(time.Minute),
		},
		{
			ID: "a", Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 1250}, Category: core.Food,
			Description: `Lunch "special"`, Location: core.Some(core.Location{Name: "Cafe", Lat: 1.5, Lng: -2.25}),
			CreatedAt: created,
		},
	}
	s.Require().NoError(s.records.SaveExpenses(s.ctx, want))

	got, err := s.records.LoadExpenses(s.ctx)
	s.Require().NoError(err)
	s.Equal(want, got)

	// full replace, not merge
	s.Require().NoError(s.records.SaveExpenses(s.ctx, want[:1]))
	got, err = s.records.LoadExpenses(s.ctx)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *KVSuite) TestCorruptExpensesLoadEmpty() {
	s.Require().NoError(s.kv.Put(s.ctx, ExpensesKey, "{not json"))
	got, err := s.records.LoadExpenses(s.ctx)
	s.NoError(err)
	s.Empty(got)

	s.Require().NoError(s.kv.Put(s.ctx, ExpensesKey, "null"))
	got, err = s.records.LoadExpenses(s.ctx)
	s.NoError(err)
	s.NotNil(got)
}

func (s *KVSuite) TestCorruptExpenseIsSkipped() {
	stored := `[
		{"id":"a","date":"2024-01-05","amount":12.5,"category":"Food","description":"Lunch","createdAt":"2024-01-05T12:00:00Z"},
		{"id":"b","date":"not a date","amount":3,"category":"Other","description":"Broken","createdAt":"2024-01-05T12:00:00Z"},
		{"id":"c","date":"2024-01-06","amount":7,"category":"Bills","description":"Phone","createdAt":"2024-01-06T12:00:00Z"}
	]`
	s.Require().NoError(s.kv.Put(s.ctx, ExpensesKey, stored))

	got, err := s.records.LoadExpenses(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("a", got[0].ID)
	s.Equal("c", got[1].ID)

	s.Require().NoError(s.records.SaveExpenses(s.ctx, got))
	again, err := s.records.LoadExpenses(s.ctx)
	s.Require().NoError(err)
	s.Len(again, 2)
}

func (s *KVSuite) TestPet() {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p, err := s.records.LoadPet(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(pet.New(now), p)

	p = p.AddTreat().SetName("Rex")
	s.Require().NoError(s.records.SavePet(s.ctx, p))
	got, err := s.records.LoadPet(s.ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal("Rex", got.Name)
	s.Equal(4, got.Treats)
	s.True(got.LastPlayed.Equal(now))

	s.Require().NoError(s.kv.Put(s.ctx, PetKey, "garbage"))
	got, err = s.records.LoadPet(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(pet.DefaultName, got.Name)
}

func (s *KVSuite) TestHomeLocation() {
	loc, err := s.records.LoadHome(s.ctx)
	s.Require().NoError(err)
	s.False(loc.IsSome())

	home := core.Location{Name: "Home", Lat: 45.46, Lng: 9.19}
	s.Require().NoError(s.records.SaveHome(s.ctx, core.Some(home)))
	loc, err = s.records.LoadHome(s.ctx)
	s.Require().NoError(err)
	got, ok := loc.Get()
	s.True(ok)
	s.Equal(home, got)

	s.Require().NoError(s.records.SaveHome(s.ctx, core.None[core.Location]()))
	loc, err = s.records.LoadHome(s.ctx)
	s.Require().NoError(err)
	s.False(loc.IsSome())
}

func (s *KVSuite) TestKeysAreIndependent() {
	s.Require().NoError(s.kv.Put(s.ctx, PetKey, "garbage"))
	s.Require().NoError(s.records.SaveExpenses(s.ctx, []core.Expense{}))
	v, ok, err := s.kv.Get(s.ctx, PetKey)
	s.NoError(err)
	s.True(ok)
	s.Equal("garbage", v)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &KVSuite{newKV: func() KV { return NewMemoryStore() }})
}

func TestSQLiteStore(t *testing.T) {
	s := &KVSuite{}
	s.newKV = func() KV {
		store, err := NewSQLiteStore(filepath.Join(s.T().TempDir(), "nested", "spendlog.db"))
		s.Require().NoError(err)
		return store
	}
	suite.Run(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendlog.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(ctx, ExpensesKey, "[]"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	defer second.Close()
	v, ok, err := second.Get(ctx, ExpensesKey)
	if err != nil || !ok || v != "[]" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

func TestSQLiteStorePragmas(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "spendlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var mode string
	if err := store.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := store.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatal(err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestSQLiteStoreConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendlog.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	errs := make(chan error, 2)
	for _, store := range []*SQLiteStore{a, b} {
		go func(kv *SQLiteStore) {
			for i := 0; i < 50; i++ {
				if err := kv.Put(ctx, PetKey, fmt.Sprintf(`{"treats":%d}`, i)); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}(store)
	}
	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent write failed: %v", err)
		}
	}
}
