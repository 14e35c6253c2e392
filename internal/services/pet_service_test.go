package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/pet"
	"spendlog/internal/storage"
)

func TestPetPlayFetch(t *testing.T) {
	ctx := context.Background()
	records := storage.NewRecords(storage.NewMemoryStore())
	pets := NewPetService(records)
	clock := testNow
	pets.now = func() time.Time { return clock }

	p, err := pets.Pet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != pet.DefaultName || p.Treats != pet.DefaultTreats || p.Mood != pet.Content {
		t.Fatalf("unexpected default pet %+v", p)
	}

	p, err = pets.PlayFetch(ctx)
	if err != nil {
		t.Fatalf("PlayFetch: %v", err)
	}
	if p.Happiness != 85 || p.Treats != 2 || p.TotalPlays != 1 || p.Mood != pet.Happy {
		t.Fatalf("unexpected pet after play %+v", p)
	}

	clock = clock.Add(4 * time.Hour)
	p, _ = pets.Pet(ctx)
	if p.Happiness != 65 {
		t.Fatalf("expected decay to 65, got %d", p.Happiness)
	}
	// Reading must not persist the decay.
	p, _ = pets.Pet(ctx)
	if p.Happiness != 65 {
		t.Fatalf("decay compounded on read: %d", p.Happiness)
	}
}

func TestPetPlayFetchWithoutTreats(t *testing.T) {
	ctx := context.Background()
	records := storage.NewRecords(storage.NewMemoryStore())
	pets := NewPetService(records)
	pets.now = func() time.Time { return testNow }

	for range pet.DefaultTreats {
		if _, err := pets.PlayFetch(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := pets.PlayFetch(ctx); !errors.Is(err, pet.ErrNoTreats) {
		t.Fatalf("expected ErrNoTreats, got %v", err)
	}
	stored, _ := records.LoadPet(ctx, testNow)
	if stored.TotalPlays != pet.DefaultTreats {
		t.Fatalf("failed play must not be saved: %+v", stored)
	}
}

func TestPetRename(t *testing.T) {
	ctx := context.Background()
	pets := NewPetService(storage.NewRecords(storage.NewMemoryStore()))

	p, err := pets.Rename(ctx, "  Rex ")
	if err != nil || p.Name != "Rex" {
		t.Fatalf("Rename: %v %q", err, p.Name)
	}
	p, _ = pets.Rename(ctx, "   ")
	if p.Name != pet.DefaultName {
		t.Fatalf("blank name should reset to default, got %q", p.Name)
	}
}

type stubGeocoder struct{ calls []string }

func (g *stubGeocoder) Search(_ context.Context, q string) ([]core.Location, error) {
	g.calls = append(g.calls, q)
	return []core.Location{{Name: "Paris, France", Lat: 48.85, Lng: 2.35}}, nil
}

func TestLocationService(t *testing.T) {
	ctx := context.Background()
	geo := &stubGeocoder{}
	locs := NewLocationService(storage.NewRecords(storage.NewMemoryStore()), geo)

	home, err := locs.Home(ctx)
	if err != nil || home.IsSome() {
		t.Fatalf("expected no home, got %v %v", home, err)
	}
	paris := core.Location{Name: "Paris", Lat: 48.85, Lng: 2.35}
	if err := locs.SetHome(ctx, core.Some(paris)); err != nil {
		t.Fatal(err)
	}
	home, _ = locs.Home(ctx)
	if got, ok := home.Get(); !ok || got != paris {
		t.Fatalf("home not stored: %+v", home)
	}
	if err := locs.SetHome(ctx, core.None[core.Location]()); err != nil {
		t.Fatal(err)
	}
	if home, _ = locs.Home(ctx); home.IsSome() {
		t.Fatal("home should be cleared")
	}

	found, err := locs.Search(ctx, "paris")
	if err != nil || len(found) != 1 || len(geo.calls) != 1 {
		t.Fatalf("search not delegated: %v %v", found, err)
	}

	none, err := NewLocationService(storage.NewRecords(storage.NewMemoryStore()), nil).Search(ctx, "paris")
	if err != nil || len(none) != 0 {
		t.Fatalf("search without geocoder should be empty: %v %v", none, err)
	}
}
