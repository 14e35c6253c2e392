package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendlog/internal/pet"
)

type PetRepository interface {
	LoadPet(ctx context.Context, now time.Time) (pet.State, error)
	SavePet(ctx context.Context, p pet.State) error
}

// PetView is the pet as shown to the user, decayed to the time of reading.
type PetView struct {
	pet.State
	Mood pet.Mood `json:"mood"`
}

// PetService reads the pet from the store on every call so that treats
// granted by the worker process are picked up.
type PetService struct {
	repo PetRepository
	now  func() time.Time
	mu   sync.Mutex
}

func NewPetService(repo PetRepository) *PetService {
	return &PetService{repo: repo, now: time.Now}
}

func (s *PetService) view(p pet.State, now time.Time) PetView {
	return PetView{State: p.Current(now), Mood: p.Mood(now)}
}

// Pet returns the current pet.
func (s *PetService) Pet(ctx context.Context) (PetView, error) {
	now := s.now()
	p, err := s.repo.LoadPet(ctx, now)
	if err != nil {
		return PetView{}, err
	}
	return s.view(p, now), nil
}

// AddTreat grants one treat and stores the pet.
func (s *PetService) AddTreat(ctx context.Context) (PetView, error) {
	return s.update(ctx, func(p pet.State, _ time.Time) (pet.State, error) {
		return p.AddTreat(), nil
	})
}

// PlayFetch spends a treat. It returns pet.ErrNoTreats when none are left.
func (s *PetService) PlayFetch(ctx context.Context) (PetView, error) {
	v, err := s.update(ctx, func(p pet.State, now time.Time) (pet.State, error) {
		return p.PlayFetch(now)
	})
	if err == nil {
		slog.InfoContext(ctx, "Pet played fetch",
			"happiness", v.Happiness, "treats", v.Treats)
	}
	return v, err
}

func (s *PetService) Rename(ctx context.Context, name string) (PetView, error) {
	return s.update(ctx, func(p pet.State, _ time.Time) (pet.State, error) {
		return p.SetName(name), nil
	})
}

func (s *PetService) update(ctx context.Context, fn func(pet.State, time.Time) (pet.State, error)) (PetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, err := s.repo.LoadPet(ctx, now)
	if err != nil {
		return PetView{}, err
	}
	p, err = fn(p, now)
	if err != nil {
		return s.view(p, now), err
	}
	if err := s.repo.SavePet(ctx, p); err != nil {
		return PetView{}, fmt.Errorf("save pet: %w", err)
	}
	return s.view(p, now), nil
}
