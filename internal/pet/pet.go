// Package pet holds the virtual pet that rewards logging expenses.
//
// Happiness is stored as of LastPlayed and decays linearly with wall time,
// so Current must be used for anything shown or acted on.
package pet

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	DefaultName      = "Shiba"
	DefaultTreats    = 3
	DefaultHappiness = 70
	MaxHappiness     = 100
	DecayPerHour     = 5
	PlayBoost        = 15
)

// ErrNoTreats is returned by PlayFetch when the pet has no treats left.
var ErrNoTreats = errors.New("no treats left")

type Mood string

const (
	Happy   Mood = "happy"
	Content Mood = "content"
	Sad     Mood = "sad"
)

type State struct {
	Name       string    `json:"name"`
	Treats     int       `json:"treats"`
	Happiness  int       `json:"happiness"`
	TotalPlays int       `json:"totalPlays"`
	LastPlayed time.Time `json:"lastPlayed"`
}

// New returns the pet a first-time user starts with.
func New(now time.Time) State {
	return State{
		Name:       DefaultName,
		Treats:     DefaultTreats,
		Happiness:  DefaultHappiness,
		LastPlayed: now.UTC(),
	}
}

// DecayAt returns the happiness lost between LastPlayed and now.
func (s State) DecayAt(now time.Time) int {
	hours := now.Sub(s.LastPlayed).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Floor(hours * DecayPerHour))
}

// Current returns s with happiness decayed to now, never below zero.
func (s State) Current(now time.Time) State {
	s.Happiness = max(0, s.Happiness-s.DecayAt(now))
	return s
}

func (s State) Mood(now time.Time) Mood {
	h := s.Current(now).Happiness
	switch {
	case h > 70:
		return Happy
	case h > 40:
		return Content
	default:
		return Sad
	}
}

// AddTreat rewards the pet with one treat.
func (s State) AddTreat() State {
	s.Treats++
	return s
}

// PlayFetch spends a treat to raise happiness and restart the decay clock.
func (s State) PlayFetch(now time.Time) (State, error) {
	if s.Treats < 1 {
		return s, ErrNoTreats
	}
	cur := s.Current(now)
	cur.Treats--
	cur.Happiness = min(MaxHappiness, cur.Happiness+PlayBoost)
	cur.TotalPlays++
	cur.LastPlayed = now.UTC()
	return cur, nil
}

// SetName trims name, falling back to the default when blank.
func (s State) SetName(name string) State {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	s.Name = name
	return s
}

// Sanitize clamps values read from storage into their valid ranges.
func (s State) Sanitize(now time.Time) State {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = DefaultName
	}
	s.Treats = max(0, s.Treats)
	s.TotalPlays = max(0, s.TotalPlays)
	s.Happiness = min(MaxHappiness, max(0, s.Happiness))
	if s.LastPlayed.IsZero() {
		s.LastPlayed = now.UTC()
	}
	return s
}
