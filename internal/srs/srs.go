// Package srs implements the SM-2 style scheduler used for flashcards.
package srs

import (
	"math"
	"time"
)

// Rating is the learner's answer quality.
type Rating int

const (
	Again Rating = 0
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Scheduling constants.
const (
	DefaultEase = 2.5
	MinEase     = 1.3

	day = 24 * time.Hour
)

// Valid reports whether r is one of the accepted ratings.
func (r Rating) Valid() bool {
	switch r {
	case Again, Hard, Good, Easy:
		return true
	}
	return false
}

// State is the per-card scheduling state. Interval is in days.
type State struct {
	Interval    float64
	EaseFactor  float64
	Repetitions int
	NextReview  time.Time
}

// New returns the state of a freshly created card, due immediately.
func New(now time.Time) State {
	return State{EaseFactor: DefaultEase, NextReview: now}
}

// Review applies rating r at time now and returns the next state. r must be
// Valid.
//
// A fresh card answered Hard, Good or Easy is scheduled 10 minutes, 1 day or
// 4 days out; a second success uses 6 days as the base; later successes grow
// by the ease factor. Again resets the card and retries it in a minute.
func Review(s State, r Rating, now time.Time) State {
	ease := s.EaseFactor
	if ease == 0 {
		ease = DefaultEase
	}

	if r == Again {
		return State{
			Interval:    0,
			EaseFactor:  round2(math.Max(MinEase, ease-0.2)),
			Repetitions: 0,
			NextReview:  now.Add(time.Minute),
		}
	}

	switch r {
	case Hard:
		ease = math.Max(MinEase, ease-0.15)
	case Easy:
		ease += 0.15
	}

	var interval float64
	var wait time.Duration
	switch s.Repetitions {
	case 0:
		switch r {
		case Hard:
			wait = 10 * time.Minute
			interval = wait.Hours() / 24
		case Good:
			interval = 1
		case Easy:
			interval = 4
		}
	case 1:
		switch r {
		case Hard:
			interval = math.Max(1, s.Interval*1.2)
		case Good:
			interval = 6
		case Easy:
			interval = 6 * 1.3
		}
	default:
		switch r {
		case Hard:
			interval = math.Max(1, s.Interval*1.2)
		case Good:
			interval = s.Interval * s.easeOr(ease)
		case Easy:
			interval = s.Interval * s.easeOr(ease) * 1.3
		}
	}
	if wait == 0 {
		wait = time.Duration(interval * float64(day))
	}

	return State{
		Interval:    round2(interval),
		EaseFactor:  round2(ease),
		Repetitions: s.Repetitions + 1,
		NextReview:  now.Add(wait),
	}
}

// easeOr returns the pre-review ease factor, which drives interval growth.
func (s State) easeOr(fallback float64) float64 {
	if s.EaseFactor == 0 {
		return fallback
	}
	return s.EaseFactor
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
