package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/table"
)

var ErrInvalidConfiguration = minefield.ErrInvalidConfiguration

// IsValidGameSize reports whether a minefield can be built with the given
// size and number of mines.
func IsValidGameSize(size table.Size, mines uint) bool {
	return minefield.Validate(size, mines) == nil
}

// Game identifies a difficulty configuration and accumulates statistics
// about the games played with it.
type Game struct {
	mu sync.Mutex

	highScores HighScores
	size       table.Size
	mines      uint
	name       string
	lastPlayed time.Time

	timesStarted uint
	timesWon     uint
	timesLost    uint
	custom       bool

	now func() time.Time
}

type Option func(*Game)

func WithName(name string) Option {
	return func(g *Game) { g.name = name }
}

func WithCustom(custom bool) Option {
	return func(g *Game) { g.custom = custom }
}

func WithHighScores(h HighScores) Option {
	return func(g *Game) { g.highScores = h }
}

func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

func New(size table.Size, mines uint, opts ...Option) (*Game, error) {
	if err := minefield.Validate(size, mines); err != nil {
		return nil, err
	}
	g := &Game{
		size:  size,
		mines: mines,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewFromDescription creates a game from the text produced by [Describe].
func NewFromDescription(description string, opts ...Option) (*Game, error) {
	size, mines, err := Parse(description)
	if err != nil {
		return nil, err
	}
	return New(size, mines, opts...)
}

func (g *Game) Size() table.Size { return g.size }
func (g *Game) Mines() uint { return g.mines }

// Description returns the canonical description of the configuration.
func (g *Game) Description() string {
	return Describe(g.size, g.mines)
}

// Name returns the user-assigned name, falling back to the description.
func (g *Game) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.name == "" {
		return g.Description()
	}
	return g.name
}

func (g *Game) SetName(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.name = name
}

func (g *Game) HighScores() HighScores {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.highScores
}

func (g *Game) SetHighScores(h HighScores) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.highScores = h
}

func (g *Game) IsCustomGame() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.custom
}

func (g *Game) SetCustomGame(custom bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.custom = custom
}

func (g *Game) LastPlayed() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastPlayed
}

func (g *Game) TimesStarted() uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timesStarted
}

func (g *Game) TimesWon() uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timesWon
}

func (g *Game) TimesLost() uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timesLost
}

func (g *Game) GameStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timesStarted++
	g.lastPlayed = g.now()
}

// GameWon counts a win and hands the time to the high scores. The returned
// rank is 1-based, 0 when the time did not make the list.
func (g *Game) GameWon(ctx context.Context, player string, elapsed time.Duration) (int, error) {
	g.mu.Lock()
	g.timesWon++
	h := g.highScores
	date := g.now()
	g.mu.Unlock()

	if h == nil {
		return 0, nil
	}
	rank, err := h.Add(ctx, Score{Player: player, Elapsed: elapsed, Date: date})
	if err != nil {
		return 0, fmt.Errorf("unable to record high score for %s: %w", g.Description(), err)
	}
	return rank, nil
}

func (g *Game) GameLost() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timesLost++
}

func (g *Game) IsPlayedMoreRecentlyThan(other *Game) bool {
	return g.LastPlayed().After(other.LastPlayed())
}

// Game implements [fmt.Stringer]
func (g *Game) String() string {
	return g.Name()
}
