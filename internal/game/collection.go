package game

import (
	"slices"
	"sync"

	"github.com/vancomm/smartmines/internal/table"
)

const DefaultCustomCapacity = 5

type Preset struct {
	Name  string
	Size  table.Size
	Mines uint
}

var Presets = []Preset{
	{Name: "Beginner", Size: table.MakeSize(9, 9), Mines: 10},
	{Name: "Intermediate", Size: table.MakeSize(16, 16), Mines: 40},
	{Name: "Expert", Size: table.MakeSize(16, 30), Mines: 99},
}

func IsPreset(size table.Size, mines uint) bool {
	return slices.ContainsFunc(Presets, func(p Preset) bool {
		return p.Size == size && p.Mines == mines
	})
}

// HighScoresFunc provides the high scores of a configuration.
type HighScoresFunc func(size table.Size, mines uint) (HighScores, error)

/*
Collection holds the preset games and a bounded number of custom games.
When a custom game is added beyond capacity, the least recently played
custom game is evicted.
*/
type Collection struct {
	mu         sync.Mutex
	presets    []*Game
	custom     []*Game
	capacity   int
	highScores HighScoresFunc
}

func NewCollection(capacity int, highScores HighScoresFunc) (*Collection, error) {
	if capacity <= 0 {
		capacity = DefaultCustomCapacity
	}
	c := &Collection{capacity: capacity, highScores: highScores}
	for _, p := range Presets {
		g, err := c.newGame(p.Size, p.Mines, WithName(p.Name))
		if err != nil {
			return nil, err
		}
		c.presets = append(c.presets, g)
	}
	return c, nil
}

func (c *Collection) newGame(size table.Size, mines uint, opts ...Option) (*Game, error) {
	if c.highScores != nil {
		h, err := c.highScores(size, mines)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithHighScores(h))
	}
	return New(size, mines, opts...)
}

func (c *Collection) find(size table.Size, mines uint) *Game {
	for _, g := range slices.Concat(c.presets, c.custom) {
		if g.Size() == size && g.Mines() == mines {
			return g
		}
	}
	return nil
}

// Find returns the game with the given configuration, or nil.
func (c *Collection) Find(size table.Size, mines uint) *Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.find(size, mines)
}

// FindByDescription looks a game up by its canonical description.
func (c *Collection) FindByDescription(description string) (*Game, error) {
	size, mines, err := Parse(description)
	if err != nil {
		return nil, err
	}
	return c.Find(size, mines), nil
}

// Custom returns the game with the given configuration, creating a custom
// game if there is none. The second result is the custom game evicted to
// make room, if any.
func (c *Collection) Custom(size table.Size, mines uint, name string) (*Game, *Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g := c.find(size, mines); g != nil {
		if name != "" && g.IsCustomGame() {
			g.SetName(name)
		}
		return g, nil, nil
	}
	g, err := c.newGame(size, mines, WithName(name), WithCustom(true))
	if err != nil {
		return nil, nil, err
	}
	return g, c.add(g), nil
}

// Restore adds a previously saved game. Presets take over the statistics of
// a matching record.
func (c *Collection) Restore(r Record) (evicted *Game, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.find(r.Size(), r.Mines); existing != nil {
		existing.mu.Lock()
		existing.lastPlayed = r.LastPlayed
		existing.timesStarted = r.TimesStarted
		existing.timesWon = r.TimesWon
		existing.timesLost = r.TimesLost
		if r.Name != "" && existing.custom {
			existing.name = r.Name
		}
		existing.mu.Unlock()
		return nil, nil
	}
	g, err := FromRecord(r)
	if err != nil {
		return nil, err
	}
	if c.highScores != nil {
		h, err := c.highScores(g.Size(), g.Mines())
		if err != nil {
			return nil, err
		}
		g.highScores = h
	}
	g.SetCustomGame(true)
	return c.add(g), nil
}

func (c *Collection) add(g *Game) (evicted *Game) {
	c.custom = append(c.custom, g)
	if len(c.custom) <= c.capacity {
		return nil
	}
	oldest := -1
	for i, other := range c.custom[:len(c.custom)-1] {
		if oldest < 0 || c.custom[oldest].IsPlayedMoreRecentlyThan(other) {
			oldest = i
		}
	}
	evicted = c.custom[oldest]
	c.custom = slices.Delete(c.custom, oldest, oldest+1)
	return evicted
}

func (c *Collection) Presets() []*Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.presets)
}

func (c *Collection) CustomGames() []*Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.custom)
}

// Games returns the presets followed by the custom games.
func (c *Collection) Games() []*Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Concat(c.presets, c.custom)
}
