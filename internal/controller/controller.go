package controller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/table"
)

var Log = logrus.New()

// Observer is told about every change a move makes. Calls happen after the
// controller lock is released, so observers may query the controller.
type Observer interface {
	SquaresChanged(c *Controller, changed *table.IndexList)
	StateChanged(c *Controller, from, to minefield.State)
}

/*
Controller plays one minefield at a time and keeps the statistics of the
selected [game.Game] in step with it: a game counts as started on the first
successful uncover, and as won or lost when the minefield completes or blows
up. Methods are safe for concurrent use.
*/
type Controller struct {
	mu sync.Mutex

	field  *minefield.Minefield
	game   *game.Game
	player string

	startedAt time.Time
	endedAt   time.Time
	rank      int
	revealed  *table.IndexList

	observers []Observer
	fieldOpts []minefield.Option
	now       func() time.Time
	log       *logrus.Entry
}

type Option func(*Controller)

func WithPlayer(player string) Option {
	return func(c *Controller) { c.player = player }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMinefieldOptions configures the minefield the controller plays on.
func WithMinefieldOptions(opts ...minefield.Option) Option {
	return func(c *Controller) { c.fieldOpts = append(c.fieldOpts, opts...) }
}

func New(g *game.Game, opts ...Option) (*Controller, error) {
	c := &Controller{
		game:     g,
		now:      time.Now,
		revealed: table.NewIndexList(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = Log.WithField("player", c.player)

	field, err := minefield.New(g.Size(), g.Mines(), c.fieldOpts...)
	if err != nil {
		return nil, err
	}
	c.field = field
	return c, nil
}

// AddObserver registers o for the following moves.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Controller) Game() *game.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

func (c *Controller) Player() string {
	return c.player
}

func (c *Controller) State() minefield.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.field.State()
}

// Rank is the high score rank of the last won game, 0 if none.
func (c *Controller) Rank() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rank
}

func (c *Controller) elapsed() time.Duration {
	switch {
	case c.startedAt.IsZero():
		return 0
	case c.field.State().Over():
		return c.endedAt.Sub(c.startedAt)
	default:
		return c.now().Sub(c.startedAt)
	}
}

// Elapsed is the play time of the current minefield. The clock starts on
// the first uncover and stops when the game is over.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed()
}

// notification is a pending observer call.
type notification struct {
	changed  *table.IndexList
	from, to minefield.State
}

func (c *Controller) notify(n notification) {
	c.mu.Lock()
	observers := c.observers
	c.mu.Unlock()

	for _, o := range observers {
		if n.changed != nil && n.changed.Count() > 0 {
			o.SquaresChanged(c, n.changed)
		}
		if n.from != n.to {
			o.StateChanged(c, n.from, n.to)
		}
	}
}

// win is a won game waiting to be handed to the high scores.
type win struct {
	game    *game.Game
	endedAt time.Time
	elapsed time.Duration
}

// transition updates the game record after the minefield went from one
// state to another. A win is returned for recording once the lock is
// released, since the high scores may be remote.
func (c *Controller) transition(from, to minefield.State, changed *table.IndexList) *win {
	if from == to {
		return nil
	}
	if from == minefield.NotStarted {
		c.startedAt = c.now()
		c.rank = 0
		c.game.GameStarted()
	}
	switch to {
	case minefield.Completed:
		c.endedAt = c.now()
		return &win{game: c.game, endedAt: c.endedAt, elapsed: c.elapsed()}
	case minefield.BlownUp:
		c.endedAt = c.now()
		c.game.GameLost()
		for i := range changed.All() {
			if mine, _ := c.field.HasMineAt(i); mine {
				c.revealed.Append(i)
			}
		}
		c.log.WithField("game", c.game.Description()).Info("game lost")
	}
	return nil
}

// record hands w to the high scores. The rank is kept unless the player
// moved on to another minefield in the meantime.
func (c *Controller) record(ctx context.Context, w *win) {
	rank, err := w.game.GameWon(ctx, c.player, w.elapsed)
	if err != nil {
		c.log.WithError(err).Error("unable to record win")
	}

	c.mu.Lock()
	if c.game == w.game && c.endedAt.Equal(w.endedAt) {
		c.rank = rank
	}
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"game":    w.game.Description(),
		"elapsed": w.elapsed,
		"rank":    rank,
	}).Info("game won")
}

// UncoverAt uncovers the square at i. The context is passed on to the
// high scores when the move wins the game.
func (c *Controller) UncoverAt(ctx context.Context, i table.Index) (*table.IndexList, error) {
	c.mu.Lock()
	from := c.field.State()
	changed, err := c.field.UncoverAt(i)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	to := c.field.State()
	w := c.transition(from, to, changed)
	c.mu.Unlock()

	if w != nil {
		c.record(ctx, w)
	}
	c.notify(notification{changed: changed, from: from, to: to})
	return changed, nil
}

func (c *Controller) MarkAt(i table.Index) (*table.IndexList, error) {
	c.mu.Lock()
	changed, err := c.field.MarkAt(i)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.notify(notification{changed: changed})
	return changed, nil
}

func (c *Controller) SmartMarkAt(i table.Index) (*table.IndexList, error) {
	c.mu.Lock()
	changed, err := c.field.SmartMarkAt(i)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.notify(notification{changed: changed})
	return changed, nil
}

// UncoverableAt previews UncoverAt without changing anything.
func (c *Controller) UncoverableAt(i table.Index) (*table.IndexList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.field.UncoverableAt(i)
}

func (c *Controller) SetUsesQuestionMarks(enabled bool) *table.IndexList {
	c.mu.Lock()
	changed := c.field.SetUsesQuestionMarks(enabled)
	c.mu.Unlock()

	c.notify(notification{changed: changed})
	return changed
}

// SetUsesEasyStart changes the placement policy. On a minefield that has
// not been started the layout is redone and marks are dropped.
func (c *Controller) SetUsesEasyStart(enabled bool) *table.IndexList {
	c.mu.Lock()
	changed := c.field.SetUsesEasyStart(enabled)
	c.mu.Unlock()

	c.notify(notification{changed: changed})
	return changed
}

func (c *Controller) SetUsesSmartUncover(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.field.SetUsesSmartUncover(enabled)
}

func (c *Controller) SetUsesSmartMark(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.field.SetUsesSmartMark(enabled)
}

// SetRevealPolicy applies to the next time the minefield blows up.
func (c *Controller) SetRevealPolicy(p minefield.RevealPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.field.SetRevealPolicy(p)
}

func (c *Controller) reset() {
	c.field.Clear()
	c.startedAt = time.Time{}
	c.endedAt = time.Time{}
	c.rank = 0
	c.revealed.Clear()
}

// NewGame starts over with a fresh layout of the same game. An unfinished
// minefield is abandoned without counting as lost.
func (c *Controller) NewGame() {
	c.mu.Lock()
	from := c.field.State()
	c.reset()
	c.mu.Unlock()

	c.notify(notification{from: from, to: minefield.NotStarted})
}

// Select switches to another game and starts over.
func (c *Controller) Select(g *game.Game) error {
	c.mu.Lock()
	from := c.field.State()
	if err := c.field.SetSize(g.Size(), g.Mines()); err != nil {
		c.mu.Unlock()
		return err
	}
	c.game = g
	c.reset()
	c.mu.Unlock()

	c.log.WithField("game", g.Description()).Debug("game selected")
	c.notify(notification{from: from, to: minefield.NotStarted})
	return nil
}
