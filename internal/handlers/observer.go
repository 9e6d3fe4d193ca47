package handlers

import (
	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/controller"
	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/table"
)

// recordSaver saves the game record whenever its statistics change: when a
// game starts and when it ends.
type recordSaver struct {
	store GameStore
	log   logrus.FieldLogger
}

func (s *recordSaver) SquaresChanged(*controller.Controller, *table.IndexList) {}

func (s *recordSaver) StateChanged(c *controller.Controller, from, to minefield.State) {
	if from != minefield.NotStarted && !to.Over() {
		return
	}
	if to == minefield.NotStarted {
		return
	}
	g := c.Game()
	if err := s.store.SaveGame(g); err != nil {
		s.log.WithError(err).WithField("game", g.Description()).Error("unable to save game record")
	}
}
