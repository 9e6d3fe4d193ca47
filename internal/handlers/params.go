package handlers

import (
	"fmt"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

func decode[T any](src url.Values) (T, error) {
	var dst T
	err := decoder.Decode(&dst, src)
	return dst, err
}

var ErrNoConfiguration = fmt.Errorf("either game or rows, columns and mines are required")

// GameParams selects a configuration, either by its description or by its
// dimensions.
type GameParams struct {
	Description string `schema:"game"`
	Rows        uint   `schema:"rows"`
	Columns     uint   `schema:"columns"`
	Mines       uint   `schema:"mines"`
}

func (p GameParams) Configuration() (size table.Size, mines uint, err error) {
	switch {
	case p.Description != "":
		size, mines, err = game.Parse(p.Description)
		if err != nil {
			return table.Size{}, 0, err
		}
	case p.Rows == 0 && p.Columns == 0:
		return table.Size{}, 0, ErrNoConfiguration
	default:
		size, mines = table.MakeSize(p.Rows, p.Columns), p.Mines
	}
	if !game.IsValidGameSize(size, mines) {
		return table.Size{}, 0, fmt.Errorf(
			"%w: %d mines on %v", game.ErrInvalidConfiguration, mines, size,
		)
	}
	return size, mines, nil
}

type NewGameParams struct {
	GameParams
	Name   string `schema:"name"`
	Player string `schema:"player"`
}

type PositionParams struct {
	Row    uint `schema:"row,required"`
	Column uint `schema:"column,required"`
}

func (p PositionParams) Index() table.Index {
	return table.MakeIndex(p.Row, p.Column)
}

// SettingsParams holds the feature toggles of a session. Absent toggles are
// left as they are.
type SettingsParams struct {
	EasyStart      *bool `schema:"easy_start"`
	SmartUncover   *bool `schema:"smart_uncover"`
	SmartMark      *bool `schema:"smart_mark"`
	QuestionMarks  *bool `schema:"question_marks"`
	RevealAllMines *bool `schema:"reveal_all_mines"`
}
