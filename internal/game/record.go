package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vancomm/smartmines/internal/table"
)

// RecordVersion is the version written by [Game.Record]. Version 1 records
// lack the loss counter and the custom flag.
const RecordVersion = 2

// Record is the persistent form of a [Game].
type Record struct {
	Version      int       `json:"version"`
	Rows         uint      `json:"rows"`
	Columns      uint      `json:"columns"`
	Mines        uint      `json:"mines"`
	Name         string    `json:"name,omitempty"`
	LastPlayed   time.Time `json:"last_played"`
	TimesStarted uint      `json:"times_started"`
	TimesWon     uint      `json:"times_won"`
	TimesLost    uint      `json:"times_lost"`
	Custom       bool      `json:"custom"`
}

func (r Record) Size() table.Size {
	return table.MakeSize(r.Rows, r.Columns)
}

// Key identifies the configuration of the record.
func (r Record) Key() string {
	return Describe(r.Size(), r.Mines)
}

func (g *Game) Record() Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Record{
		Version:      RecordVersion,
		Rows:         g.size.Rows,
		Columns:      g.size.Columns,
		Mines:        g.mines,
		Name:         g.name,
		LastPlayed:   g.lastPlayed,
		TimesStarted: g.timesStarted,
		TimesWon:     g.timesWon,
		TimesLost:    g.timesLost,
		Custom:       g.custom,
	}
}

// FromRecord restores a game. Options are applied after the record, so a
// high score collaborator can be attached here.
func FromRecord(r Record, opts ...Option) (*Game, error) {
	g, err := New(r.Size(), r.Mines, opts...)
	if err != nil {
		return nil, err
	}
	g.name = r.Name
	g.lastPlayed = r.LastPlayed
	g.timesStarted = r.TimesStarted
	g.timesWon = r.TimesWon
	g.timesLost = r.TimesLost
	g.custom = r.Custom
	return g, nil
}

// record mirrors Record with optional fields so missing ones can be told
// apart from zero values.
type record struct {
	Version      *int       `json:"version"`
	Rows         *uint      `json:"rows"`
	Columns      *uint      `json:"columns"`
	Mines        *uint      `json:"mines"`
	Name         *string    `json:"name"`
	LastPlayed   *time.Time `json:"last_played"`
	TimesStarted *uint      `json:"times_started"`
	TimesWon     *uint      `json:"times_won"`
	TimesLost    *uint      `json:"times_lost"`
	Custom       *bool      `json:"custom"`
}

func value[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// DecodeRecord reads a record of any version. Size and mine count are
// required; every other field falls back to a default. A missing custom
// flag is derived from whether the configuration is a preset.
func DecodeRecord(data []byte) (Record, error) {
	var raw record
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("unable to decode game record: %w", err)
	}
	if raw.Rows == nil || raw.Columns == nil || raw.Mines == nil {
		return Record{}, fmt.Errorf("game record is missing its configuration")
	}
	r := Record{
		Version:      value(raw.Version, 1),
		Rows:         *raw.Rows,
		Columns:      *raw.Columns,
		Mines:        *raw.Mines,
		Name:         value(raw.Name, ""),
		LastPlayed:   value(raw.LastPlayed, time.Time{}),
		TimesStarted: value(raw.TimesStarted, 0),
		TimesWon:     value(raw.TimesWon, 0),
		TimesLost:    value(raw.TimesLost, 0),
	}
	r.Custom = value(raw.Custom, !IsPreset(r.Size(), r.Mines))
	return r, nil
}

func EncodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}
