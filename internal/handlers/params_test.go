package handlers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

func TestGameParamsConfiguration(t *testing.T) {
	tests := []struct {
		query url.Values
		size  table.Size
		mines uint
		err   error
	}{
		{url.Values{"rows": {"9"}, "columns": {"9"}, "mines": {"10"}}, table.MakeSize(9, 9), 10, nil},
		{url.Values{"game": {"16x30, 99 mines"}}, table.MakeSize(16, 30), 99, nil},
		{url.Values{"game": {"2x2, 1 mine"}, "rows": {"5"}}, table.MakeSize(2, 2), 1, nil},
		{url.Values{"rows": {"1"}, "columns": {"2"}}, table.MakeSize(1, 2), 0, nil},
		{url.Values{}, table.Size{}, 0, ErrNoConfiguration},
		{url.Values{"mines": {"3"}}, table.Size{}, 0, ErrNoConfiguration},
		{url.Values{"game": {"2x2, 1 mines"}}, table.Size{}, 0, game.ErrParse},
		{url.Values{"rows": {"3"}, "mines": {"1"}}, table.Size{}, 0, game.ErrInvalidConfiguration},
		{url.Values{"rows": {"3"}, "columns": {"3"}, "mines": {"9"}}, table.Size{}, 0, game.ErrInvalidConfiguration},
		{url.Values{"game": {"3x3, 9 mines"}}, table.Size{}, 0, game.ErrInvalidConfiguration},
	}
	for _, test := range tests {
		t.Run(test.query.Encode(), func(t *testing.T) {
			params, err := decode[GameParams](test.query)
			require.NoError(t, err)
			size, mines, err := params.Configuration()
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.size, size)
			assert.Equal(t, test.mines, mines)
		})
	}
}

func TestDecodeNewGameParams(t *testing.T) {
	params, err := decode[NewGameParams](url.Values{
		"rows":    {"4"},
		"columns": {"5"},
		"mines":   {"3"},
		"name":    {"Small"},
		"player":  {"ann"},
		"unknown": {"ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), params.Rows)
	assert.Equal(t, "Small", params.Name)
	assert.Equal(t, "ann", params.Player)

	_, err = decode[PositionParams](url.Values{"row": {"1"}})
	assert.Error(t, err)
	pos, err := decode[PositionParams](url.Values{"row": {"1"}, "column": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, table.MakeIndex(1, 2), pos.Index())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		cmd  wsCommand
		args []string
		err  error
	}{
		{"g", wsGet, []string{}, nil},
		{"n", wsNewGame, []string{}, nil},
		{"u 1 2", wsUncover, []string{"1", "2"}, nil},
		{"  m   0 3 ", wsMark, []string{"0", "3"}, nil},
		{"s 4 4", wsSmartMark, []string{"4", "4"}, nil},
		{"p 0 0", wsPreview, []string{"0", "0"}, nil},
		{"", "", nil, ErrUnknownCommand},
		{"o 1 1", "", nil, ErrUnknownCommand},
		{"u 1", "", nil, ErrInvalidArgs},
		{"g 1", "", nil, ErrInvalidArgs},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			cmd, args, err := parseCommand(test.line)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.cmd, cmd)
			assert.Equal(t, test.args, args)
		})
	}
}

func TestIterBySep(t *testing.T) {
	var pieces []string
	for i, piece := range iterBySep("a\nb\n\nc", "\n") {
		assert.Equal(t, len(pieces), i)
		pieces = append(pieces, piece)
	}
	assert.Equal(t, []string{"a", "b", "", "c"}, pieces)
}
