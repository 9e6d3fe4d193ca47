package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	up, err := fs.Glob(Migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(Migrations, "migrations/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, up)
	require.Len(t, down, len(up))
	for i := range up {
		assert.Equal(t,
			strings.TrimSuffix(up[i], ".up.sql"),
			strings.TrimSuffix(down[i], ".down.sql"),
		)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "unable to parse database url")
}
