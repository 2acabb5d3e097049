package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/service/flocks"
)

func newDispatcher(t *testing.T) (*Service, *registry.Registry) {
	t.Helper()
	reg := registry.New(filepath.Join(t.TempDir(), "flocks.json"), nil)
	reg.Load()
	svc := flocks.NewService(reg, agecalc.NewWeekdayFormatter("en"), time.UTC, nil).
		WithClock(func() time.Time { return time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC) })
	return NewService(svc, nil), reg
}

func run(t *testing.T, d *Service, text string) (string, error) {
	t.Helper()
	return d.HandleCommand(context.Background(), models.ParseCommand(text), "224600000000")
}

func TestAgeByDates(t *testing.T) {
	d, _ := newDispatcher(t)
	reply, err := run(t, d, "/age 2024-01-01 2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "Hatched 2024-01-01: 10 weeks 4 days (74 days).", reply)

	_, err = run(t, d, "/age 2024-05-01 2024-04-01")
	assert.ErrorIs(t, err, agecalc.ErrInvalidRange)
}

func TestDateByAge(t *testing.T) {
	d, _ := newDispatcher(t)
	reply, err := run(t, d, "/date 2024-01-01 15 0")
	require.NoError(t, err)
	assert.Equal(t, "Hatched 2024-01-01 reaches 15w 0d on 2024-04-15 (Mon) (105 days).", reply)

	_, err = run(t, d, "/date 2024-01-01 many")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestAddListAgeDelete(t *testing.T) {
	d, reg := newDispatcher(t)

	reply, err := run(t, d, "/add Barn North 2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "Flock Barn North saved with hatch date 2024-01-01.", reply)
	_, ok := reg.Get("Barn North")
	assert.True(t, ok)

	reply, err = run(t, d, "/flocks")
	require.NoError(t, err)
	assert.Contains(t, reply, "- Barn North: hatch 2024-01-01, 10w 4d")

	reply, err = run(t, d, "/age Barn North")
	require.NoError(t, err)
	assert.Contains(t, reply, "Barn North on 2024-03-15: 10 weeks 4 days")

	reply, err = run(t, d, "/date Barn North 15")
	require.NoError(t, err)
	assert.Equal(t, "Barn North reaches 15w 0d on 2024-04-15 (Mon), 105 days after hatch.", reply)

	reply, err = run(t, d, "/delete Barn North")
	require.NoError(t, err)
	assert.Equal(t, "Flock Barn North deleted.", reply)

	reply, err = run(t, d, "/delete Barn North")
	require.NoError(t, err)
	assert.Equal(t, "Flock Barn North was not registered.", reply)

	reply, err = run(t, d, "/flocks")
	require.NoError(t, err)
	assert.Contains(t, reply, "No flocks registered yet")
}

func TestErrors(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := run(t, d, "/age")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = run(t, d, "/age ghost")
	assert.ErrorIs(t, err, flocks.ErrFlockNotFound)
	assert.Contains(t, UserMessage(err), "ghost")

	_, err = run(t, d, "/add Barn 2024-13-01")
	assert.ErrorIs(t, err, agecalc.ErrInvalidFormat)

	_, err = run(t, d, "hello there")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
	assert.Contains(t, UserMessage(err), "/flocks")

	reply, err := run(t, d, "/help")
	require.NoError(t, err)
	assert.Equal(t, HelpText, reply)
}
