package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
)

type fakeAges struct {
	rows []models.FlockAge
	err  error
	got  string
}

func (f *fakeAges) BatchComputeAges(target string) ([]models.FlockAge, error) {
	f.got = target
	return f.rows, f.err
}

func (f *fakeAges) FormatDate(t time.Time) string {
	return agecalc.FormatWithWeekday(t)
}

type fakeArchive struct {
	saved []models.AgeSnapshot
	err   error
}

func (f *fakeArchive) SaveAgeSnapshots(_ context.Context, s []models.AgeSnapshot) error {
	f.saved = append(f.saved, s...)
	return f.err
}

type fakeSheet struct {
	existing [][]interface{}
	appended [][]interface{}
}

func (f *fakeSheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	f.appended = append(f.appended, rows...)
	return nil
}

func (f *fakeSheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.existing, nil
}

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func sampleRows() []models.FlockAge {
	return []models.FlockAge{
		{Name: "A", HatchDate: "2024-01-01", Target: "2024-03-15", TotalDays: 74, Weeks: 10, ExtraDays: 4},
		{Name: "B", HatchDate: "2024-04-01", Target: "2024-03-15", Error: "target date precedes hatch date"},
		{Name: "C", HatchDate: "2024-03-01", Target: "2024-03-15", TotalDays: 14, Weeks: 2},
	}
}

func TestBuildAndFormatDigest(t *testing.T) {
	ages := &fakeAges{rows: sampleRows()}
	svc := NewService(ages, nil, nil, nil)

	d, err := svc.BuildDigest(day)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", ages.got)

	text := svc.FormatDigest(d)
	assert.Contains(t, text, "Flock ages on 2024-03-15 (Fri)")
	assert.Contains(t, text, "- A: 10w 4d (74 days)")
	assert.Contains(t, text, "- B: not hatched yet (hatch 2024-04-01)")
}

func TestFormatDigest_Empty(t *testing.T) {
	svc := NewService(&fakeAges{}, nil, nil, nil)
	assert.Contains(t, svc.FormatDigest(Digest{Date: day}), "no flocks registered yet")
}

func TestBuildDigest_Error(t *testing.T) {
	svc := NewService(&fakeAges{err: errors.New("boom")}, nil, nil, nil)
	_, err := svc.BuildDigest(day)
	assert.Error(t, err)
}

func TestArchiveDigest(t *testing.T) {
	archive := &fakeArchive{}
	svc := NewService(&fakeAges{rows: sampleRows()}, archive, nil, nil)

	d, err := svc.BuildDigest(day)
	require.NoError(t, err)
	require.NoError(t, svc.ArchiveDigest(context.Background(), d))

	require.Len(t, archive.saved, 2)
	assert.Equal(t, "A", archive.saved[0].Flock)
	assert.Equal(t, day, archive.saved[0].Date)
	assert.Equal(t, 74, archive.saved[0].TotalDays)

	archive.err = errors.New("down")
	assert.Error(t, svc.ArchiveDigest(context.Background(), d))
}

func TestArchiveDigest_NoArchive(t *testing.T) {
	svc := NewService(&fakeAges{rows: sampleRows()}, nil, nil, nil)
	assert.NoError(t, svc.ArchiveDigest(context.Background(), Digest{Date: day}))
}

func TestExportDigest_SkipsAlreadyExported(t *testing.T) {
	sheet := &fakeSheet{existing: [][]interface{}{
		{"date", "flock"},
		{"2024-03-15", "A", "2024-01-01", 74},
		{"2024-03-14", "C", "2024-03-01", 13},
	}}
	svc := NewService(&fakeAges{rows: sampleRows()}, nil, sheet, nil)

	d, err := svc.BuildDigest(day)
	require.NoError(t, err)
	require.NoError(t, svc.ExportDigest(context.Background(), d))

	require.Len(t, sheet.appended, 1)
	assert.Equal(t, "C", sheet.appended[0][1])
	assert.Equal(t, "2024-03-15", sheet.appended[0][0])
}
