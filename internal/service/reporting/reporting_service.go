package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	repo "github.com/mamadbah2/flockage/internal/repository/sheets"
)

// AgeSource computes flock ages for a day.
type AgeSource interface {
	BatchComputeAges(targetDate string) ([]models.FlockAge, error)
	FormatDate(t time.Time) string
}

// SnapshotArchive stores daily age snapshots.
type SnapshotArchive interface {
	SaveAgeSnapshots(ctx context.Context, snapshots []models.AgeSnapshot) error
}

// Digest is the age table of every registered flock on one day.
type Digest struct {
	Date time.Time
	Rows []models.FlockAge
}

// Service builds daily age digests and ships them to the configured sinks.
// archive and sheet are optional.
type Service struct {
	ages    AgeSource
	archive SnapshotArchive
	sheet   repo.Repository
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(ages AgeSource, archive SnapshotArchive, sheet repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ages: ages, archive: archive, sheet: sheet, logger: logger, now: time.Now}
}

// BuildDigest ages every flock on day.
func (s *Service) BuildDigest(day time.Time) (Digest, error) {
	rows, err := s.ages.BatchComputeAges(day.Format(agecalc.DateLayout))
	if err != nil {
		return Digest{}, fmt.Errorf("compute flock ages: %w", err)
	}
	return Digest{Date: day, Rows: rows}, nil
}

// FormatDigest renders the digest as a chat message.
func (s *Service) FormatDigest(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flock ages on %s", s.ages.FormatDate(d.Date))
	if len(d.Rows) == 0 {
		b.WriteString(": no flocks registered yet.")
		return b.String()
	}
	for _, row := range d.Rows {
		if row.Error != "" {
			fmt.Fprintf(&b, "\n- %s: not hatched yet (hatch %s)", row.Name, row.HatchDate)
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %dw %dd (%d days)", row.Name, row.Weeks, row.ExtraDays, row.TotalDays)
	}
	return b.String()
}

// Snapshots converts the aged rows of a digest into archive records. Rows with an
// error are left out.
func (s *Service) Snapshots(d Digest) []models.AgeSnapshot {
	createdAt := s.now().UTC()
	out := make([]models.AgeSnapshot, 0, len(d.Rows))
	for _, row := range d.Rows {
		if row.Error != "" {
			continue
		}
		hatch, err := agecalc.ParseDate(row.HatchDate)
		if err != nil {
			s.logger.Debug("skip snapshot with invalid hatch date", zap.String("flock", row.Name), zap.Error(err))
			continue
		}
		out = append(out, models.AgeSnapshot{
			Date:      d.Date,
			Flock:     row.Name,
			HatchDate: hatch,
			TotalDays: row.TotalDays,
			Weeks:     row.Weeks,
			ExtraDays: row.ExtraDays,
			CreatedAt: createdAt,
		})
	}
	return out
}

// ArchiveDigest stores the digest snapshots. It is a no-op without an archive.
func (s *Service) ArchiveDigest(ctx context.Context, d Digest) error {
	if s.archive == nil {
		return nil
	}
	snapshots := s.Snapshots(d)
	if err := s.archive.SaveAgeSnapshots(ctx, snapshots); err != nil {
		return fmt.Errorf("archive digest: %w", err)
	}
	s.logger.Info("digest archived", zap.String("date", d.Date.Format(agecalc.DateLayout)), zap.Int("snapshots", len(snapshots)))
	return nil
}

// ExportDigest appends the digest to the Ages sheet, skipping flocks already
// exported for that date. It is a no-op without a sheet.
func (s *Service) ExportDigest(ctx context.Context, d Digest) error {
	if s.sheet == nil {
		return nil
	}

	existing, err := s.sheet.ReadRange(ctx, repo.AgesRange)
	if err != nil {
		return fmt.Errorf("load ages range: %w", err)
	}

	day := d.Date.Format(agecalc.DateLayout)
	done := make(map[string]bool)
	for _, row := range existing {
		if len(row) < 2 {
			continue
		}
		dateValue, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip ages row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if dateValue.Format(agecalc.DateLayout) == day {
			done[fmt.Sprint(row[1])] = true
		}
	}

	var rows [][]interface{}
	for _, row := range d.Rows {
		if row.Error != "" || done[row.Name] {
			continue
		}
		rows = append(rows, []interface{}{day, row.Name, row.HatchDate, row.TotalDays, row.Weeks, row.ExtraDays, s.ages.FormatDate(d.Date)})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.sheet.AppendRows(ctx, repo.AgesRange, rows); err != nil {
		return fmt.Errorf("export digest: %w", err)
	}
	return nil
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return agecalc.ParseDate(str)
}
