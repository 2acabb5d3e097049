package flocks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/metrics"
)

// ErrFlockNotFound indicates the named flock is not registered.
var ErrFlockNotFound = errors.New("flock not found")

// Store is the registry surface used by the service.
type Store interface {
	Upsert(name string, hatch time.Time) (bool, error)
	Remove(name string) (removed bool, persisted bool)
	Get(name string) (time.Time, bool)
	List() []models.FlockRecord
	Len() int
}

// Service exposes flock age calculations and registry maintenance to the
// presentation layers (HTTP, chat, CLI).
type Service struct {
	store     Store
	formatter agecalc.WeekdayFormatter
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a flocks service. loc decides what "today" means; nil means UTC.
func NewService(store Store, formatter agecalc.WeekdayFormatter, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	metrics.SetFlocks(store.Len())
	return &Service{
		store:     store,
		formatter: formatter,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used to resolve "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today returns the current calendar date in the service time zone.
func (s *Service) Today() time.Time {
	return agecalc.Today(s.now(), s.location)
}

// FormatDate renders a date with the configured weekday label.
func (s *Service) FormatDate(t time.Time) string {
	return s.formatter.Format(t)
}

// ComputeAgeByDate returns the age at targetDate of a flock hatched on hatchDate.
// An empty targetDate means today.
func (s *Service) ComputeAgeByDate(hatchDate, targetDate string) (agecalc.AgeResult, error) {
	if strings.TrimSpace(targetDate) == "" {
		targetDate = s.Today().Format(agecalc.DateLayout)
	}

	age, err := agecalc.AgeFromStrings(hatchDate, targetDate)
	metrics.ObserveCalculation("age", err)
	return age, err
}

// ComputeDateByAge returns the date a flock hatched on hatchDate reaches the target age.
func (s *Service) ComputeDateByAge(hatchDate string, weeks, days int) (agecalc.DateResult, error) {
	hatch, err := agecalc.ParseDate(hatchDate)
	if err != nil {
		metrics.ObserveCalculation("date", err)
		return agecalc.DateResult{}, fmt.Errorf("hatch date: %w", err)
	}

	res, err := agecalc.DateFromAge(hatch, weeks, days)
	metrics.ObserveCalculation("date", err)
	return res, err
}

// ListFlocks returns the registered flocks ordered by name.
func (s *Service) ListFlocks() []models.FlockRecord {
	return s.store.List()
}

// AddOrUpdateFlock registers or overwrites a flock. persisted reports whether the
// registry file was written; a failed write is logged, not returned.
func (s *Service) AddOrUpdateFlock(name, hatchDate string) (persisted bool, err error) {
	hatch, err := agecalc.ParseDate(hatchDate)
	if err != nil {
		return false, fmt.Errorf("hatch date: %w", err)
	}

	persisted, err = s.store.Upsert(name, hatch)
	if err != nil {
		return false, err
	}
	s.afterMutation("upsert", name, persisted)
	return persisted, nil
}

// DeleteFlock removes a flock. Deleting an unknown flock is a no-op.
func (s *Service) DeleteFlock(name string) (removed bool, persisted bool) {
	removed, persisted = s.store.Remove(name)
	if removed {
		s.afterMutation("delete", name, persisted)
	}
	return removed, persisted
}

// FlockAge returns the age of a registered flock at targetDate (empty means today).
func (s *Service) FlockAge(name, targetDate string) (models.FlockAge, error) {
	hatch, ok := s.store.Get(name)
	if !ok {
		return models.FlockAge{}, fmt.Errorf("%w: %s", ErrFlockNotFound, strings.TrimSpace(name))
	}
	target, err := s.targetOrToday(targetDate)
	if err != nil {
		return models.FlockAge{}, fmt.Errorf("target date: %w", err)
	}
	row := s.ageRow(models.FlockRecord{Name: strings.TrimSpace(name), HatchDate: hatch}, target)
	if row.Error != "" {
		return row, fmt.Errorf("%w: %s", agecalc.ErrInvalidRange, row.Error)
	}
	return row, nil
}

// FlockDate returns the date a registered flock reaches the target age.
func (s *Service) FlockDate(name string, weeks, days int) (models.FlockDate, error) {
	hatch, ok := s.store.Get(name)
	if !ok {
		return models.FlockDate{}, fmt.Errorf("%w: %s", ErrFlockNotFound, strings.TrimSpace(name))
	}
	res, err := agecalc.DateFromAge(hatch, weeks, days)
	metrics.ObserveCalculation("date", err)
	if err != nil {
		return models.FlockDate{}, err
	}
	return s.dateRow(models.FlockRecord{Name: strings.TrimSpace(name), HatchDate: hatch}, res), nil
}

// BatchComputeAges ages every registered flock at targetDate (empty means today).
// Flocks hatched after the target carry a per-row error instead of failing the batch.
func (s *Service) BatchComputeAges(targetDate string) ([]models.FlockAge, error) {
	target, err := s.targetOrToday(targetDate)
	if err != nil {
		return nil, fmt.Errorf("target date: %w", err)
	}

	records := s.store.List()
	out := make([]models.FlockAge, 0, len(records))
	for _, rec := range records {
		out = append(out, s.ageRow(rec, target))
	}
	return out, nil
}

// BatchComputeDates returns, for every registered flock, the date it reaches the target age.
func (s *Service) BatchComputeDates(weeks, days int) ([]models.FlockDate, error) {
	if weeks < 0 || days < 0 {
		return nil, fmt.Errorf("%w: weeks and days must be non-negative", agecalc.ErrInvalidFormat)
	}

	records := s.store.List()
	out := make([]models.FlockDate, 0, len(records))
	for _, rec := range records {
		res, err := agecalc.DateFromAge(rec.HatchDate, weeks, days)
		metrics.ObserveCalculation("date", err)
		if err != nil {
			return nil, err
		}
		out = append(out, s.dateRow(rec, res))
	}
	return out, nil
}

func (s *Service) ageRow(rec models.FlockRecord, target time.Time) models.FlockAge {
	row := models.FlockAge{
		Name:      rec.Name,
		HatchDate: rec.HatchDate.Format(agecalc.DateLayout),
		Target:    target.Format(agecalc.DateLayout),
	}
	age, err := agecalc.AgeFromDates(rec.HatchDate, target)
	metrics.ObserveCalculation("age", err)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.TotalDays = age.TotalDays
	row.Weeks = age.Weeks
	row.ExtraDays = age.ExtraDays
	return row
}

func (s *Service) dateRow(rec models.FlockRecord, res agecalc.DateResult) models.FlockDate {
	return models.FlockDate{
		Name:       rec.Name,
		HatchDate:  rec.HatchDate.Format(agecalc.DateLayout),
		TargetDate: res.TargetDateString(),
		Weekday:    s.formatter.Label(res.TargetDate),
		TotalDays:  res.TotalDays,
	}
}

func (s *Service) targetOrToday(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.Today(), nil
	}
	return agecalc.ParseDate(value)
}

func (s *Service) afterMutation(op, name string, persisted bool) {
	metrics.ObservePersist(persisted)
	metrics.SetFlocks(s.store.Len())
	if !persisted {
		s.logger.Warn("flock registry not persisted, keeping in-memory state",
			zap.String("op", op), zap.String("flock", name))
		return
	}
	s.logger.Debug("flock registry persisted", zap.String("op", op), zap.String("flock", name))
}
