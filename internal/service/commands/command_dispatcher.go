package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the chat commands.
const HelpText = `Commands:
/age <flock|hatch YYYY-MM-DD> [target YYYY-MM-DD]
/date <flock|hatch YYYY-MM-DD> <weeks> [days]
/flocks
/add <name> <hatch YYYY-MM-DD>
/delete <name>`

// FlockService is the subset of the flocks service the dispatcher needs.
type FlockService interface {
	ComputeAgeByDate(hatchDate, targetDate string) (agecalc.AgeResult, error)
	ComputeDateByAge(hatchDate string, weeks, days int) (agecalc.DateResult, error)
	ListFlocks() []models.FlockRecord
	AddOrUpdateFlock(name, hatchDate string) (bool, error)
	DeleteFlock(name string) (bool, bool)
	FlockAge(name, targetDate string) (models.FlockAge, error)
	FlockDate(name string, weeks, days int) (models.FlockDate, error)
	Today() time.Time
	FormatDate(t time.Time) string
}

// Dispatcher executes parsed chat commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	flocks FlockService
	logger *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(flocks FlockService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{flocks: flocks, logger: logger}
}

// HandleCommand runs the command and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandAge:
		return s.handleAge(cmd.Args)
	case models.CommandDate:
		return s.handleDate(cmd.Args)
	case models.CommandFlocks:
		return s.handleList(), nil
	case models.CommandAdd:
		return s.handleAdd(cmd.Args)
	case models.CommandDelete:
		return s.handleDelete(cmd.Args)
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) handleAge(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrInvalidArguments
	}

	if isDate(args[0]) {
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		age, err := s.flocks.ComputeAgeByDate(args[0], target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Hatched %s: %d weeks %d days (%d days).", args[0], age.Weeks, age.ExtraDays, age.TotalDays), nil
	}

	name, target := strings.Join(args, " "), ""
	if len(args) > 1 && isDate(args[len(args)-1]) {
		name, target = strings.Join(args[:len(args)-1], " "), args[len(args)-1]
	}
	row, err := s.flocks.FlockAge(name, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s on %s: %d weeks %d days (%d days since hatch %s).",
		row.Name, row.Target, row.Weeks, row.ExtraDays, row.TotalDays, row.HatchDate), nil
}

func (s *Service) handleDate(args []string) (string, error) {
	if len(args) < 2 {
		return "", ErrInvalidArguments
	}

	subject, weeks, days, err := splitAge(args)
	if err != nil {
		return "", err
	}

	if isDate(subject) {
		res, err := s.flocks.ComputeDateByAge(subject, weeks, days)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Hatched %s reaches %dw %dd on %s (%d days).",
			subject, weeks, days, s.flocks.FormatDate(res.TargetDate), res.TotalDays), nil
	}

	row, err := s.flocks.FlockDate(subject, weeks, days)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reaches %dw %dd on %s (%s), %d days after hatch.",
		row.Name, weeks, days, row.TargetDate, row.Weekday, row.TotalDays), nil
}

func (s *Service) handleList() string {
	flocks := s.flocks.ListFlocks()
	if len(flocks) == 0 {
		return "No flocks registered yet. Use /add <name> <hatch YYYY-MM-DD>."
	}

	today := s.flocks.Today()
	var b strings.Builder
	fmt.Fprintf(&b, "Flocks on %s:", s.flocks.FormatDate(today))
	for _, f := range flocks {
		age, err := agecalc.AgeFromDates(f.HatchDate, today)
		if err != nil {
			fmt.Fprintf(&b, "\n- %s: hatch %s (not hatched yet)", f.Name, f.HatchDate.Format(agecalc.DateLayout))
			continue
		}
		fmt.Fprintf(&b, "\n- %s: hatch %s, %s", f.Name, f.HatchDate.Format(agecalc.DateLayout), age)
	}
	return b.String()
}

func (s *Service) handleAdd(args []string) (string, error) {
	if len(args) < 2 {
		return "", ErrInvalidArguments
	}

	name := strings.Join(args[:len(args)-1], " ")
	hatch := args[len(args)-1]
	persisted, err := s.flocks.AddOrUpdateFlock(name, hatch)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Flock %s saved with hatch date %s.", name, hatch)
	if !persisted {
		message += " Warning: could not write the registry file; the change lasts until restart."
	}
	return message, nil
}

func (s *Service) handleDelete(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrInvalidArguments
	}

	name := strings.Join(args, " ")
	removed, persisted := s.flocks.DeleteFlock(name)
	if !removed {
		return fmt.Sprintf("Flock %s was not registered.", name), nil
	}

	message := fmt.Sprintf("Flock %s deleted.", name)
	if !persisted {
		message += " Warning: could not write the registry file; the change lasts until restart."
	}
	return message, nil
}

// splitAge peels trailing "<weeks> [days]" off args and returns what precedes them.
func splitAge(args []string) (subject string, weeks, days int, err error) {
	last := len(args) - 1
	if len(args) >= 3 {
		if d, derr := agecalc.ParseAgeComponent(args[last]); derr == nil {
			if w, werr := agecalc.ParseAgeComponent(args[last-1]); werr == nil {
				return strings.Join(args[:last-1], " "), w, d, nil
			}
		}
	}

	w, err := agecalc.ParseAgeComponent(args[last])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return strings.Join(args[:last], " "), w, 0, nil
}

func isDate(value string) bool {
	_, err := agecalc.ParseDate(value)
	return err == nil
}
