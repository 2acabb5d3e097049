package commands

import (
	"errors"
	"strings"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/service/flocks"
)

// UserMessage turns a command error into the inline message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + HelpText
	case errors.Is(err, ErrInvalidArguments):
		return "Missing or invalid arguments.\n" + HelpText
	case errors.Is(err, agecalc.ErrInvalidRange):
		return "Error: the target date is before the hatch date."
	case errors.Is(err, agecalc.ErrInvalidFormat):
		return "Error: " + detail(err) + ". Dates use YYYY-MM-DD; weeks and days are whole numbers."
	case errors.Is(err, registry.ErrValidation):
		return "Error: the flock name must not be empty."
	case errors.Is(err, flocks.ErrFlockNotFound):
		return "Error: " + detail(err) + ". Send /flocks to see registered flocks."
	default:
		return "Sorry, something went wrong."
	}
}

func detail(err error) string {
	return strings.TrimSuffix(err.Error(), ".")
}
