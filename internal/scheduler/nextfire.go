package scheduler

import (
	"fmt"
	"strconv"
	"time"

	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextFire is a pure function of (now, schedule): interval schedules add
// their duration to now, cron schedules delegate to robfig/cron's
// schedule parser for the next occurrence after now. Neither runs its
// own timer — the scheduler's ticker loop keeps dispatching.
func nextFire(now time.Time, schedule models.Schedule) (time.Time, error) {
	switch schedule.Kind {
	case models.ScheduleInterval:
		d, err := parseInterval(schedule.Expression)
		if err != nil {
			return time.Time{}, appErrors.NewScheduleError(schedule.Expression, err.Error())
		}
		return now.Add(d), nil
	case models.ScheduleCron:
		sched, err := cronParser.Parse(schedule.Expression)
		if err != nil {
			return time.Time{}, appErrors.NewScheduleError(schedule.Expression, fmt.Sprintf("invalid cron expression: %v", err))
		}
		return sched.Next(now), nil
	default:
		return time.Time{}, appErrors.NewScheduleError(schedule.Expression, fmt.Sprintf("unknown schedule kind %q", schedule.Kind))
	}
}

// parseInterval accepts a number followed by s/m/h/d, e.g. "5m", "1h",
// "30s", "1d".
func parseInterval(expr string) (time.Duration, error) {
	if expr == "" {
		return 0, fmt.Errorf("empty interval expression")
	}

	unit := expr[len(expr)-1]
	numPart := expr[:len(expr)-1]

	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("invalid interval expression %q: %w", expr, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid interval expression %q: must be positive", expr)
	}

	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid interval expression %q: unknown unit %q", expr, string(unit))
	}
}
