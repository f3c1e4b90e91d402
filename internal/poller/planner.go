package poller

import (
	"time"

	"github.com/fysnerd/max-planner/internal/models"
)

// Task is one (route, calendar date) fetch unit of a poll run.
type Task struct {
	Route models.WatchedRoute
	Date  string // YYYY-MM-DD
}

// Plan expands routes into the flat task list for one run: for each active
// route, one task per date in [today, today+horizonDays) whose weekday is in
// the route's day-of-week set. Ordering is route-major, date-ascending.
// Routes with an empty day set contribute nothing, active or not.
func Plan(routes []models.WatchedRoute, today time.Time, horizonDays int) []Task {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var tasks []Task
	for i := range routes {
		route := &routes[i]
		if !route.IsActive || len(route.DaysOfWeek) == 0 {
			continue
		}
		for d := 0; d < horizonDays; d++ {
			date := start.AddDate(0, 0, d)
			if !route.HasDay(date.Weekday()) {
				continue
			}
			tasks = append(tasks, Task{Route: *route, Date: date.Format("2006-01-02")})
		}
	}
	return tasks
}
