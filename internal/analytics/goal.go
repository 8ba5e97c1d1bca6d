package analytics

import (
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

// PeriodStart returns when the current period of p began.
func PeriodStart(p models.GoalPeriod, now time.Time) time.Time {
	switch p {
	case models.PeriodWeekly:
		return StartOfWeek(now)
	case models.PeriodMonthly:
		return StartOfMonth(now)
	default:
		return StartOfDay(now)
	}
}

// Progress reports how far current is towards the goal target, capped at 100%.
func Progress(goal models.Goal, current int64) models.GoalProgress {
	gp := models.GoalProgress{Goal: goal, Current: current}
	if goal.Target > 0 {
		gp.Progress = round(float64(current)*100/float64(goal.Target), 1)
	}
	if gp.Progress > 100 {
		gp.Progress = 100
	}
	gp.Achieved = goal.Target > 0 && current >= goal.Target
	return gp
}

func Report(progress []models.GoalProgress) models.GoalReport {
	report := models.GoalReport{Goals: progress}
	if report.Goals == nil {
		report.Goals = []models.GoalProgress{}
	}
	report.Achievements.Total = len(report.Goals)
	for _, g := range report.Goals {
		if g.Achieved {
			report.Achievements.Achieved++
		}
	}
	return report
}
