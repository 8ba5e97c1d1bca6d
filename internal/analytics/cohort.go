package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

const (
	DefaultCohortWeeks = 8
	MaxCohortWeeks     = 52
)

// CohortSince is the earliest signup time included when analysing the given number of weeks.
func CohortSince(now time.Time, weeks int) time.Time {
	return StartOfWeek(now).AddDate(0, 0, -7*(weeks-1))
}

// Cohorts buckets users by signup week and, for every week since signup up to the week of now,
// reports the share of the cohort that had ledger activity in that week.
func Cohorts(signups []models.UserSignup, activity []models.UserActivity, now time.Time) models.CohortAnalysis {
	current := StartOfWeek(now)

	type bucket struct {
		start   time.Time
		members map[int64]struct{}
		active  []map[int64]struct{}
	}
	buckets := make(map[time.Time]*bucket)
	cohortOf := make(map[int64]*bucket, len(signups))
	for _, s := range signups {
		start := StartOfWeek(s.CreatedAt)
		b, ok := buckets[start]
		if !ok {
			weeks := int(current.Sub(start)/(7*day)) + 1
			if weeks < 1 {
				weeks = 1
			}
			b = &bucket{start: start, members: make(map[int64]struct{}), active: make([]map[int64]struct{}, weeks)}
			for i := range b.active {
				b.active[i] = make(map[int64]struct{})
			}
			buckets[start] = b
		}
		b.members[s.UserID] = struct{}{}
		cohortOf[s.UserID] = b
	}

	for _, a := range activity {
		b, ok := cohortOf[a.UserID]
		if !ok {
			continue
		}
		k := int(StartOfWeek(a.CreatedAt).Sub(b.start) / (7 * day))
		if k < 0 || k >= len(b.active) {
			continue
		}
		b.active[k][a.UserID] = struct{}{}
	}

	out := models.CohortAnalysis{Cohorts: make([]models.Cohort, 0, len(buckets))}
	var week1Sum float64
	var week1Count int
	for _, b := range buckets {
		size := len(b.members)
		c := models.Cohort{
			Cohort:    cohortLabel(b.start),
			StartDate: b.start,
			Size:      size,
			Retention: make([]float64, len(b.active)),
		}
		for k, users := range b.active {
			c.Retention[k] = round(float64(len(users))*100/float64(size), 1)
		}
		if len(c.Retention) > 1 {
			week1Sum += c.Retention[1]
			week1Count++
		}
		out.Summary.TotalUsers += size
		out.Cohorts = append(out.Cohorts, c)
	}
	sort.Slice(out.Cohorts, func(i, j int) bool { return out.Cohorts[i].StartDate.Before(out.Cohorts[j].StartDate) })

	out.Summary.CohortCount = len(out.Cohorts)
	if week1Count > 0 {
		out.Summary.AverageWeek1Retention = round(week1Sum/float64(week1Count), 1)
	}
	return out
}

func cohortLabel(start time.Time) string {
	year, week := start.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
