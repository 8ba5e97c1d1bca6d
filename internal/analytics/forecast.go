package analytics

import (
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

const (
	DefaultLookbackDays = 30
	DefaultHorizonDays  = 7
	MaxLookbackDays     = 365
	MaxHorizonDays      = 90

	linearModel = "linear_regression"
)

// Forecast fits an ordinary least squares line through the daily series starting at from and
// spanning lookback days, then projects horizon days past the last one. Days missing from
// points count as zero.
func Forecast(points []models.DailyPoint, from time.Time, lookback, horizon int) models.Forecast {
	from = StartOfDay(from)
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[StartOfDay(p.Date)] += p.Value
	}

	history := make([]models.DailyPoint, lookback)
	for i := range history {
		d := from.Add(time.Duration(i) * day)
		history[i] = models.DailyPoint{Date: d, Value: byDay[d]}
	}

	slope, intercept, r2 := fitLine(history)
	forecast := make([]models.DailyPoint, horizon)
	for j := range forecast {
		x := float64(lookback + j)
		forecast[j] = models.DailyPoint{
			Date:  from.Add(time.Duration(lookback+j) * day),
			Value: round(intercept+slope*x, 2),
		}
	}

	return models.Forecast{
		Model:     linearModel,
		Slope:     round(slope, 4),
		Intercept: round(intercept, 4),
		RSquared:  round(r2, 4),
		History:   history,
		Forecast:  forecast,
	}
}

// fitLine regresses value on the day index. A flat series fits perfectly.
func fitLine(series []models.DailyPoint) (slope, intercept, r2 float64) {
	n := float64(len(series))
	if n == 0 {
		return 0, 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range series {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept = (sumY - slope*sumX) / n

	mean := sumY / n
	var ssTot, ssRes float64
	for i, p := range series {
		predicted := intercept + slope*float64(i)
		ssRes += (p.Value - predicted) * (p.Value - predicted)
		ssTot += (p.Value - mean) * (p.Value - mean)
	}
	if ssTot == 0 {
		return slope, intercept, 1
	}
	return slope, intercept, 1 - ssRes/ssTot
}
