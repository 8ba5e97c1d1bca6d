package analytics

import (
	"sort"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

// RevenueBreakdown orders sources by amount and attaches each source's share of the total,
// rounded to one decimal.
func RevenueBreakdown(totals []models.SourceTotal) models.RevenueBreakdown {
	out := models.RevenueBreakdown{Sources: make([]models.RevenueSource, 0, len(totals))}
	for _, t := range totals {
		out.Total += t.Amount
	}
	for _, t := range totals {
		src := models.RevenueSource{Source: t.Source, Amount: t.Amount}
		if out.Total > 0 {
			src.Percentage = round(float64(t.Amount)*100/float64(out.Total), 1)
		}
		out.Sources = append(out.Sources, src)
	}
	sort.SliceStable(out.Sources, func(i, j int) bool {
		if out.Sources[i].Amount != out.Sources[j].Amount {
			return out.Sources[i].Amount > out.Sources[j].Amount
		}
		return out.Sources[i].Source < out.Sources[j].Source
	})
	return out
}
