package analytics

import (
	"time"

	"biasharaflow/backend/internal/domain"
)

const (
	DefaultForecastWindow  = 7
	DefaultForecastHorizon = 7
)

// Forecast builds the per-SKU daily sold-quantity series from the sales
// slice and produces a trailing moving average plus a flat short-horizon
// extrapolation. Calendar days with no sales between the first and last sale
// date count as zero; before the window fills, the average narrows to the
// days available instead of leaving gaps. The forecast holds the last moving
// average constant across the horizon, a deliberately simple baseline.
func Forecast(sales []domain.Transaction, sku string, window, horizon int) domain.ForecastSeries {
	if window < 1 {
		window = DefaultForecastWindow
	}
	if horizon < 1 {
		horizon = DefaultForecastHorizon
	}
	series := domain.ForecastSeries{SKU: sku, Window: window, Horizon: horizon}

	byDate := map[string]int{}
	var first, last time.Time
	for _, tx := range sales {
		if tx.SKU != sku {
			continue
		}
		day := tx.Timestamp.UTC().Truncate(24 * time.Hour)
		byDate[dateKey(day)] += tx.Quantity
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	if len(byDate) == 0 {
		return series
	}

	quantities := []float64{}
	lastMA := 0.0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		qty := float64(byDate[dateKey(day)])
		quantities = append(quantities, qty)
		lastMA = trailingMean(quantities, window)
		series.Points = append(series.Points, domain.ForecastPoint{
			Date:          dateKey(day),
			Quantity:      qty,
			MovingAverage: lastMA,
			Kind:          domain.PointActual,
		})
	}

	for i := 1; i <= horizon; i++ {
		day := last.AddDate(0, 0, i)
		series.Points = append(series.Points, domain.ForecastPoint{
			Date:          dateKey(day),
			Quantity:      lastMA,
			MovingAverage: lastMA,
			Kind:          domain.PointForecast,
		})
	}
	return series
}

// trailingMean averages the last window values, narrowing to whatever is
// available when the series is shorter than the window.
func trailingMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range values[start:] {
		sum += v
	}
	return sum / float64(len(values)-start)
}
