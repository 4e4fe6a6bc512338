package services

import (
	"sort"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
)

const monthKeyLayout = "2006-01"

// Summary statistics always describe the rows actually present in the
// report, i.e. after any top-N truncation.
type Summary struct {
	TotalCustomers            int     `json:"total_customers"`
	TotalRevenue              float64 `json:"total_revenue"`
	TotalTraffic              int64   `json:"total_traffic"`
	AverageRevenuePerCustomer float64 `json:"average_revenue_per_customer"`
}

// MonthCell is one contract's aggregate for one calendar month. A
// missing cell means no data for that month, which is distinct from
// zeros.
type MonthCell struct {
	Traffic int64   `json:"traffic"`
	Revenue float64 `json:"revenue"`
	Records int     `json:"records"`
}

type MonthWiseRow struct {
	Customer     models.Customer      `json:"customer"`
	Months       map[string]MonthCell `json:"months"`
	TotalTraffic int64                `json:"total_traffic"`
	TotalRevenue float64              `json:"total_revenue"`
}

// MonthWiseReport is the contract-by-month matrix. Months holds every
// distinct month observed across the whole filtered dataset, ascending;
// Rows are ordered by descending total revenue.
type MonthWiseReport struct {
	Months  []string       `json:"months"`
	Rows    []MonthWiseRow `json:"rows"`
	Summary Summary        `json:"summary"`
}

type ConsolidatedRow struct {
	Customer     models.Customer `json:"customer"`
	TotalTraffic int64           `json:"total_traffic"`
	TotalRevenue float64         `json:"total_revenue"`
	RecordCount  int             `json:"record_count"`
	FirstDate    time.Time       `json:"first_date"`
	LastDate     time.Time       `json:"last_date"`
}

// ConsolidatedReport sums each contract across the whole filtered
// period, ordered by descending total revenue.
type ConsolidatedReport struct {
	Rows    []ConsolidatedRow `json:"rows"`
	Summary Summary           `json:"summary"`
}

// BuildMonthWise groups joined records by (contract id, month). topN of
// zero means unlimited; ranking is by total revenue over the full
// filtered dataset, and the summary is recomputed from the truncated
// rows.
func BuildMonthWise(records []store.JoinedRecord, topN int) *MonthWiseReport {
	byContract := map[string]*MonthWiseRow{}
	var order []string
	monthSet := map[string]bool{}

	for _, rec := range records {
		row, ok := byContract[rec.ContractID]
		if !ok {
			row = &MonthWiseRow{Customer: rec.Customer, Months: map[string]MonthCell{}}
			byContract[rec.ContractID] = row
			order = append(order, rec.ContractID)
		}

		monthKey := rec.Date.Format(monthKeyLayout)
		monthSet[monthKey] = true

		cell := row.Months[monthKey]
		cell.Traffic += rec.TrafficVolume
		cell.Revenue += rec.Revenue
		cell.Records++
		row.Months[monthKey] = cell

		row.TotalTraffic += rec.TrafficVolume
		row.TotalRevenue += rec.Revenue
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)

	rows := make([]MonthWiseRow, 0, len(order))
	for _, contractID := range order {
		rows = append(rows, *byContract[contractID])
	}
	sortByRevenue(rows, func(r MonthWiseRow) (float64, string) {
		return r.TotalRevenue, r.Customer.ContractID
	})
	rows = truncate(rows, topN)

	report := &MonthWiseReport{Months: months, Rows: rows}
	for _, r := range rows {
		report.Summary.TotalRevenue += r.TotalRevenue
		report.Summary.TotalTraffic += r.TotalTraffic
	}
	report.Summary.TotalCustomers = len(rows)
	if len(rows) > 0 {
		report.Summary.AverageRevenuePerCustomer = report.Summary.TotalRevenue / float64(len(rows))
	}
	return report
}

// BuildConsolidated groups joined records by contract id over the whole
// filtered period. Top-N and summary semantics match BuildMonthWise.
func BuildConsolidated(records []store.JoinedRecord, topN int) *ConsolidatedReport {
	byContract := map[string]*ConsolidatedRow{}
	var order []string

	for _, rec := range records {
		row, ok := byContract[rec.ContractID]
		if !ok {
			row = &ConsolidatedRow{
				Customer:  rec.Customer,
				FirstDate: rec.Date,
				LastDate:  rec.Date,
			}
			byContract[rec.ContractID] = row
			order = append(order, rec.ContractID)
		}

		row.TotalTraffic += rec.TrafficVolume
		row.TotalRevenue += rec.Revenue
		row.RecordCount++
		if rec.Date.Before(row.FirstDate) {
			row.FirstDate = rec.Date
		}
		if rec.Date.After(row.LastDate) {
			row.LastDate = rec.Date
		}
	}

	rows := make([]ConsolidatedRow, 0, len(order))
	for _, contractID := range order {
		rows = append(rows, *byContract[contractID])
	}
	sortByRevenue(rows, func(r ConsolidatedRow) (float64, string) {
		return r.TotalRevenue, r.Customer.ContractID
	})
	rows = truncate(rows, topN)

	report := &ConsolidatedReport{Rows: rows}
	for _, r := range rows {
		report.Summary.TotalRevenue += r.TotalRevenue
		report.Summary.TotalTraffic += r.TotalTraffic
	}
	report.Summary.TotalCustomers = len(rows)
	if len(rows) > 0 {
		report.Summary.AverageRevenuePerCustomer = report.Summary.TotalRevenue / float64(len(rows))
	}
	return report
}

// sortByRevenue orders rows by descending revenue, breaking ties by
// contract id so rankings are deterministic.
func sortByRevenue[T any](rows []T, key func(T) (float64, string)) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, ci := key(rows[i])
		rj, cj := key(rows[j])
		if ri != rj {
			return ri > rj
		}
		return ci < cj
	})
}

func truncate[T any](rows []T, topN int) []T {
	if topN > 0 && len(rows) > topN {
		return rows[:topN]
	}
	return rows
}
