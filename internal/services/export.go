package services

import (
	"fmt"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
)

// noData marks a month with no records for a contract on export. It is
// deliberately not zero.
const noData = "no data"

var summaryHeaders = []string{
	"Report Type",
	"Total Customers",
	"Total Revenue",
	"Total Traffic",
	"Average Revenue per Customer",
	"Report Generated",
}

var consolidatedDetailHeaders = []string{
	"SL No",
	"Contract ID",
	"Customer Name",
	"Service Type",
	"Customer ID",
	"Office Name",
	"Total Revenue",
	"Total Traffic",
}

// unionHeaders concatenates header groups keeping each column name once,
// in first-seen order. Summary and detail blocks share the total columns.
func unionHeaders(groups ...[]string) []string {
	seen := map[string]bool{}
	var headers []string
	for _, group := range groups {
		for _, h := range group {
			if seen[h] {
				continue
			}
			seen[h] = true
			headers = append(headers, h)
		}
	}
	return headers
}

func summaryRow(reportType string, s Summary, generatedAt time.Time) map[string]any {
	return map[string]any{
		"Report Type":                  reportType,
		"Total Customers":              int64(s.TotalCustomers),
		"Total Revenue":                s.TotalRevenue,
		"Total Traffic":                s.TotalTraffic,
		"Average Revenue per Customer": fmt.Sprintf("%.2f", s.AverageRevenuePerCustomer),
		"Report Generated":             generatedAt.Format("1/2/2006"),
	}
}

// ExportConsolidated renders a consolidated report as workbook bytes:
// a summary block row first, then one detail row per contract.
func ExportConsolidated(report *ConsolidatedReport, generatedAt time.Time) ([]byte, error) {
	headers := unionHeaders(summaryHeaders, consolidatedDetailHeaders)
	rows := []map[string]any{summaryRow("Consolidated Summary", report.Summary, generatedAt)}

	for i, r := range report.Rows {
		rows = append(rows, map[string]any{
			"SL No":         int64(i + 1),
			"Contract ID":   r.Customer.ContractID,
			"Customer Name": r.Customer.CustomerName,
			"Service Type":  r.Customer.ServiceType,
			"Customer ID":   r.Customer.CustomerID,
			"Office Name":   r.Customer.OfficeName,
			"Total Revenue": r.TotalRevenue,
			"Total Traffic": r.TotalTraffic,
		})
	}
	return excel.Encode("Report", headers, rows)
}

// MonthLabel renders a YYYY-MM month key the way the report columns
// name it, e.g. "Jan 24".
func MonthLabel(monthKey string) string {
	t, err := time.Parse(monthKeyLayout, monthKey)
	if err != nil {
		return monthKey
	}
	return t.Format("Jan 06")
}

// ExportMonthWise renders the month-wise matrix as workbook bytes: a
// summary block row, then one row per contract with a traffic and a
// revenue column per observed month plus totals. Months absent for a
// contract render as "no data".
func ExportMonthWise(report *MonthWiseReport, generatedAt time.Time) ([]byte, error) {
	detailHeaders := []string{
		"SL No",
		"Contract ID",
		"Customer Name",
		"Service Type",
		"Customer ID",
		"Office Name",
		"Payment Type",
	}
	for _, m := range report.Months {
		label := MonthLabel(m)
		detailHeaders = append(detailHeaders, label+" Traffic", label+" Revenue")
	}
	detailHeaders = append(detailHeaders, "Total Traffic", "Total Revenue")

	headers := unionHeaders(summaryHeaders, detailHeaders)
	rows := []map[string]any{summaryRow("Month-wise Summary", report.Summary, generatedAt)}

	for i, r := range report.Rows {
		row := map[string]any{
			"SL No":         int64(i + 1),
			"Contract ID":   r.Customer.ContractID,
			"Customer Name": r.Customer.CustomerName,
			"Service Type":  r.Customer.ServiceType,
			"Customer ID":   r.Customer.CustomerID,
			"Office Name":   r.Customer.OfficeName,
			"Payment Type":  r.Customer.PaymentType,
		}
		for _, m := range report.Months {
			label := MonthLabel(m)
			if cell, ok := r.Months[m]; ok {
				row[label+" Traffic"] = cell.Traffic
				row[label+" Revenue"] = cell.Revenue
			} else {
				row[label+" Traffic"] = noData
				row[label+" Revenue"] = noData
			}
		}
		row["Total Traffic"] = r.TotalTraffic
		row["Total Revenue"] = r.TotalRevenue
		rows = append(rows, row)
	}
	return excel.Encode("Report", headers, rows)
}
