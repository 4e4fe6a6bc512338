package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func trafficRow(contractID, date, traffic, revenue, service string) excel.Row {
	return excel.Row{
		"Contract ID":  contractID,
		"Date":         date,
		"Traffic":      traffic,
		"Revenue":      revenue,
		"Service Type": service,
	}
}

func trafficFile(t *testing.T, rows []map[string]any) *bytes.Reader {
	t.Helper()
	headers := []string{"Contract ID", "Date", "Traffic", "Revenue", "Service Type"}
	data, err := excel.Encode("Traffic", headers, rows)
	assert.NoError(t, err)
	return bytes.NewReader(data)
}

func TestParseCellDate(t *testing.T) {
	iso, err := ParseCellDate("2024-01-05")
	assert.NoError(t, err)

	slash, err := ParseCellDate("01/05/2024")
	assert.NoError(t, err)
	assert.True(t, iso.Equal(slash))

	// Excel serial day for 2024-01-05 (epoch 1899-12-30)
	serial, err := ParseCellDate("45296")
	assert.NoError(t, err)
	assert.True(t, iso.Equal(serial), "serial date must normalize to the same calendar date")
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), serial)

	_, err = ParseCellDate("yesterday")
	assert.Error(t, err)
}

func TestValidateTrafficRows(t *testing.T) {
	tests := []struct {
		name       string
		rows       []excel.Row
		wantValid  int
		wantErrors []string
	}{
		{
			name: "zero traffic and revenue are valid",
			rows: []excel.Row{
				trafficRow("CON-1", "2024-01-05", "0", "0", "Broadband"),
			},
			wantValid: 1,
		},
		{
			name: "blank and non-numeric amounts are rejected",
			rows: []excel.Row{
				trafficRow("CON-1", "2024-01-05", "", "abc", "Broadband"),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Valid Traffic is required (zero is allowed), Valid Revenue is required (zero is allowed)",
			},
		},
		{
			name: "negative amounts are rejected",
			rows: []excel.Row{
				trafficRow("CON-1", "2024-01-05", "-1", "-2.5", "Broadband"),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Valid Traffic is required (zero is allowed), Valid Revenue is required (zero is allowed)",
			},
		},
		{
			name: "missing required fields",
			rows: []excel.Row{
				trafficRow("", "", "10", "10", ""),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Contract ID is required, Date is required, Service Type is required",
			},
		},
		{
			name: "unparseable date",
			rows: []excel.Row{
				trafficRow("CON-1", "soon", "10", "10", "Broadband"),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Invalid date format",
			},
		},
		{
			name: "serial and iso dates collide as duplicates",
			rows: []excel.Row{
				trafficRow("CON-1", "2024-01-05", "10", "10", "Broadband"),
				trafficRow("CON-1", "45296", "20", "20", "Broadband"),
			},
			wantValid: 0,
			wantErrors: []string{
				`Duplicate traffic entry for Contract ID "CON-1" on date "2024-01-05" found in file at rows: 2, 3`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := ValidateTrafficRows(tt.rows)
			assert.Len(t, valid, tt.wantValid)
			assert.Equal(t, tt.wantErrors, errs)
		})
	}
}

func TestTrafficImportCleanFile(t *testing.T) {
	customers, traffic := setupStores(t)
	assert.NoError(t, customers.Create(&models.Customer{
		CustomerName: "Acme", OfficeName: "Nairobi", ServiceType: "Leased Line",
		CustomerID: "CUST-1", ContractID: "CON-1",
	}))

	importer := NewTrafficImporter(customers, traffic, zap.NewNop())
	file := trafficFile(t, []map[string]any{
		{"Contract ID": "CON-1", "Date": "2024-01-05", "Traffic": int64(100), "Revenue": 99.5, "Service Type": "Leased Line"},
		{"Contract ID": "CON-1", "Date": "2024-01-06", "Traffic": int64(0), "Revenue": float64(0), "Service Type": "Leased Line"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Inserted)

	records, total, err := traffic.List(0, 10, "CON-1", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.NotEmpty(t, records[0].BatchID)
}

func TestTrafficImportUnknownContractSkipsDuplicateCheck(t *testing.T) {
	customers, traffic := setupStores(t)
	importer := NewTrafficImporter(customers, traffic, zap.NewNop())

	file := trafficFile(t, []map[string]any{
		{"Contract ID": "CON-404", "Date": "2024-01-05", "Traffic": int64(10), "Revenue": 1.0, "Service Type": "Broadband"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Inserted)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `Contract ID "CON-404" does not exist in the customer table`)
}

func TestTrafficImportRejectsPersistedPair(t *testing.T) {
	customers, traffic := setupStores(t)
	assert.NoError(t, customers.Create(&models.Customer{
		CustomerName: "Acme", OfficeName: "Nairobi", ServiceType: "Leased Line",
		CustomerID: "CUST-1", ContractID: "CON-1",
	}))
	assert.NoError(t, traffic.Create(&models.TrafficRecord{
		ContractID: "CON-1", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		TrafficVolume: 5, Revenue: 5, ServiceType: "Leased Line",
	}))

	importer := NewTrafficImporter(customers, traffic, zap.NewNop())
	file := trafficFile(t, []map[string]any{
		{"Contract ID": "CON-1", "Date": "2024-01-05", "Traffic": int64(10), "Revenue": 1.0, "Service Type": "Broadband"},
		{"Contract ID": "CON-1", "Date": "2024-01-06", "Traffic": int64(10), "Revenue": 1.0, "Service Type": "Broadband"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Inserted)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2")
	assert.Contains(t, result.Errors[0], "already exists in the system")

	// nothing from the rejected batch may land
	_, total, err := traffic.List(0, 10, "CON-1", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
