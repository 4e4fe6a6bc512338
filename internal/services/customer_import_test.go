package services

import (
	"bytes"
	"testing"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStores(t *testing.T) (*store.CustomerStore, *store.TrafficStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal("failed to connect to test database")
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.TrafficRecord{}); err != nil {
		t.Fatal("failed to migrate test database")
	}
	return store.NewCustomerStore(db, zap.NewNop()), store.NewTrafficStore(db, zap.NewNop())
}

func customerRow(name, office, service, customerID, contractID string) excel.Row {
	return excel.Row{
		"Customer Name": name,
		"Office Name":   office,
		"Service Type":  service,
		"Customer ID":   customerID,
		"Contract ID":   contractID,
	}
}

func customerFile(t *testing.T, rows []map[string]any) *bytes.Reader {
	t.Helper()
	headers := []string{"Customer Name", "Office Name", "Service Type", "Customer ID", "Contract ID", "Payment Type"}
	data, err := excel.Encode("Customers", headers, rows)
	assert.NoError(t, err)
	return bytes.NewReader(data)
}

func TestValidateCustomerRows(t *testing.T) {
	tests := []struct {
		name       string
		rows       []excel.Row
		wantValid  int
		wantErrors []string
	}{
		{
			name: "all rows valid",
			rows: []excel.Row{
				customerRow("Acme", "Nairobi", "Leased Line", "CUST-1", "CON-1"),
				customerRow("Acme", "Nairobi", "Broadband", "CUST-1", "CON-2"),
			},
			wantValid: 2,
		},
		{
			name: "missing fields accumulate per row",
			rows: []excel.Row{
				customerRow("", "Nairobi", "", "CUST-1", "CON-1"),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Customer Name is required, Service Type is required",
			},
		},
		{
			name: "invalid payment type",
			rows: []excel.Row{
				withPayment(customerRow("Acme", "Nairobi", "Leased Line", "CUST-1", "CON-1"), "Postpaid"),
			},
			wantValid: 0,
			wantErrors: []string{
				"Row 2: Payment Type must be 'Advance' or 'BNPL'",
			},
		},
		{
			name: "duplicate contract id names both rows and yields no valid records",
			rows: []excel.Row{
				customerRow("Acme", "Nairobi", "Leased Line", "CUST-1", "C1"),
				customerRow("Acme", "Nairobi", "Broadband", "CUST-1", "C1"),
			},
			wantValid: 0,
			wantErrors: []string{
				`Duplicate Contract ID "C1" found in file at rows: 2, 3. Each contract must have a unique Contract ID.`,
			},
		},
		{
			name: "same customer id with distinct contracts is allowed",
			rows: []excel.Row{
				customerRow("Acme", "Nairobi", "Leased Line", "CUST-1", "CON-1"),
				customerRow("Acme", "Mombasa", "Broadband", "CUST-1", "CON-2"),
			},
			wantValid: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := ValidateCustomerRows(tt.rows)
			assert.Len(t, valid, tt.wantValid)
			assert.Equal(t, tt.wantErrors, errs)
		})
	}
}

func withPayment(row excel.Row, paymentType string) excel.Row {
	row["Payment Type"] = paymentType
	return row
}

func TestValidateCustomerRowsDefaultsPaymentType(t *testing.T) {
	valid, errs := ValidateCustomerRows([]excel.Row{
		customerRow("Acme", "Nairobi", "Leased Line", "CUST-1", "CON-1"),
		withPayment(customerRow("Globex", "Mombasa", "Broadband", "CUST-2", "CON-2"), "BNPL"),
	})

	assert.Empty(t, errs)
	assert.Equal(t, models.PaymentTypeAdvance, valid[0].PaymentType)
	assert.Equal(t, models.PaymentTypeBNPL, valid[1].PaymentType)
}

func TestCustomerImportCleanFile(t *testing.T) {
	customers, _ := setupStores(t)
	importer := NewCustomerImporter(customers, false, zap.NewNop())

	file := customerFile(t, []map[string]any{
		{"Customer Name": "Acme", "Office Name": "Nairobi", "Service Type": "Leased Line", "Customer ID": "CUST-1", "Contract ID": "CON-1"},
		{"Customer Name": "Globex", "Office Name": "Mombasa", "Service Type": "Broadband", "Customer ID": "CUST-2", "Contract ID": "CON-2", "Payment Type": "BNPL"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
}

func TestCustomerImportAbortsOnExistingContract(t *testing.T) {
	customers, _ := setupStores(t)
	assert.NoError(t, customers.Create(&models.Customer{
		CustomerName: "Initech", OfficeName: "Nakuru", ServiceType: "Broadband",
		CustomerID: "CUST-9", ContractID: "CON-1",
	}))

	importer := NewCustomerImporter(customers, false, zap.NewNop())
	file := customerFile(t, []map[string]any{
		{"Customer Name": "Acme", "Office Name": "Nairobi", "Service Type": "Leased Line", "Customer ID": "CUST-1", "Contract ID": "CON-1"},
		{"Customer Name": "Globex", "Office Name": "Mombasa", "Service Type": "Broadband", "Customer ID": "CUST-2", "Contract ID": "CON-2"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Inserted)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2")
	assert.Contains(t, result.Errors[0], `Contract ID "CON-1" already exists`)
	assert.Contains(t, result.Errors[0], "Initech")

	// the whole batch is rejected, including the clean row
	existing, err := customers.ExistingContracts([]string{"CON-2"})
	assert.NoError(t, err)
	assert.Empty(t, existing)
}

func TestCustomerImportSkipExistingMode(t *testing.T) {
	customers, _ := setupStores(t)
	assert.NoError(t, customers.Create(&models.Customer{
		CustomerName: "Initech", OfficeName: "Nakuru", ServiceType: "Broadband",
		CustomerID: "CUST-9", ContractID: "CON-1",
	}))

	importer := NewCustomerImporter(customers, true, zap.NewNop())
	file := customerFile(t, []map[string]any{
		{"Customer Name": "Acme", "Office Name": "Nairobi", "Service Type": "Leased Line", "Customer ID": "CUST-1", "Contract ID": "CON-1"},
		{"Customer Name": "Globex", "Office Name": "Mombasa", "Service Type": "Broadband", "Customer ID": "CUST-2", "Contract ID": "CON-2"},
	})

	result, err := importer.Import(file)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
}

func TestCustomerImportInvalidFile(t *testing.T) {
	customers, _ := setupStores(t)
	importer := NewCustomerImporter(customers, false, zap.NewNop())

	_, err := importer.Import(bytes.NewReader([]byte("not a spreadsheet")))
	assert.ErrorIs(t, err, excel.ErrInvalidFormat)
}
