package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"go.uber.org/zap"
)

// Customer import column contract. Header names are literal.
const (
	colCustomerName = "Customer Name"
	colOfficeName   = "Office Name"
	colServiceType  = "Service Type"
	colCustomerID   = "Customer ID"
	colContractID   = "Contract ID"
	colPaymentType  = "Payment Type"
)

// ImportResult is returned by both importers. A failed import carries
// every accumulated error; nothing is persisted unless Errors is empty
// (or rows were deliberately skipped in skip-existing mode).
type ImportResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// CustomerImporter validates and persists bulk customer uploads.
type CustomerImporter struct {
	customers    *store.CustomerStore
	skipExisting bool
	log          *zap.Logger
}

func NewCustomerImporter(customers *store.CustomerStore, skipExisting bool, log *zap.Logger) *CustomerImporter {
	return &CustomerImporter{
		customers:    customers,
		skipExisting: skipExisting,
		log:          log.Named("import.customer"),
	}
}

// ValidateCustomerRows performs the structural pass: required fields,
// payment type values and intra-file Contract ID duplicates. Errors
// accumulate; a row with errors is excluded from the valid output.
func ValidateCustomerRows(rows []excel.Row) ([]models.Customer, []string) {
	var valid []models.Customer
	var errs []string

	// contract id -> 1-based file row numbers (+1 for the header)
	contractRows := map[string][]int{}
	var contractOrder []string

	for i, row := range rows {
		rowNumber := i + 2
		var rowErrs []string

		for _, field := range []string{colCustomerName, colOfficeName, colServiceType, colCustomerID, colContractID} {
			if strings.TrimSpace(row[field]) == "" {
				rowErrs = append(rowErrs, fmt.Sprintf("%s is required", field))
			}
		}

		paymentType := strings.TrimSpace(row[colPaymentType])
		switch paymentType {
		case "":
			paymentType = models.PaymentTypeAdvance
		case models.PaymentTypeAdvance, models.PaymentTypeBNPL:
		default:
			rowErrs = append(rowErrs, fmt.Sprintf("Payment Type must be '%s' or '%s'", models.PaymentTypeAdvance, models.PaymentTypeBNPL))
		}

		contractID := strings.TrimSpace(row[colContractID])
		if contractID != "" {
			if _, seen := contractRows[contractID]; !seen {
				contractOrder = append(contractOrder, contractID)
			}
			contractRows[contractID] = append(contractRows[contractID], rowNumber)
		}

		if len(rowErrs) > 0 {
			errs = append(errs, fmt.Sprintf("Row %d: %s", rowNumber, strings.Join(rowErrs, ", ")))
			continue
		}

		valid = append(valid, models.Customer{
			CustomerName: strings.TrimSpace(row[colCustomerName]),
			OfficeName:   strings.TrimSpace(row[colOfficeName]),
			ServiceType:  strings.TrimSpace(row[colServiceType]),
			CustomerID:   strings.TrimSpace(row[colCustomerID]),
			ContractID:   contractID,
			PaymentType:  paymentType,
		})
	}

	for _, contractID := range contractOrder {
		if rowNums := contractRows[contractID]; len(rowNums) > 1 {
			errs = append(errs, fmt.Sprintf(
				"Duplicate Contract ID %q found in file at rows: %s. Each contract must have a unique Contract ID.",
				contractID, joinInts(rowNums),
			))
		}
	}

	if len(errs) > 0 {
		// Rows with intra-file duplicates cannot be imported either.
		dupes := map[string]bool{}
		for id, rowNums := range contractRows {
			if len(rowNums) > 1 {
				dupes[id] = true
			}
		}
		filtered := valid[:0]
		for _, c := range valid {
			if !dupes[c.ContractID] {
				filtered = append(filtered, c)
			}
		}
		valid = filtered
	}

	return valid, errs
}

// Import decodes, validates and persists one uploaded file. The batch
// is all-or-nothing: any structural or cross-reference error means
// nothing is inserted, except that skip-existing mode tolerates already
// persisted contracts by skipping their rows.
func (im *CustomerImporter) Import(r io.Reader) (*ImportResult, error) {
	rows, _, err := excel.Decode(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows)}

	valid, errs := ValidateCustomerRows(rows)
	if len(errs) > 0 {
		result.Errors = errs
		result.Message = fmt.Sprintf("Parsed %d valid records with %d errors", len(valid), len(errs))
		return result, nil
	}

	if !im.skipExisting {
		contractIDs := make([]string, 0, len(valid))
		for _, c := range valid {
			contractIDs = append(contractIDs, c.ContractID)
		}
		existing, err := im.customers.ExistingContracts(contractIDs)
		if err != nil {
			return nil, err
		}
		for i, c := range valid {
			if owner, ok := existing[c.ContractID]; ok {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"Row %d: Contract ID %q already exists in the system (Customer: %s)",
					i+2, c.ContractID, owner.CustomerName,
				))
			}
		}
		if len(result.Errors) > 0 {
			result.Message = fmt.Sprintf("Upload prevented: %d duplicate Contract ID(s) found. Please correct the file and retry.", len(result.Errors))
			return result, nil
		}
	}

	inserted, skipped, err := im.customers.BulkInsert(valid, im.skipExisting)
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.Inserted = inserted
	result.Skipped = skipped
	if skipped > 0 {
		result.Message = fmt.Sprintf("Imported %d customers, skipped %d already existing", inserted, skipped)
	} else {
		result.Message = fmt.Sprintf("Successfully imported all %d customers", inserted)
	}
	im.log.Info("customer import finished",
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped),
	)
	return result, nil
}

func joinInts(nums []int) string {
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
