package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"go.uber.org/zap"
)

// Traffic import column contract. Header names are literal.
const (
	colDate    = "Date"
	colTraffic = "Traffic"
	colRevenue = "Revenue"
)

// TrafficImporter validates and persists bulk traffic uploads.
type TrafficImporter struct {
	customers *store.CustomerStore
	traffic   *store.TrafficStore
	log       *zap.Logger
}

func NewTrafficImporter(customers *store.CustomerStore, traffic *store.TrafficStore, log *zap.Logger) *TrafficImporter {
	return &TrafficImporter{
		customers: customers,
		traffic:   traffic,
		log:       log.Named("import.traffic"),
	}
}

// ValidateTrafficRows performs the structural pass: required fields,
// numeric traffic/revenue (zero valid, blank not), date normalization
// and intra-file (contract id, date) duplicates.
func ValidateTrafficRows(rows []excel.Row) ([]models.TrafficRecord, []string) {
	var valid []models.TrafficRecord
	var errs []string

	// pair key -> 1-based file row numbers (+1 for the header)
	pairRows := map[string][]int{}
	var pairOrder []string

	for i, row := range rows {
		rowNumber := i + 2
		var rowErrs []string

		contractID := strings.TrimSpace(row[colContractID])
		if contractID == "" {
			rowErrs = append(rowErrs, "Contract ID is required")
		}

		dateRaw := strings.TrimSpace(row[colDate])
		if dateRaw == "" {
			rowErrs = append(rowErrs, "Date is required")
		}

		trafficRaw := strings.TrimSpace(row[colTraffic])
		trafficVolume, err := strconv.ParseInt(trafficRaw, 10, 64)
		if trafficRaw == "" || err != nil || trafficVolume < 0 {
			rowErrs = append(rowErrs, "Valid Traffic is required (zero is allowed)")
		}

		revenueRaw := strings.TrimSpace(row[colRevenue])
		revenue, err := strconv.ParseFloat(revenueRaw, 64)
		if revenueRaw == "" || err != nil || revenue < 0 {
			rowErrs = append(rowErrs, "Valid Revenue is required (zero is allowed)")
		}

		if strings.TrimSpace(row[colServiceType]) == "" {
			rowErrs = append(rowErrs, "Service Type is required")
		}

		date, dateErr := ParseCellDate(dateRaw)
		if dateRaw != "" && dateErr != nil {
			rowErrs = append(rowErrs, "Invalid date format")
		}

		if contractID != "" && dateErr == nil {
			key := store.PairKey(contractID, date)
			if _, seen := pairRows[key]; !seen {
				pairOrder = append(pairOrder, key)
			}
			pairRows[key] = append(pairRows[key], rowNumber)
		}

		if len(rowErrs) > 0 {
			errs = append(errs, fmt.Sprintf("Row %d: %s", rowNumber, strings.Join(rowErrs, ", ")))
			continue
		}

		valid = append(valid, models.TrafficRecord{
			ContractID:    contractID,
			Date:          date,
			TrafficVolume: trafficVolume,
			Revenue:       revenue,
			ServiceType:   strings.TrimSpace(row[colServiceType]),
		})
	}

	dupes := map[string]bool{}
	for _, key := range pairOrder {
		if rowNums := pairRows[key]; len(rowNums) > 1 {
			dupes[key] = true
			contractID, day, _ := strings.Cut(key, "|")
			errs = append(errs, fmt.Sprintf(
				"Duplicate traffic entry for Contract ID %q on date %q found in file at rows: %s",
				contractID, day, joinInts(rowNums),
			))
		}
	}
	if len(dupes) > 0 {
		filtered := valid[:0]
		for _, r := range valid {
			if !dupes[store.PairKey(r.ContractID, r.Date)] {
				filtered = append(filtered, r)
			}
		}
		valid = filtered
	}

	return valid, errs
}

// Import decodes, validates and persists one uploaded file as a single
// batch. Contract existence is checked before persisted-duplicate
// checking; if any contract is missing, duplicate checks are skipped
// and only the existence errors are reported. All-or-nothing.
func (im *TrafficImporter) Import(r io.Reader) (*ImportResult, error) {
	rows, _, err := excel.Decode(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows)}

	valid, errs := ValidateTrafficRows(rows)
	if len(errs) > 0 {
		result.Errors = errs
		result.Message = fmt.Sprintf("Parsed %d valid records with %d errors", len(valid), len(errs))
		return result, nil
	}

	crossErrs, err := im.checkAgainstStore(valid)
	if err != nil {
		return nil, err
	}
	if len(crossErrs) > 0 {
		result.Errors = crossErrs
		result.Message = fmt.Sprintf("Upload prevented: %d validation error(s) found. Please correct the file and retry.", len(crossErrs))
		return result, nil
	}

	batchID, inserted, err := im.traffic.BulkInsert(valid)
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.Inserted = inserted
	result.Message = fmt.Sprintf("Successfully imported all %d traffic records", inserted)
	im.log.Info("traffic import finished",
		zap.String("batch_id", batchID),
		zap.Int("inserted", inserted),
	)
	return result, nil
}

// checkAgainstStore runs the two cross-reference passes, each as one
// batched lookup.
func (im *TrafficImporter) checkAgainstStore(records []models.TrafficRecord) ([]string, error) {
	distinct := map[string]bool{}
	var contractIDs []string
	for _, r := range records {
		if !distinct[r.ContractID] {
			distinct[r.ContractID] = true
			contractIDs = append(contractIDs, r.ContractID)
		}
	}

	existing, err := im.customers.ExistingContracts(contractIDs)
	if err != nil {
		return nil, err
	}

	var errs []string
	for i, r := range records {
		if _, ok := existing[r.ContractID]; !ok {
			errs = append(errs, fmt.Sprintf(
				"Row %d: Contract ID %q does not exist in the customer table", i+2, r.ContractID,
			))
		}
	}
	// Missing contracts suppress duplicate checking.
	if len(errs) > 0 {
		return errs, nil
	}

	pairs, err := im.traffic.ExistingPairs(contractIDs)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		if pairs[store.PairKey(r.ContractID, r.Date)] {
			errs = append(errs, fmt.Sprintf(
				"Row %d: Traffic entry for Contract ID %q on date %q already exists in the system",
				i+2, r.ContractID, r.Date.Format("2006-01-02"),
			))
		}
	}
	return errs, nil
}
