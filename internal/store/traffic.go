package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateKeyLayout = "2006-01-02"

// PairKey builds the lookup key for a (contract id, calendar day) pair.
func PairKey(contractID string, date time.Time) string {
	return contractID + "|" + date.Format(dateKeyLayout)
}

// JoinedRecord is a traffic record enriched with its owning customer.
type JoinedRecord struct {
	models.TrafficRecord
	Customer models.Customer `json:"customer"`
}

// JoinedResult carries the joined rows plus the orphan diagnostic:
// traffic records whose contract id has no customer are excluded from
// Records, never surfaced as an error.
type JoinedResult struct {
	Records           []JoinedRecord `json:"records"`
	OrphanedContracts []string       `json:"orphaned_contracts,omitempty"`
	OrphanedCount     int            `json:"orphaned_count"`
}

// TrafficStore is the persistence gateway for the traffic_data table.
type TrafficStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTrafficStore(db *gorm.DB, log *zap.Logger) *TrafficStore {
	return &TrafficStore{db: db, log: log.Named("store.traffic")}
}

// Create inserts a single record, rejecting a (contract id, date) pair
// that is already persisted.
func (s *TrafficStore) Create(record *models.TrafficRecord) error {
	existing, err := s.ExistingPairs([]string{record.ContractID})
	if err != nil {
		return err
	}
	if existing[PairKey(record.ContractID, record.Date)] {
		return &DuplicateKeyError{Keys: []string{PairKey(record.ContractID, record.Date)}}
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create traffic record: %w", err)
	}
	return nil
}

func (s *TrafficStore) GetByID(id uint) (*models.TrafficRecord, error) {
	var record models.TrafficRecord
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to retrieve traffic record: %w", err)
	}
	return &record, nil
}

// List returns traffic records newest first, optionally narrowed by
// contract id and an inclusive date range.
func (s *TrafficStore) List(offset, limit int, contractID string, from, to *time.Time) ([]models.TrafficRecord, int64, error) {
	query := s.db.Model(&models.TrafficRecord{})
	if contractID != "" {
		query = query.Where("contract_id = ?", contractID)
	}
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count traffic records: %w", err)
	}

	var records []models.TrafficRecord
	if err := query.Order("date DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve traffic records: %w", err)
	}
	return records, total, nil
}

// Update applies only the provided fields. Changing the contract id or
// date re-checks pair uniqueness.
func (s *TrafficStore) Update(id uint, contractID string, date *time.Time, traffic *int64, revenue *float64, serviceType string) (*models.TrafficRecord, error) {
	record, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	newContract := record.ContractID
	newDate := record.Date
	if contractID != "" {
		newContract = contractID
	}
	if date != nil {
		newDate = *date
	}
	if newContract != record.ContractID || !newDate.Equal(record.Date) {
		existing, err := s.ExistingPairs([]string{newContract})
		if err != nil {
			return nil, err
		}
		if existing[PairKey(newContract, newDate)] {
			return nil, &DuplicateKeyError{Keys: []string{PairKey(newContract, newDate)}}
		}
	}

	record.ContractID = newContract
	record.Date = newDate
	if traffic != nil {
		record.TrafficVolume = *traffic
	}
	if revenue != nil {
		record.Revenue = *revenue
	}
	if serviceType != "" {
		record.ServiceType = serviceType
	}

	if err := s.db.Save(record).Error; err != nil {
		return nil, fmt.Errorf("failed to update traffic record: %w", err)
	}
	return record, nil
}

func (s *TrafficStore) Delete(id uint) error {
	res := s.db.Delete(&models.TrafficRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete traffic record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ExistingPairs returns the set of persisted (contract id, date) pairs
// for the given contract ids, keyed by PairKey. One round trip.
func (s *TrafficStore) ExistingPairs(contractIDs []string) (map[string]bool, error) {
	if len(contractIDs) == 0 {
		return map[string]bool{}, nil
	}
	var records []models.TrafficRecord
	if err := s.db.Select("contract_id", "date").Where("contract_id IN ?", contractIDs).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing traffic entries: %w", err)
	}
	pairs := make(map[string]bool, len(records))
	for _, r := range records {
		pairs[PairKey(r.ContractID, r.Date)] = true
	}
	return pairs, nil
}

// BulkInsert stamps every record with a fresh batch id and inserts them
// in one statement. Validation happens before this is called.
func (s *TrafficStore) BulkInsert(records []models.TrafficRecord) (batchID string, inserted int, err error) {
	if len(records) == 0 {
		return "", 0, nil
	}
	batchID = uuid.NewString()
	for i := range records {
		records[i].BatchID = batchID
	}
	if err := s.db.Create(&records).Error; err != nil {
		return "", 0, fmt.Errorf("failed to bulk insert traffic records: %w", err)
	}
	s.log.Info("bulk traffic insert",
		zap.String("batch_id", batchID),
		zap.Int("inserted", len(records)),
	)
	return batchID, len(records), nil
}

// DeleteByBatch removes every record carrying the given batch id.
func (s *TrafficStore) DeleteByBatch(batchID string) (int64, error) {
	res := s.db.Where("batch_id = ?", batchID).Delete(&models.TrafficRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete batch %s: %w", batchID, res.Error)
	}
	return res.RowsAffected, nil
}

// RevertLastUpload deletes every record of the most recently inserted
// batch and reports how many rows went with it.
func (s *TrafficStore) RevertLastUpload() (string, int64, error) {
	var last models.TrafficRecord
	err := s.db.Where("batch_id <> ''").Order("created_at DESC").First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, ErrRecordNotFound
		}
		return "", 0, fmt.Errorf("failed to find last upload: %w", err)
	}

	deleted, err := s.DeleteByBatch(last.BatchID)
	if err != nil {
		return "", 0, err
	}
	s.log.Info("reverted last upload",
		zap.String("batch_id", last.BatchID),
		zap.Int64("deleted", deleted),
	)
	return last.BatchID, deleted, nil
}

// QueryJoined returns traffic records enriched with their owning
// customer. Office, payment type and customer id filters apply through
// the joined customer; records whose contract id has no customer at all
// are dropped, counted and logged as orphans.
func (s *TrafficStore) QueryJoined(filter models.ReportFilter) (*JoinedResult, error) {
	query := s.db.Model(&models.TrafficRecord{})
	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.ContractID != "" {
		query = query.Where("contract_id = ?", filter.ContractID)
	}

	var records []models.TrafficRecord
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve traffic records: %w", err)
	}

	contractSet := make(map[string]bool, len(records))
	contractIDs := make([]string, 0, len(records))
	for _, r := range records {
		if !contractSet[r.ContractID] {
			contractSet[r.ContractID] = true
			contractIDs = append(contractIDs, r.ContractID)
		}
	}

	var customers []models.Customer
	if len(contractIDs) > 0 {
		if err := s.db.Where("contract_id IN ?", contractIDs).Find(&customers).Error; err != nil {
			return nil, fmt.Errorf("failed to retrieve customers for join: %w", err)
		}
	}
	byContract := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		byContract[c.ContractID] = c
	}

	result := &JoinedResult{}
	orphanSet := map[string]bool{}
	for _, r := range records {
		customer, ok := byContract[r.ContractID]
		if !ok {
			result.OrphanedCount++
			if !orphanSet[r.ContractID] {
				orphanSet[r.ContractID] = true
				result.OrphanedContracts = append(result.OrphanedContracts, r.ContractID)
			}
			continue
		}
		if filter.OfficeName != "" && customer.OfficeName != filter.OfficeName {
			continue
		}
		if filter.PaymentType != "" && customer.PaymentType != filter.PaymentType {
			continue
		}
		if filter.CustomerID != "" && customer.CustomerID != filter.CustomerID {
			continue
		}
		result.Records = append(result.Records, JoinedRecord{TrafficRecord: r, Customer: customer})
	}

	if result.OrphanedCount > 0 {
		s.log.Warn("dropped orphaned traffic records from report query",
			zap.Int("count", result.OrphanedCount),
			zap.Strings("contract_ids", result.OrphanedContracts),
		)
	}
	return result, nil
}
