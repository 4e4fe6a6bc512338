package store

import (
	"errors"
	"fmt"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerStore is the persistence gateway for the customers table.
type CustomerStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCustomerStore(db *gorm.DB, log *zap.Logger) *CustomerStore {
	return &CustomerStore{db: db, log: log.Named("store.customer")}
}

func (s *CustomerStore) Create(customer *models.Customer) error {
	if customer.PaymentType == "" {
		customer.PaymentType = models.PaymentTypeAdvance
	}
	if err := s.db.Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *CustomerStore) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}
	return &customer, nil
}

// List returns customers newest first. search, when non-empty, matches
// name, office, service type or customer id as a substring.
func (s *CustomerStore) List(offset, limit int, search string) ([]models.Customer, int64, error) {
	query := s.db.Model(&models.Customer{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"customer_name LIKE ? OR office_name LIKE ? OR service_type LIKE ? OR customer_id LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	var customers []models.Customer
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve customers: %w", err)
	}
	return customers, total, nil
}

// Update applies only the provided (non-empty) fields.
func (s *CustomerStore) Update(id uint, req models.UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.ContractID != "" && req.ContractID != customer.ContractID {
		var existing models.Customer
		err := s.db.Where("contract_id = ? AND id != ?", req.ContractID, id).First(&existing).Error
		if err == nil {
			return nil, &DuplicateKeyError{Keys: []string{req.ContractID}}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check contract id: %w", err)
		}
		customer.ContractID = req.ContractID
	}
	if req.CustomerName != "" {
		customer.CustomerName = req.CustomerName
	}
	if req.OfficeName != "" {
		customer.OfficeName = req.OfficeName
	}
	if req.ServiceType != "" {
		customer.ServiceType = req.ServiceType
	}
	if req.CustomerID != "" {
		customer.CustomerID = req.CustomerID
	}
	if req.PaymentType != "" {
		customer.PaymentType = req.PaymentType
	}

	if err := s.db.Save(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerStore) Delete(id uint) error {
	res := s.db.Delete(&models.Customer{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ExistingContracts returns the persisted customers whose Contract ID
// appears in contractIDs, keyed by Contract ID. One round trip.
func (s *CustomerStore) ExistingContracts(contractIDs []string) (map[string]models.Customer, error) {
	if len(contractIDs) == 0 {
		return map[string]models.Customer{}, nil
	}
	var customers []models.Customer
	if err := s.db.Where("contract_id IN ?", contractIDs).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing contract ids: %w", err)
	}
	existing := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		existing[c.ContractID] = c
	}
	return existing, nil
}

// BulkInsert inserts a validated batch. With skipExisting false any
// Contract ID already persisted aborts the whole batch via
// DuplicateKeyError listing every collision; with skipExisting true the
// colliding rows are dropped and counted instead.
func (s *CustomerStore) BulkInsert(records []models.Customer, skipExisting bool) (inserted, skipped int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	contractIDs := make([]string, 0, len(records))
	for _, r := range records {
		contractIDs = append(contractIDs, r.ContractID)
	}
	existing, err := s.ExistingContracts(contractIDs)
	if err != nil {
		return 0, 0, err
	}

	toInsert := records
	if len(existing) > 0 {
		if !skipExisting {
			keys := make([]string, 0, len(existing))
			for _, r := range records {
				if _, ok := existing[r.ContractID]; ok {
					keys = append(keys, r.ContractID)
					delete(existing, r.ContractID)
				}
			}
			return 0, 0, &DuplicateKeyError{Keys: keys}
		}
		toInsert = make([]models.Customer, 0, len(records))
		for _, r := range records {
			if _, ok := existing[r.ContractID]; ok {
				skipped++
				continue
			}
			toInsert = append(toInsert, r)
		}
	}

	if len(toInsert) > 0 {
		for i := range toInsert {
			if toInsert[i].PaymentType == "" {
				toInsert[i].PaymentType = models.PaymentTypeAdvance
			}
		}
		if err := s.db.Create(&toInsert).Error; err != nil {
			return 0, skipped, fmt.Errorf("failed to bulk insert customers: %w", err)
		}
	}

	s.log.Info("bulk customer insert",
		zap.Int("inserted", len(toInsert)),
		zap.Int("skipped", skipped),
	)
	return len(toInsert), skipped, nil
}
