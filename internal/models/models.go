package models

import (
	"time"
)

// Payment types accepted for a customer contract.
const (
	PaymentTypeAdvance = "Advance"
	PaymentTypeBNPL    = "BNPL"
)

// Customer - one contract of a customer. contract_id is the unique key;
// the same customer_id may appear on several contracts.
type Customer struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CustomerName string    `json:"customer_name" gorm:"column:customer_name;not null" binding:"required"`
	OfficeName   string    `json:"office_name" gorm:"column:office_name;not null" binding:"required"`
	ServiceType  string    `json:"service_type" gorm:"column:service_type;not null" binding:"required"`
	CustomerID   string    `json:"customer_id" gorm:"column:customer_id;index;not null" binding:"required"`
	ContractID   string    `json:"contract_id" gorm:"column:contract_id;uniqueIndex;not null" binding:"required"`
	PaymentType  string    `json:"payment_type" gorm:"column:payment_type;default:Advance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// TrafficRecord - one day of traffic and revenue for a contract. The
// (contract_id, date) pair is kept unique at import time, not by a
// storage constraint. BatchID groups rows inserted by one bulk upload.
type TrafficRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContractID    string    `json:"contract_id" gorm:"column:contract_id;index;not null" binding:"required"`
	Date          time.Time `json:"date" gorm:"column:date;type:date;not null"`
	TrafficVolume int64     `json:"traffic_volume" gorm:"column:traffic_volume;not null"`
	Revenue       float64   `json:"revenue" gorm:"column:revenue;not null"`
	ServiceType   string    `json:"service_type" gorm:"column:service_type;not null" binding:"required"`
	BatchID       string    `json:"batch_id,omitempty" gorm:"column:batch_id;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (TrafficRecord) TableName() string { return "traffic_data" }

type CreateCustomerRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	OfficeName   string `json:"office_name" binding:"required"`
	ServiceType  string `json:"service_type" binding:"required"`
	CustomerID   string `json:"customer_id" binding:"required"`
	ContractID   string `json:"contract_id" binding:"required"`
	PaymentType  string `json:"payment_type" binding:"omitempty,oneof=Advance BNPL"`
}

type UpdateCustomerRequest struct {
	CustomerName string `json:"customer_name"`
	OfficeName   string `json:"office_name"`
	ServiceType  string `json:"service_type"`
	CustomerID   string `json:"customer_id"`
	ContractID   string `json:"contract_id"`
	PaymentType  string `json:"payment_type" binding:"omitempty,oneof=Advance BNPL"`
}

type CreateTrafficRequest struct {
	ContractID    string   `json:"contract_id" binding:"required"`
	Date          string   `json:"date" binding:"required"`
	TrafficVolume *int64   `json:"traffic_volume" binding:"required,min=0"`
	Revenue       *float64 `json:"revenue" binding:"required,min=0"`
	ServiceType   string   `json:"service_type" binding:"required"`
}

type UpdateTrafficRequest struct {
	ContractID    string   `json:"contract_id"`
	Date          string   `json:"date"`
	TrafficVolume *int64   `json:"traffic_volume" binding:"omitempty,min=0"`
	Revenue       *float64 `json:"revenue" binding:"omitempty,min=0"`
	ServiceType   string   `json:"service_type"`
}

// ReportFilter narrows the joined traffic+customer dataset before
// aggregation. StartDate and EndDate are inclusive on both ends.
type ReportFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	ServiceType string
	OfficeName  string
	PaymentType string
	CustomerID  string
	ContractID  string
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
