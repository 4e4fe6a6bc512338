package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database")
	}

	db.AutoMigrate(&models.Customer{}, &models.TrafficRecord{})
	return db
}

func TestCreateCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB()
	handler := NewCustomerHandler(store.NewCustomerStore(db, zap.NewNop()))

	tests := []struct {
		name           string
		requestBody    models.CreateCustomerRequest
		expectedStatus int
		expectedError  string
	}{
		{
			name: "valid customer creation",
			requestBody: models.CreateCustomerRequest{
				CustomerName: "Acme Ltd",
				OfficeName:   "Nairobi",
				ServiceType:  "Leased Line",
				CustomerID:   "CUST-1",
				ContractID:   "CON-1",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate contract id",
			requestBody: models.CreateCustomerRequest{
				CustomerName: "Acme Ltd",
				OfficeName:   "Nairobi",
				ServiceType:  "Broadband",
				CustomerID:   "CUST-1",
				ContractID:   "CON-1",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "contract_exists",
		},
		{
			name: "missing required fields",
			requestBody: models.CreateCustomerRequest{
				CustomerName: "Acme Ltd",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request",
		},
		{
			name: "invalid payment type",
			requestBody: models.CreateCustomerRequest{
				CustomerName: "Globex",
				OfficeName:   "Mombasa",
				ServiceType:  "Broadband",
				CustomerID:   "CUST-2",
				ContractID:   "CON-2",
				PaymentType:  "Postpaid",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			jsonBody, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest("POST", "/customers", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			c.Request = req

			handler.CreateCustomer(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				var errorResponse models.ErrorResponse
				json.Unmarshal(w.Body.Bytes(), &errorResponse)
				assert.Equal(t, tt.expectedError, errorResponse.Error)
			}
		})
	}
}

func TestGetCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB()
	handler := NewCustomerHandler(store.NewCustomerStore(db, zap.NewNop()))

	customer := models.Customer{
		CustomerName: "Acme Ltd",
		OfficeName:   "Nairobi",
		ServiceType:  "Leased Line",
		CustomerID:   "CUST-1",
		ContractID:   "CON-1",
		PaymentType:  models.PaymentTypeAdvance,
	}
	db.Create(&customer)

	tests := []struct {
		name           string
		customerID     string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "valid customer ID",
			customerID:     "1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid customer ID",
			customerID:     "invalid",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid id",
		},
		{
			name:           "non-existent customer",
			customerID:     "999",
			expectedStatus: http.StatusNotFound,
			expectedError:  "customer not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req, _ := http.NewRequest("GET", "/customers/"+tt.customerID, nil)
			c.Request = req
			c.Params = []gin.Param{{Key: "id", Value: tt.customerID}}

			handler.GetCustomer(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				var errorResponse models.ErrorResponse
				json.Unmarshal(w.Body.Bytes(), &errorResponse)
				assert.Equal(t, tt.expectedError, errorResponse.Error)
			}
		})
	}
}

func TestGetCustomers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB()
	handler := NewCustomerHandler(store.NewCustomerStore(db, zap.NewNop()))

	customers := []models.Customer{
		{CustomerName: "Acme Ltd", OfficeName: "Nairobi", ServiceType: "Leased Line", CustomerID: "CUST-1", ContractID: "CON-1"},
		{CustomerName: "Acme Ltd", OfficeName: "Nairobi", ServiceType: "Broadband", CustomerID: "CUST-1", ContractID: "CON-2"},
		{CustomerName: "Globex", OfficeName: "Mombasa", ServiceType: "Broadband", CustomerID: "CUST-2", ContractID: "CON-3"},
	}

	for _, customer := range customers {
		db.Create(&customer)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req, _ := http.NewRequest("GET", "/customers", nil)
	c.Request = req

	handler.GetCustomers(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Contains(t, response, "customers")
	assert.Contains(t, response, "total")
	assert.Equal(t, float64(3), response["total"])
}

func TestUpdateCustomerPartial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB()
	handler := NewCustomerHandler(store.NewCustomerStore(db, zap.NewNop()))

	customer := models.Customer{
		CustomerName: "Acme Ltd",
		OfficeName:   "Nairobi",
		ServiceType:  "Leased Line",
		CustomerID:   "CUST-1",
		ContractID:   "CON-1",
	}
	db.Create(&customer)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(models.UpdateCustomerRequest{OfficeName: "Kisumu"})
	req, _ := http.NewRequest("PUT", "/customers/1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = []gin.Param{{Key: "id", Value: "1"}}

	handler.UpdateCustomer(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Customer
	json.Unmarshal(w.Body.Bytes(), &updated)
	assert.Equal(t, "Kisumu", updated.OfficeName)
	assert.Equal(t, "Acme Ltd", updated.CustomerName)
}

func TestDeleteCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB()
	handler := NewCustomerHandler(store.NewCustomerStore(db, zap.NewNop()))

	customer := models.Customer{
		CustomerName: "Acme Ltd",
		OfficeName:   "Nairobi",
		ServiceType:  "Leased Line",
		CustomerID:   "CUST-1",
		ContractID:   "CON-1",
	}
	db.Create(&customer)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest("DELETE", "/customers/1", nil)
	c.Request = req
	c.Params = []gin.Param{{Key: "id", Value: "1"}}

	handler.DeleteCustomer(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ = http.NewRequest("DELETE", "/customers/1", nil)
	c.Request = req
	c.Params = []gin.Param{{Key: "id", Value: "1"}}

	handler.DeleteCustomer(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
