package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customers *store.CustomerStore
}

func NewCustomerHandler(customers *store.CustomerStore) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// CreateCustomer creates a new customer contract
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	existing, err := h.customers.ExistingContracts([]string{req.ContractID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to check contract id",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if _, ok := existing[req.ContractID]; ok {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "contract_exists",
			Message: "customer with this contract id already exists",
			Code:    http.StatusConflict,
		})
		return
	}

	customer := models.Customer{
		CustomerName: req.CustomerName,
		OfficeName:   req.OfficeName,
		ServiceType:  req.ServiceType,
		CustomerID:   req.CustomerID,
		ContractID:   req.ContractID,
		PaymentType:  req.PaymentType,
	}

	if err := h.customers.Create(&customer); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to create customer",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	customers, total, err := h.customers.List(offset, limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve customers",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid customer id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	customer, err := h.customers.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "customer not found",
				Message: "customer not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve customer",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid customer id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req models.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	customer, err := h.customers.Update(uint(id), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "customer not found",
				Message: "customer not found",
				Code:    http.StatusNotFound,
			})
		case store.IsDuplicateKey(err):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "contract_exists",
				Message: "contract id already in use",
				Code:    http.StatusConflict,
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "database error",
				Message: "failed to update customer",
				Code:    http.StatusInternalServerError,
			})
		}
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid customer id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.customers.Delete(uint(id)); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "customer not found",
				Message: "customer not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to delete customer",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "customer deleted successfully"})
}
