package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/services"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/gin-gonic/gin"
)

type TrafficHandler struct {
	traffic   *store.TrafficStore
	customers *store.CustomerStore
}

func NewTrafficHandler(traffic *store.TrafficStore, customers *store.CustomerStore) *TrafficHandler {
	return &TrafficHandler{traffic: traffic, customers: customers}
}

func (h *TrafficHandler) CreateTraffic(c *gin.Context) {
	var req models.CreateTrafficRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	date, err := services.ParseCellDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid date",
			Message: "date must be a calendar date, e.g. 2024-01-31",
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
	if _, ok := existing[req.ContractID]; !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "contract not found",
			Message: "contract id does not exist in the customer table",
			Code:    http.StatusNotFound,
		})
		return
	}

	record := models.TrafficRecord{
		ContractID:    req.ContractID,
		Date:          date,
		TrafficVolume: *req.TrafficVolume,
		Revenue:       *req.Revenue,
		ServiceType:   req.ServiceType,
	}

	if err := h.traffic.Create(&record); err != nil {
		if store.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "traffic_exists",
				Message: "a traffic entry for this contract id and date already exists",
				Code:    http.StatusConflict,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to create traffic record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *TrafficHandler) GetTrafficRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	from, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	records, total, err := h.traffic.List(offset, limit, c.Query("contract_id"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve traffic records",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"traffic": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *TrafficHandler) GetTraffic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid traffic record id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	record, err := h.traffic.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "traffic record not found",
				Message: "traffic record not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve traffic record",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *TrafficHandler) UpdateTraffic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid traffic record id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req models.UpdateTrafficRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	var date *time.Time
	if req.Date != "" {
		parsed, err := services.ParseCellDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid date",
				Message: "date must be a calendar date, e.g. 2024-01-31",
				Code:    http.StatusBadRequest,
			})
			return
		}
		date = &parsed
	}

	record, err := h.traffic.Update(uint(id), req.ContractID, date, req.TrafficVolume, req.Revenue, req.ServiceType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "traffic record not found",
				Message: "traffic record not found",
				Code:    http.StatusNotFound,
			})
		case store.IsDuplicateKey(err):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "traffic_exists",
				Message: "a traffic entry for this contract id and date already exists",
				Code:    http.StatusConflict,
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "database error",
				Message: "failed to update traffic record",
				Code:    http.StatusInternalServerError,
			})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *TrafficHandler) DeleteTraffic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid id",
			Message: "invalid traffic record id",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.traffic.Delete(uint(id)); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "traffic record not found",
				Message: "traffic record not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to delete traffic record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "traffic record deleted successfully"})
}

// RevertLastUpload deletes every traffic record of the most recent
// bulk-import batch.
func (h *TrafficHandler) RevertLastUpload(c *gin.Context) {
	batchID, deleted, err := h.traffic.RevertLastUpload()
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "no uploads",
				Message: "no bulk uploads to revert",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to revert last upload",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"deleted":  deleted,
	})
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter. On a
// malformed value it writes the error response and returns ok=false.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid date",
			Message: name + " must be formatted YYYY-MM-DD",
			Code:    http.StatusBadRequest,
		})
		return nil, false
	}
	return &t, true
}
