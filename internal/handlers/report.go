package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/services"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	traffic *store.TrafficStore
}

func NewReportHandler(traffic *store.TrafficStore) *ReportHandler {
	return &ReportHandler{traffic: traffic}
}

// GetMonthWise returns the contract-by-month matrix for the filtered
// dataset, with the orphan diagnostic alongside.
func (h *ReportHandler) GetMonthWise(c *gin.Context) {
	filter, topN, ok := h.parseQuery(c)
	if !ok {
		return
	}

	joined, err := h.traffic.QueryJoined(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve report data",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	report := services.BuildMonthWise(joined.Records, topN)
	c.JSON(http.StatusOK, gin.H{
		"report":             report,
		"orphaned_count":     joined.OrphanedCount,
		"orphaned_contracts": joined.OrphanedContracts,
	})
}

func (h *ReportHandler) GetConsolidated(c *gin.Context) {
	filter, topN, ok := h.parseQuery(c)
	if !ok {
		return
	}

	joined, err := h.traffic.QueryJoined(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve report data",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	report := services.BuildConsolidated(joined.Records, topN)
	c.JSON(http.StatusOK, gin.H{
		"report":             report,
		"orphaned_count":     joined.OrphanedCount,
		"orphaned_contracts": joined.OrphanedContracts,
	})
}

// ExportMonthWise streams the month-wise report as an xlsx attachment.
func (h *ReportHandler) ExportMonthWise(c *gin.Context) {
	filter, topN, ok := h.parseQuery(c)
	if !ok {
		return
	}

	joined, err := h.traffic.QueryJoined(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve report data",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	report := services.BuildMonthWise(joined.Records, topN)
	data, err := services.ExportMonthWise(report, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	writeWorkbook(c, "monthwise-report.xlsx", data)
}

func (h *ReportHandler) ExportConsolidated(c *gin.Context) {
	filter, topN, ok := h.parseQuery(c)
	if !ok {
		return
	}

	joined, err := h.traffic.QueryJoined(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database error",
			Message: "failed to retrieve report data",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	report := services.BuildConsolidated(joined.Records, topN)
	data, err := services.ExportConsolidated(report, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	writeWorkbook(c, "consolidated-report.xlsx", data)
}

func (h *ReportHandler) parseQuery(c *gin.Context) (models.ReportFilter, int, bool) {
	var filter models.ReportFilter

	start, ok := parseDateQuery(c, "start_date")
	if !ok {
		return filter, 0, false
	}
	end, ok := parseDateQuery(c, "end_date")
	if !ok {
		return filter, 0, false
	}

	filter.StartDate = start
	filter.EndDate = end
	filter.ServiceType = c.Query("service_type")
	filter.OfficeName = c.Query("office_name")
	filter.PaymentType = c.Query("payment_type")
	filter.CustomerID = c.Query("customer_id")
	filter.ContractID = c.Query("contract_id")

	topN := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid top",
				Message: "top must be a non-negative number",
				Code:    http.StatusBadRequest,
			})
			return filter, 0, false
		}
		topN = n
	}
	return filter, topN, true
}

func writeWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
