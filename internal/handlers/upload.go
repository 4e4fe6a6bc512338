package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/excel"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UploadHandler receives spreadsheet files and runs the importers.
type UploadHandler struct {
	customerImporter *services.CustomerImporter
	trafficImporter  *services.TrafficImporter
	maxUploadBytes   int64
}

func NewUploadHandler(customerImporter *services.CustomerImporter, trafficImporter *services.TrafficImporter, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		customerImporter: customerImporter,
		trafficImporter:  trafficImporter,
		maxUploadBytes:   maxUploadBytes,
	}
}

func (h *UploadHandler) ImportCustomers(c *gin.Context) {
	h.runImport(c, func(f io.Reader) (*services.ImportResult, error) {
		return h.customerImporter.Import(f)
	})
}

func (h *UploadHandler) ImportTraffic(c *gin.Context) {
	h.runImport(c, func(f io.Reader) (*services.ImportResult, error) {
		return h.trafficImporter.Import(f)
	})
}

func (h *UploadHandler) runImport(c *gin.Context, do func(io.Reader) (*services.ImportResult, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing file",
			Message: "multipart 'file' field is required",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "file too large",
			Message: "uploaded file exceeds the allowed size",
			Code:    http.StatusRequestEntityTooLarge,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unreadable file",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer f.Close()

	result, err := do(f)
	if err != nil {
		if errors.Is(err, excel.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid excel file",
				Message: "please upload a valid Excel file (.xlsx or .xls)",
				Code:    http.StatusBadRequest,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "import failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
