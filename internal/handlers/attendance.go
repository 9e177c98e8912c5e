// internal/handlers/attendance.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ag1104/attendance-system/internal/attendance"
	"github.com/Ag1104/attendance-system/internal/middleware"
	"github.com/Ag1104/attendance-system/internal/models"
	"github.com/Ag1104/attendance-system/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var writeReport = report.WriteAttendance

type AttendanceHandler struct {
	Svc *attendance.Service
}

type SignInRequest struct {
	StaffID   string   `json:"staff_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func NewAttendanceHandler(svc *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{Svc: svc}
}

func internalError(c *gin.Context, what string, err error) {
	log.Printf("%s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}

func (h *AttendanceHandler) Index(c *gin.Context) {
	if err := h.Svc.EnsureLedger(c.Request.Context()); err != nil {
		internalError(c, "prepare ledger", err)
		return
	}
	cfg := h.Svc.Config()
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Radius":    cfg.AllowedRadius,
		"Start":     cfg.SignInStart.String()[:5],
		"OnTimeEnd": cfg.OnTimeEnd.String()[:5],
	})
}

func (h *AttendanceHandler) Staff(c *gin.Context) {
	dir, err := h.Svc.Staff()
	if err != nil {
		internalError(c, "load staff", err)
		return
	}
	c.JSON(http.StatusOK, dir)
}

func (h *AttendanceHandler) SignedToday(c *gin.Context) {
	ids, err := h.Svc.SignedToday(c.Request.Context())
	if err != nil {
		internalError(c, "list signed today", err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

func (h *AttendanceHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "detail": err.Error()})
		return
	}

	addr := middleware.Address(c)
	res, err := h.Svc.SignIn(c.Request.Context(), attendance.SignInRequest{
		StaffID:   req.StaffID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   addr,
	})
	if err != nil {
		var rej *attendance.RejectionError
		if errors.As(err, &rej) {
			log.Printf("sign-in rejected staff=%q ip=%s: %s", strings.TrimSpace(req.StaffID), addr, rej.Message)
			c.JSON(rej.Status, gin.H{"message": rej.Message})
			return
		}
		internalError(c, "sign-in", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": res.Message,
		"time":    res.Time,
		"status":  res.Status,
	})
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *AttendanceHandler) dateParam(c *gin.Context) (string, bool) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		return h.Svc.Today(), true
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func (h *AttendanceHandler) ListByDate(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	rows, err := h.Svc.Entries(c.Request.Context(), date)
	if err != nil {
		internalError(c, "load entries", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AttendanceHandler) Export(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	rows, err := h.Svc.Entries(c.Request.Context(), date)
	if err != nil {
		internalError(c, "load entries", err)
		return
	}
	dir, err := h.Svc.Staff()
	if err != nil {
		internalError(c, "load staff", err)
		return
	}

	// The workbook is rendered in full first so a failure can still be
	// reported as a 500 instead of a truncated download.
	var buf bytes.Buffer
	if err := writeReport(&buf, date, rows, dir); err != nil {
		internalError(c, "export "+date, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, date))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
