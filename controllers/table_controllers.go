package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

type TableController struct {
	Sessions *services.SessionService
}

func NewTableController(sessions *services.SessionService) *TableController {
	return &TableController{Sessions: sessions}
}

// CreateTable -> menambahkan meja atau terminal baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req services.TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Sessions.CreateTable(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja beserta status sesi
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Sessions.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	table, err := tc.Sessions.GetTable(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTableStatus -> update status meja (available, occupied, reserved)
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Sessions.UpdateTableStatus(c.Request.Context(), c.Param("table_id"), body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// DeleteTable -> menghapus meja; sesi aktif butuh ?confirm=true
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")
	confirmed := c.Query("confirm") == "true"

	if err := tc.Sessions.DeleteTable(c.Request.Context(), tableID, confirmed); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"table_id": tableID})
}

// StartSession -> membuat kode sesi dan QR untuk meja
func (tc *TableController) StartSession(c *gin.Context) {
	res, err := tc.Sessions.StartSession(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", res)
}

// EndSession -> mengakhiri sesi meja
func (tc *TableController) EndSession(c *gin.Context) {
	tableID := c.Param("table_id")
	n, err := tc.Sessions.EndSession(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session ended", gin.H{"table_id": tableID, "sessions_ended": n})
}

func (tc *TableController) SessionHistory(c *gin.Context) {
	sessions, err := tc.Sessions.SessionHistory(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session history", sessions)
}

// EndAllTerminalSessions -> mengakhiri semua sesi terminal, wajib ?confirm=true
func (tc *TableController) EndAllTerminalSessions(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondServiceError(c, services.ErrConfirmationRequired)
		return
	}

	n, err := tc.Sessions.BulkEndAllTerminalSessions(c.Request.Context())
	if err != nil {
		utils.ErrorLogger.Errorf("bulk end terminal sessions: %v", err)
		utils.RespondErrorData(c, statusFor(err), err, gin.H{"terminals_ended": n})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Terminal sessions ended", gin.H{"terminals_ended": n})
}
