package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/middlewares"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

type CustomerController struct {
	Sessions *services.SessionService
	Guard    *services.Guard
	Store    store.Store
}

func NewCustomerController(app *services.App) *CustomerController {
	return &CustomerController{Sessions: app.Sessions, Guard: app.Guard, Store: app.Store}
}

// TerminalLanding -> info terminal sebelum customer mengisi nama dan nomor HP
func (cc *CustomerController) TerminalLanding(c *gin.Context) {
	table, err := cc.Sessions.GetTable(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !table.IsTerminal() {
		respondServiceError(c, services.ErrNotTerminal)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Terminal", gin.H{
		"table_id": table.TableID,
		"name":     table.Name,
		"fields":   []string{"name", "phone"},
	})
}

// TerminalEntry -> setiap kunjungan terminal mendapat sesi baru
func (cc *CustomerController) TerminalEntry(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	visit, err := cc.Sessions.RegisterTerminalVisit(c.Request.Context(), c.Param("table_id"), req.Name, req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session created", visit)
}

// CheckSession -> apakah kode sesi masih aktif
func (cc *CustomerController) CheckSession(c *gin.Context) {
	code := c.Query("session")
	if code == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("session is required"))
		return
	}

	var active bool
	if table := c.Query("table"); table != "" {
		active = cc.Sessions.CheckActiveForTable(c.Request.Context(), table, code)
	} else {
		active = cc.Sessions.CheckActive(c.Request.Context(), code)
	}
	utils.RespondJSON(c, http.StatusOK, "Session status", gin.H{"active": active})
}

// GuardState -> keputusan guard untuk halaman customer, selalu 200
func (cc *CustomerController) GuardState(c *gin.Context) {
	sc := services.NewSessionContext(c.Query("table"), c.Query("session"))
	decision := cc.Guard.Evaluate(c.Request.Context(), sc)
	utils.RespondJSON(c, http.StatusOK, string(decision.State), decision)
}

// CurrentSession -> detail sesi customer yang sedang aktif
func (cc *CustomerController) CurrentSession(c *gin.Context) {
	sc, ok := middlewares.CurrentSession(c)
	if !ok {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	data := gin.H{
		"table_id":     sc.TableID,
		"session_code": sc.SessionCode,
		"session_id":   sc.SessionID(),
	}
	customer, err := cc.Store.GetCustomer(c.Request.Context(), sc.SessionCode)
	switch {
	case err == nil:
		data["customer"] = customerView(customer)
	case !errors.Is(err, store.ErrNotFound):
		utils.ErrorLogger.WithField("session", sc.SessionCode).Errorf("loading terminal customer: %v", err)
	}
	utils.RespondJSON(c, http.StatusOK, "Active session", data)
}

func customerView(customer *models.Customer) gin.H {
	return gin.H{"name": customer.Name, "phone": customer.Phone}
}
