package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/kds"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

type AdminController struct {
	Sessions *services.SessionService
	Orders   *services.OrderService
}

func NewAdminController(app *services.App) *AdminController {
	return &AdminController{Sessions: app.Sessions, Orders: app.Orders}
}

type dashboardStats struct {
	TableStats struct {
		Total          int `json:"total"`
		Regular        int `json:"regular"`
		Terminal       int `json:"terminal"`
		ActiveSessions int `json:"active_sessions"`
		ActiveTerminal int `json:"active_terminal"`
		Available      int `json:"available"`
		Occupied       int `json:"occupied"`
		Reserved       int `json:"reserved"`
	} `json:"table_stats"`
	// order aktif per status, dari papan dapur
	OrderStats  map[models.OrderStatus]int `json:"order_stats"`
	Connections struct {
		Staff     int `json:"staff"`
		Customers int `json:"customers"`
	} `json:"connections"`
}

// GetDashboardStats mengambil statistik untuk dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	tables, err := ac.Sessions.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var stats dashboardStats
	for _, t := range tables {
		stats.TableStats.Total++
		if t.IsTerminal() {
			stats.TableStats.Terminal++
		} else {
			stats.TableStats.Regular++
		}
		if t.SessionActive {
			stats.TableStats.ActiveSessions++
			if t.IsTerminal() {
				stats.TableStats.ActiveTerminal++
			}
		}
		switch t.Status {
		case models.TableStatusAvailable:
			stats.TableStats.Available++
		case models.TableStatusOccupied:
			stats.TableStats.Occupied++
		case models.TableStatusReserved:
			stats.TableStats.Reserved++
		}
	}

	stats.OrderStats = map[models.OrderStatus]int{
		models.OrderStatusPending:   0,
		models.OrderStatusPreparing: 0,
		models.OrderStatusReady:     0,
		models.OrderStatusCompleted: 0,
	}
	for _, o := range ac.Orders.KitchenDisplay() {
		stats.OrderStats[o.Status]++
	}
	stats.Connections.Staff, stats.Connections.Customers = kds.Counts()

	// Broadcast stats update
	kds.BroadcastMessage(kds.Message{
		Event: kds.EventDashboardUpdate,
		Data:  stats,
	})

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}
