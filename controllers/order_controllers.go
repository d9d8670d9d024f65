package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/kds"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> ubah cart sesi menjadi order; send_to_kitchen langsung ke dapur
func (oc *OrderController) CreateOrder(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	var req struct {
		SendToKitchen    bool `json:"send_to_kitchen"`
		EstimatedMinutes *int `json:"estimated_minutes"`
	}
	// body boleh kosong, termasuk body chunked tanpa Content-Length
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	initial := models.OrderStatusPending
	if req.SendToKitchen {
		initial = models.OrderStatusPreparing
	}

	res, err := oc.Orders.CreateFromCart(c.Request.Context(), sc, initial, req.EstimatedMinutes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastStaffNotification(fmt.Sprintf("New order #%d from table %s", res.Order.ID, sc.TableID))

	message := "Order created"
	if !res.CartCleared {
		message = "Order created, but the cart could not be cleared"
	}
	utils.RespondJSON(c, http.StatusCreated, message, res)
}

// GetSessionOrders -> order milik sesi customer ini
func (oc *OrderController) GetSessionOrders(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	orders, err := oc.Orders.ListForSession(c.Request.Context(), sc)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// ConfirmPickup -> customer mengambil pesanan yang sudah ready
func (oc *OrderController) ConfirmPickup(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.TransitionForSession(c.Request.Context(), sc, id, models.OrderStatusCompleted)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order picked up", order)
}

// GetAllOrders -> list orders; archived hanya dengan include_archived=true
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("include_archived", "false"))
	filter := store.OrderFilter{
		IncludeArchived: includeArchived,
		TableNumber:     c.Query("table"),
		SessionCode:     c.Query("session"),
		Status:          models.OrderStatus(c.Query("status")),
	}

	orders, err := oc.Orders.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail 1 order, termasuk yang archived
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", gin.H{
		"order":       order,
		"next_status": services.AllowedTransitions(order.Status, services.ActorStaff),
	})
}

// UpdateOrderStatus -> staff memindahkan status order
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Transition(c.Request.Context(), id, body.Status, services.ActorStaff)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// ReplaceOrderItems -> koreksi item order oleh staff
func (oc *OrderController) ReplaceOrderItems(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Items []services.ItemInput `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.ReplaceItems(c.Request.Context(), id, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order items updated", order)
}

// KitchenDisplay -> papan dapur, order yang belum archived
func (oc *OrderController) KitchenDisplay(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Kitchen display", oc.Orders.KitchenDisplay())
}
