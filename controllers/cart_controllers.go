package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/middlewares"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

func sessionOf(c *gin.Context) (services.SessionContext, bool) {
	sc, ok := middlewares.CurrentSession(c)
	if !ok {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
	}
	return sc, ok
}

func (cc *CartController) GetCart(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	cart, err := cc.Carts.Get(c.Request.Context(), sc)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", cart)
}

// AddItem -> tambah satu porsi menu ke cart
func (cc *CartController) AddItem(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	var req struct {
		MenuItemID uint `json:"menu_item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.Add(c.Request.Context(), sc, req.MenuItemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added", cart)
}

// RemoveItem -> kurangi satu porsi, hapus baris jika tinggal satu
func (cc *CartController) RemoveItem(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	menuItemID, ok := paramID(c, "menu_item_id")
	if !ok {
		return
	}

	cart, err := cc.Carts.Remove(c.Request.Context(), sc, menuItemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", cart)
}

func (cc *CartController) SetQuantity(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	menuItemID, ok := paramID(c, "menu_item_id")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.SetQuantity(c.Request.Context(), sc, menuItemID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Quantity updated", cart)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	sc, ok := sessionOf(c)
	if !ok {
		return
	}
	if err := cc.Carts.Clear(c.Request.Context(), sc); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", nil)
}
