package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/juliosud/yummo4-sub000/middlewares"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

type MenuController struct {
	Store store.Store
}

func NewMenuController(s store.Store) *MenuController {
	return &MenuController{Store: s}
}

// GetAllMenus -> menu yang tersedia untuk dipesan
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	menus, err := mc.Store.ListMenuItems(c.Request.Context(), true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// MenuPage -> halaman menu customer, hanya terbuka setelah SessionGuard
func (mc *MenuController) MenuPage(c *gin.Context) {
	sc, ok := middlewares.CurrentSession(c)
	if !ok {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	menus, err := mc.Store.ListMenuItems(c.Request.Context(), true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"table_id":     sc.TableID,
		"session_code": sc.SessionCode,
		"menus":        menus,
	})
}

// CreateMenu
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		Name        string          `json:"name" binding:"required"`
		Category    string          `json:"category"`
		Price       decimal.Decimal `json:"price"`
		Description string          `json:"description"`
		ImageURL    string          `json:"image_url"`
		Available   *bool           `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if !req.Price.IsPositive() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("price must be positive"))
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	now := time.Now()
	menu := models.Menu{
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Price:       req.Price.Round(2),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Available:   available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := mc.Store.CreateMenuItem(c.Request.Context(), &menu); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.WithField("menu", menu.ID).Infof("Menu created: %s", menu.Name)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}
