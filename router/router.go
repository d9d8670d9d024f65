package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/config"
	"github.com/juliosud/yummo4-sub000/controllers"
	"github.com/juliosud/yummo4-sub000/middlewares"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

func SetupRouter(app *services.App, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSAllowedOrigins))
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(app.Store)
	tableCtrl := controllers.NewTableController(app.Sessions)
	customerCtrl := controllers.NewCustomerController(app)
	menuCtrl := controllers.NewMenuController(app.Store)
	cartCtrl := controllers.NewCartController(app.Carts)
	orderCtrl := controllers.NewOrderController(app.Orders)
	adminCtrl := controllers.NewAdminController(app)
	socketCtrl := controllers.NewSessionSocketController(app.Guard)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		if err := app.Store.Ping(c.Request.Context()); err != nil {
			utils.RespondError(c, http.StatusServiceUnavailable, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	// Lihat menu
	r.GET("/menus", menuCtrl.GetAllMenus)

	// Status sesi untuk halaman customer
	r.GET("/sessions/check", customerCtrl.CheckSession)
	r.GET("/sessions/guard", customerCtrl.GuardState)

	// Terminal: setiap kunjungan mendapat sesi baru
	r.GET("/term/:table_id", customerCtrl.TerminalLanding)
	r.POST("/term/:table_id", middlewares.NewStrictRateLimiter(), customerCtrl.TerminalEntry)

	// WebSocket customer, guard dicek di handler
	r.GET("/ws/session", socketCtrl.SessionSocket)

	// ----------------------------------------------------------------
	//                      CUSTOMER ROUTES (SessionGuard)
	// ----------------------------------------------------------------
	guard := middlewares.SessionGuard(app.Guard)
	r.GET("/menu", guard, menuCtrl.MenuPage)

	customer := r.Group("/customer")
	customer.Use(guard)
	{
		customer.GET("/session", customerCtrl.CurrentSession)

		customer.GET("/cart", cartCtrl.GetCart)
		customer.POST("/cart/items", cartCtrl.AddItem)
		customer.DELETE("/cart/items/:menu_item_id", cartCtrl.RemoveItem)
		customer.PUT("/cart/items/:menu_item_id", cartCtrl.SetQuantity)
		customer.DELETE("/cart", cartCtrl.ClearCart)

		customer.POST("/orders", orderCtrl.CreateOrder)
		customer.GET("/orders", orderCtrl.GetSessionOrders)
		customer.POST("/orders/:order_id/confirm-pickup", orderCtrl.ConfirmPickup)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())
	auth.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleChef))

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/users", middlewares.RequireRoles(models.RoleAdmin), userCtrl.Register)

	// TABLE
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/:table_id", tableCtrl.GetTable)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTableStatus)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// SESSIONS
	auth.POST("/tables/:table_id/sessions", tableCtrl.StartSession)
	auth.DELETE("/tables/:table_id/sessions", tableCtrl.EndSession)
	auth.GET("/tables/:table_id/sessions", tableCtrl.SessionHistory)
	auth.POST("/terminals/end-sessions", tableCtrl.EndAllTerminalSessions)

	// MENUS
	auth.POST("/menus", menuCtrl.CreateMenu)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.PUT("/orders/:order_id/items", orderCtrl.ReplaceOrderItems)

	// Routes untuk Chef
	auth.GET("/kitchen/display", orderCtrl.KitchenDisplay)

	// Routes untuk Admin
	auth.GET("/dashboard/stats", middlewares.RequireRoles(models.RoleAdmin), adminCtrl.GetDashboardStats)

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/:role", middlewares.RoleCheck(), controllers.KDSHandler)
	}

	return r
}
