package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/juliosud/yummo4-sub000/kds"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin sudah dibatasi oleh CORS
	},
}

// KDSHandler -> websocket staff (chef, staff, admin)
func KDSHandler(c *gin.Context) {
	role := c.GetString("role")
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kds.RegisterClient(ws, role)

	// Baca pesan sampai client disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	kds.UnregisterClient(ws)
}

type SessionSocketController struct {
	Guard *services.Guard
}

func NewSessionSocketController(guard *services.Guard) *SessionSocketController {
	return &SessionSocketController{Guard: guard}
}

// SessionSocket -> websocket customer. Guard dicek ulang tiap interval; begitu
// sesi berakhir client menerima session_blocked dan koneksi ditutup.
func (sc *SessionSocketController) SessionSocket(c *gin.Context) {
	session := services.NewSessionContext(c.Query("table"), c.Query("session"))

	// cek dulu sebelum upgrade supaya client tanpa sesi mendapat 403 biasa
	first := sc.Guard.Evaluate(c.Request.Context(), session)
	if !first.Allowed() {
		utils.RespondErrorData(c, http.StatusForbidden, ErrNoPermission, first)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	sessionID := session.SessionID()
	kds.RegisterCustomer(ws, sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		decision := sc.Guard.Watch(ctx, session, func(d services.Decision) {
			event := kds.EventSessionState
			if !d.Allowed() {
				event = kds.EventSessionBlocked
			}
			if err := kds.Send(ws, kds.Message{Event: event, Data: d}); err != nil {
				utils.ErrorLogger.WithField("session_id", sessionID).Errorf("Error sending guard state: %v", err)
			}
		})
		if !decision.Allowed() && ctx.Err() == nil {
			// memutus read loop di bawah
			ws.Close()
		}
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	kds.UnregisterCustomer(ws, sessionID)
}
