package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/utils"
)

// Event types
const (
	EventOrderUpdate     = "order_update"
	EventKitchenUpdate   = "kitchen_update"
	EventTableUpdate     = "table_update"
	EventStaffNotif      = "staff_notification"
	EventTableCreate     = "table_create"
	EventTableDelete     = "table_delete"
	EventSessionUpdate   = "session_update"
	EventCartUpdate      = "cart_update"
	EventSessionBlocked  = "session_blocked"
	EventSessionState    = "session_state"
	EventDashboardUpdate = "dashboard_update"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hint tells a client which record changed so it can re-fetch it. Hints are
// idempotent; clients never apply them as deltas.
type Hint struct {
	Entity string `json:"entity"`
	Key    string `json:"key"`
	Action string `json:"action"`
	Table  string `json:"table,omitempty"`
}

// KDSHub menampung client staff (chef, staff, admin) dan client customer per sesi
type KDSHub struct {
	clients   map[*websocket.Conn]string          // conn -> role
	customers map[string]map[*websocket.Conn]bool // session id -> conns
	mutex     sync.Mutex
}

var kdsHub = KDSHub{
	clients:   make(map[*websocket.Conn]string),
	customers: make(map[string]map[*websocket.Conn]bool),
}

// RegisterClient -> menambahkan connection staff dengan role
func RegisterClient(conn *websocket.Conn, role string) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	kdsHub.clients[conn] = role
}

// UnregisterClient -> melepaskan connection staff
func UnregisterClient(conn *websocket.Conn) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	delete(kdsHub.clients, conn)
	conn.Close()
}

// RegisterCustomer -> connection customer untuk satu sesi meja
func RegisterCustomer(conn *websocket.Conn, sessionID string) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	conns, ok := kdsHub.customers[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]bool)
		kdsHub.customers[sessionID] = conns
	}
	conns[conn] = true
}

func UnregisterCustomer(conn *websocket.Conn, sessionID string) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	if conns, ok := kdsHub.customers[sessionID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(kdsHub.customers, sessionID)
		}
	}
	conn.Close()
}

// Counts returns the number of connected staff and customer sockets.
func Counts() (staff, customers int) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	for _, conns := range kdsHub.customers {
		customers += len(conns)
	}
	return len(kdsHub.clients), customers
}

// Send menulis satu pesan ke satu connection. Semua write lewat mutex hub
// karena gorilla/websocket tidak mendukung writer paralel.
func Send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// SendToSession -> kirim pesan ke semua customer di satu sesi
func SendToSession(sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	for conn := range kdsHub.customers[sessionID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("session_id", sessionID).Errorf("Error sending message to customer: %v", err)
		}
	}
}

// BroadcastOrderUpdate -> menyiarkan update order ke semua staff
func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{
		Event: EventOrderUpdate,
		Data:  order,
	})
}

// BroadcastKitchenUpdate -> update untuk chef
func BroadcastKitchenUpdate(data interface{}) {
	broadcast(Message{
		Event: EventKitchenUpdate,
		Data:  data,
	})
}

// BroadcastTableUpdate -> update status meja
func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{
		Event: EventTableUpdate,
		Data:  table,
	})
}

// BroadcastTableCreate -> notifikasi meja baru dibuat
func BroadcastTableCreate(table models.Table) {
	broadcast(Message{
		Event: EventTableCreate,
		Data:  table,
	})
}

// BroadcastTableDelete -> notifikasi meja dihapus
func BroadcastTableDelete(tableID string) {
	broadcast(Message{
		Event: EventTableDelete,
		Data:  map[string]string{"table_id": tableID},
	})
}

// BroadcastStaffNotification -> notifikasi untuk staff
func BroadcastStaffNotification(message string) {
	broadcast(Message{
		Event: EventStaffNotif,
		Data:  message,
	})
}

// BroadcastMessage -> broadcast pesan umum ke staff
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

// broadcast -> fungsi internal untuk mengirim pesan ke semua staff
func broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{"event": msg.Event, "clients": len(kdsHub.clients)}).Debug("Broadcasting message")
	for conn, role := range kdsHub.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("role", role).Errorf("Error sending message to client: %v", err)
		}
	}
}
