package kds

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliosud/yummo4-sub000/utils"
)

// dial membuka koneksi client ke server yang mendaftarkan sisi server lewat register
func dial(t *testing.T, register func(*websocket.Conn)) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		register(conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("server never registered the connection")
	}
	return client
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSendToSessionReachesOnlyThatSession(t *testing.T) {
	utils.InitLogger()

	var serverA, serverB *websocket.Conn
	a := dial(t, func(c *websocket.Conn) { serverA = c; RegisterCustomer(c, "session-a") })
	b := dial(t, func(c *websocket.Conn) { serverB = c; RegisterCustomer(c, "session-b") })
	t.Cleanup(func() {
		UnregisterCustomer(serverA, "session-a")
		UnregisterCustomer(serverB, "session-b")
	})

	_, customers := Counts()
	assert.GreaterOrEqual(t, customers, 2)

	SendToSession("session-a", Message{Event: EventCartUpdate, Data: Hint{Entity: "cart_items", Key: "session-a", Action: "UPDATE"}})
	msg := read(t, a)
	assert.Equal(t, EventCartUpdate, msg.Event)

	SendToSession("session-b", Message{Event: EventSessionBlocked, Data: "ended"})
	msg = read(t, b)
	assert.Equal(t, EventSessionBlocked, msg.Event)
	assert.Equal(t, "ended", msg.Data)
}

func TestBroadcastReachesStaff(t *testing.T) {
	utils.InitLogger()

	var server *websocket.Conn
	chef := dial(t, func(c *websocket.Conn) { server = c; RegisterClient(c, "chef") })
	t.Cleanup(func() { UnregisterClient(server) })

	BroadcastTableDelete("7")
	msg := read(t, chef)
	assert.Equal(t, EventTableDelete, msg.Event)
	assert.Equal(t, map[string]interface{}{"table_id": "7"}, msg.Data)

	BroadcastStaffNotification("New order #1 from table 7")
	msg = read(t, chef)
	assert.Equal(t, EventStaffNotif, msg.Event)
}
