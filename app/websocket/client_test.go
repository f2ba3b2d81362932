package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedFixture serves /ws and pushes every queued message to the first
// subscriber that connects. The returned channel is closed on test cleanup
// so the handler never outlives the test.
func feedFixture(t *testing.T) (string, chan Message) {
	t.Helper()

	outbound := make(chan Message, 8)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for msg := range outbound {
			data, err := json.Marshal(msg)
			require.NoError(t, err)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(outbound) })

	return strings.TrimPrefix(server.URL, "http://"), outbound
}

func changeMessage(t *testing.T, table string, action Action, record interface{}) Message {
	t.Helper()

	data, err := json.Marshal(record)
	require.NoError(t, err)
	payload, err := json.Marshal(ChangeEvent{
		Table:     table,
		Action:    action,
		New:       data,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	return Message{Type: TypeChange, Timestamp: time.Now().UTC(), Data: payload}
}

func TestFeedClientDispatchesByTable(t *testing.T) {
	host, outbound := feedFixture(t)

	client, err := Dial(host, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	orders := make(chan ChangeEvent, 2)
	_, err = client.Subscribe(TableOrders, func(e ChangeEvent) { orders <- e })
	require.NoError(t, err)

	outbound <- changeMessage(t, TableMenuItems, ActionUpdate, map[string]interface{}{"id": 9})
	outbound <- changeMessage(t, TableOrders, ActionInsert, map[string]interface{}{"id": 1, "total": 30000})

	select {
	case event := <-orders:
		assert.Equal(t, TableOrders, event.Table)
		assert.Equal(t, ActionInsert, event.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("order event never delivered")
	}

	// The menu event went to an unsubscribed table and was dropped
	select {
	case event := <-orders:
		t.Fatalf("unexpected event for table %s", event.Table)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFeedClientHeartbeatIgnored(t *testing.T) {
	host, outbound := feedFixture(t)

	client, err := Dial(host, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	events := make(chan ChangeEvent, 1)
	_, err = client.Subscribe(TableOrders, func(e ChangeEvent) { events <- e })
	require.NoError(t, err)

	outbound <- Message{Type: TypeHeartbeat, Timestamp: time.Now().UTC()}
	outbound <- changeMessage(t, TableOrders, ActionDelete, map[string]interface{}{"id": 3})

	select {
	case event := <-events:
		assert.Equal(t, ActionDelete, event.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("change event never delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	host, outbound := feedFixture(t)

	client, err := Dial(host, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	events := make(chan ChangeEvent, 2)
	sub, err := client.Subscribe(TableOrders, func(e ChangeEvent) { events <- e })
	require.NoError(t, err)

	outbound <- changeMessage(t, TableOrders, ActionInsert, map[string]interface{}{"id": 1})
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("first event never delivered")
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // double release is safe

	outbound <- changeMessage(t, TableOrders, ActionInsert, map[string]interface{}{"id": 2})
	select {
	case <-events:
		t.Fatal("event delivered after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscribeAfterCloseFails(t *testing.T) {
	host, _ := feedFixture(t)

	client, err := Dial(host, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = client.Subscribe(TableOrders, func(ChangeEvent) {})
	assert.Error(t, err)
}
