package ws_test

import (
	"testing"
	"time"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/ws"

	"github.com/stretchr/testify/mock"
)

// fakeConn is a channel-backed ws.Conn for driving the hub in tests.
type fakeConn struct {
	id     string
	events chan ws.Event
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, events: make(chan ws.Event, 64)}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Enqueue(ev ws.Event) bool {
	select {
	case f.events <- ev:
		return true
	default:
		return false
	}
}

func (f *fakeConn) Close() {}

// nextEvent pops the connection's next event, failing the test on timeout.
func nextEvent(t *testing.T, c *fakeConn) ws.Event {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("connection %s: timed out waiting for an event", c.id)
		return ws.Event{}
	}
}

// awaitRoster reads events until a get_online_users broadcast carrying
// exactly want arrives. Intermediate events are discarded.
func awaitRoster(t *testing.T, c *fakeConn, want []string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			if ev.Event != ws.EventOnlineUsers {
				continue
			}
			got, ok := ev.Data.([]string)
			if !ok {
				t.Fatalf("roster payload has type %T", ev.Data)
			}
			if equalRoster(got, want) {
				return
			}
		case <-deadline:
			t.Fatalf("connection %s: roster %v never arrived", c.id, want)
		}
	}
}

// awaitMessage reads events until a receive_message arrives.
func awaitMessage(t *testing.T, c *fakeConn) *models.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			if ev.Event != ws.EventReceiveMessage {
				continue
			}
			msg, ok := ev.Data.(*models.Message)
			if !ok {
				t.Fatalf("message payload has type %T", ev.Data)
			}
			return msg
		case <-deadline:
			t.Fatalf("connection %s: receive_message never arrived", c.id)
			return nil
		}
	}
}

// assertNoMessage asserts that no receive_message shows up within the
// window. Roster and typing traffic is ignored.
func assertNoMessage(t *testing.T, c *fakeConn) {
	t.Helper()
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case ev := <-c.events:
			if ev.Event == ws.EventReceiveMessage {
				t.Fatalf("connection %s: unexpected receive_message %+v", c.id, ev.Data)
			}
		case <-deadline:
			return
		}
	}
}

// awaitSendError reads events until a send_error ack arrives.
func awaitSendError(t *testing.T, c *fakeConn) ws.SendError {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			if ev.Event != ws.EventSendError {
				continue
			}
			payload, ok := ev.Data.(ws.SendError)
			if !ok {
				t.Fatalf("send_error payload has type %T", ev.Data)
			}
			return payload
		case <-deadline:
			t.Fatalf("connection %s: send_error never arrived", c.id)
			return ws.SendError{}
		}
	}
}

// awaitTyping reads events until a typing_status arrives.
func awaitTyping(t *testing.T, c *fakeConn) ws.TypingStatus {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			if ev.Event != ws.EventTypingStatus {
				continue
			}
			status, ok := ev.Data.(ws.TypingStatus)
			if !ok {
				t.Fatalf("typing payload has type %T", ev.Data)
			}
			return status
		case <-deadline:
			t.Fatalf("connection %s: typing_status never arrived", c.id)
			return ws.TypingStatus{}
		}
	}
}

// assertNoTyping asserts that no typing_status shows up within the window.
func assertNoTyping(t *testing.T, c *fakeConn) {
	t.Helper()
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case ev := <-c.events:
			if ev.Event == ws.EventTypingStatus {
				t.Fatalf("connection %s: unexpected typing_status %+v", c.id, ev.Data)
			}
		case <-deadline:
			return
		}
	}
}

func equalRoster(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// MockMessageStore mocks the hub's persistence dependency.
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Send(senderID, receiverID, content string, ts time.Time) (*models.Message, error) {
	args := m.Called(senderID, receiverID, content, ts)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// storedMessage builds the record the mock store hands back.
func storedMessage(id uint, sender, receiver, content string) *models.Message {
	return &models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Timestamp:  time.Now(),
	}
}

// MockDirectory mocks the display-name lookup.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) DisplayName(id string) (string, bool) {
	args := m.Called(id)
	return args.String(0), args.Bool(1)
}

// silentDirectory answers every lookup with a miss.
func silentDirectory() *MockDirectory {
	d := new(MockDirectory)
	d.On("DisplayName", mock.Anything).Return("", false)
	return d
}
