package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"CityTalk/global/config"
	chatmodel "CityTalk/module/chat/model"
	usermodel "CityTalk/module/user/model"
	"CityTalk/tools/ids"

	"github.com/stretchr/testify/require"
)

// ===== fakes =====

type fakeUserStore struct {
	mu       sync.RWMutex
	profiles map[string]*usermodel.UserProfile
	online   map[string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		profiles: make(map[string]*usermodel.UserProfile),
		online:   make(map[string]bool),
	}
}

func (f *fakeUserStore) addUser(userID string) *usermodel.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &usermodel.UserProfile{
		UserID:      userID,
		DisplayName: "User " + userID,
		AvatarURL:   "https://img.example.com/" + userID + ".png",
		Role:        usermodel.RoleUser,
	}
	f.profiles[userID] = p
	return p
}

func (f *fakeUserStore) GetProfile(_ context.Context, userID string) (*usermodel.UserProfile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profiles[userID], nil
}

func (f *fakeUserStore) MarkOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	return nil
}

func (f *fakeUserStore) MarkOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = false
	return nil
}

func (f *fakeUserStore) isOnline(userID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.online[userID]
}

type fakeRoomAuth struct {
	mu      sync.RWMutex
	members map[string]map[string]bool // room -> user
	err     error
}

func newFakeRoomAuth() *fakeRoomAuth {
	return &fakeRoomAuth{members: make(map[string]map[string]bool)}
}

func (f *fakeRoomAuth) grant(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[string]bool)
	}
	f.members[roomID][userID] = true
}

func (f *fakeRoomAuth) revoke(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], userID)
}

func (f *fakeRoomAuth) IsMember(_ context.Context, userID, roomID string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return false, f.err
	}
	return f.members[roomID][userID], nil
}

type fakeMessageStore struct {
	mu      sync.Mutex
	created []*chatmodel.Message
	err     error
}

func (f *fakeMessageStore) Create(_ context.Context, roomID string, sender *usermodel.UserProfile, content string) (*chatmodel.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	msg := &chatmodel.Message{
		MessageID: ids.GenerateString(),
		RoomID:    roomID,
		SenderID:  sender.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Sender:    sender,
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// ===== harness =====

func newTestServer(t *testing.T) (*Server, *fakeUserStore, *fakeRoomAuth, *fakeMessageStore) {
	t.Helper()
	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	fu := newFakeUserStore()
	fr := newFakeRoomAuth()
	fm := &fakeMessageStore{}
	return NewServer(cfg, fu, fr, fm), fu, fr, fm
}

// connect registers an already-authenticated client, bypassing the websocket
// handshake; WS stays nil so no pump runs and tests read c.Send directly.
func connect(t *testing.T, s *Server, fu *fakeUserStore, userID string) *Client {
	t.Helper()
	profile := fu.addUser(userID)
	c := NewClient(ids.GenerateString(), nil, "127.0.0.1", 64)
	c.UserID = userID
	c.Profile = profile
	s.handleConnect(c)
	return c
}

func dispatch(s *Server, c *Client, eventType, payloadJSON string) {
	s.disp.Dispatch(c, &Frame{Type: eventType, Payload: json.RawMessage(payloadJSON)})
}

// Frames a client receives can interleave: direct sends are synchronous while
// room broadcasts go through the async fanout. The helpers below stash frames
// of other types instead of discarding them, so assertion order in a test does
// not have to match arrival order.
var (
	pendingMu sync.Mutex
	pending   = map[*Client][]*Frame{}
)

func takePending(c *Client, eventType string) *Frame {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	queue := pending[c]
	for i, f := range queue {
		if f.Type == eventType {
			pending[c] = append(queue[:i:i], queue[i+1:]...)
			return f
		}
	}
	return nil
}

func stash(c *Client, f *Frame) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pending[c] = append(pending[c], f)
}

// awaitFrame returns the next frame of the wanted type, stashed or live.
func awaitFrame(t *testing.T, c *Client, eventType string) *Frame {
	t.Helper()
	if f := takePending(c, eventType); f != nil {
		return f
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-c.Send:
			f, err := ParseFrame(raw)
			require.NoError(t, err)
			if f.Type == eventType {
				return f
			}
			stash(c, f)
		case <-deadline:
			t.Fatalf("timed out waiting for %s frame", eventType)
			return nil
		}
	}
}

// refuteFrame fails if a frame of the given type was stashed or shows up
// within a settle period.
func refuteFrame(t *testing.T, c *Client, eventType string) {
	t.Helper()
	require.Nil(t, takePending(c, eventType), "unexpected %s frame", eventType)
	settle := time.After(150 * time.Millisecond)
	for {
		select {
		case raw := <-c.Send:
			f, err := ParseFrame(raw)
			require.NoError(t, err)
			require.NotEqual(t, eventType, f.Type, "unexpected %s frame", eventType)
			stash(c, f)
		case <-settle:
			return
		}
	}
}

func payloadInto(t *testing.T, f *Frame, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(f.Payload, dst))
}

func joinRoom(t *testing.T, s *Server, c *Client, roomID string) {
	t.Helper()
	dispatch(s, c, EventJoin, fmt.Sprintf(`{"roomId":%q}`, roomID))
	awaitFrame(t, c, EventJoined)
}
