package client

import (
	"context"
	"sync"
	"sync/atomic"

	"UFresher/internal/model"
)

// SessionState 某一时刻的登录态快照
type SessionState struct {
	User    *model.User
	Session *model.Session
	Loading bool
}

// SessionMirror 在本地镜像登录态：启动时向服务端确认一次，之后跟随认证事件更新
type SessionMirror struct {
	c *Client

	mu    sync.RWMutex
	state SessionState

	alive atomic.Bool
	unsub func()
}

func NewSessionMirror(c *Client) *SessionMirror {
	return &SessionMirror{c: c, state: SessionState{Loading: true}}
}

// Start 先订阅再检查，避免漏掉检查期间发生的事件
func (m *SessionMirror) Start(ctx context.Context) {
	m.mu.Lock()
	m.alive.Store(true)
	m.mu.Unlock()
	m.unsub = m.c.OnAuthStateChange(m.onAuthChange)

	sess, err := m.c.GetSession(ctx)
	if !m.alive.Load() {
		return
	}
	if err != nil || sess == nil || sess.User == nil {
		m.set(nil)
		return
	}
	m.set(sess)
}

func (m *SessionMirror) onAuthChange(event string, sess *model.Session) {
	if !m.alive.Load() {
		return
	}
	if event == SignedOut || sess == nil || sess.User == nil {
		m.set(nil)
		return
	}
	m.set(sess)
}

// set 持锁后再确认 alive，与 Close 互斥
func (m *SessionMirror) set(sess *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive.Load() {
		return
	}
	if sess == nil {
		m.state = SessionState{}
		return
	}
	m.state = SessionState{User: sess.User, Session: sess}
}

func (m *SessionMirror) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *SessionMirror) IsAuthenticated() bool {
	st := m.State()
	return st.User != nil && st.Session != nil
}

// Close 之后到达的回调全部忽略
func (m *SessionMirror) Close() {
	m.mu.Lock()
	m.alive.Store(false)
	m.mu.Unlock()
	if m.unsub != nil {
		m.unsub()
	}
}
