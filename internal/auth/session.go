package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/model"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound 会话不存在或已过期
	ErrSessionNotFound = errors.New("session not found")
)

// Session 登录会话，只保存在进程内存中
type Session struct {
	Token     string     `json:"-"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// SessionStore 会话存储
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	users    map[string]config.UserConfig
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore 根据配置的账号创建会话存储
func NewSessionStore(cfg config.AuthConfig) *SessionStore {
	users := make(map[string]config.UserConfig, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u
	}
	ttl := time.Duration(cfg.SessionTTL) * time.Minute
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		users:    users,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login 校验账号并创建会话
func (s *SessionStore) Login(username, password string) (*Session, error) {
	user, ok := s.users[username]
	if !ok || user.Password != password || !model.Role(user.Role).Valid() {
		return nil, ErrInvalidCredentials
	}

	session := &Session{
		Token:     uuid.NewString(),
		Username:  user.Username,
		Role:      model.Role(user.Role),
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session, nil
}

// Issue 直接为指定用户和角色创建会话，测试和内部调用使用
func (s *SessionStore) Issue(username string, role model.Role) *Session {
	session := &Session{
		Token:     uuid.NewString(),
		Username:  username,
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session
}

// Get 获取未过期的会话
func (s *SessionStore) Get(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(session.ExpiresAt) {
		s.Logout(token)
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Logout 删除会话
func (s *SessionStore) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// TTL 会话有效期
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
