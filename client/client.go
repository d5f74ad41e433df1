// Package client 是 UFresher API 的 Go SDK：封装登录态与各个列表视图的同步逻辑
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"UFresher/internal/model"

	"github.com/imroc/req/v3"
)

// 认证状态事件，与服务端 /api/auth/events 推送的事件名一致
const (
	SignedIn       = "SIGNED_IN"
	SignedOut      = "SIGNED_OUT"
	TokenRefreshed = "TOKEN_REFRESHED"
)

// AuthListener 登出时 session 为 nil
type AuthListener func(event string, session *model.Session)

// APIError 服务端错误响应 {"msg","error"}
type APIError struct {
	Status int    `json:"-"`
	Msg    string `json:"msg"`
	Kind   string `json:"error"`
	Field  string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Msg)
}

type Client struct {
	http *req.Client

	mu        sync.RWMutex
	session   *model.Session
	listeners map[uint64]AuthListener
	nextID    uint64
}

func New(baseURL string) *Client {
	return &Client{
		http: req.C().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetUserAgent("ufresher-go-client"),
		listeners: make(map[uint64]AuthListener),
	}
}

type listResult[T any] struct {
	List []T `json:"list"`
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var apiErr APIError
	r := c.http.R().SetContext(ctx).SetErrorResult(&apiErr)
	if body != nil {
		r.SetBody(body)
	}
	if out != nil {
		r.SetSuccessResult(out)
	}
	if tok := c.accessToken(); tok != "" {
		r.SetBearerAuthToken(tok)
	}
	resp, err := r.Send(method, path)
	if err != nil {
		return err
	}
	if resp.IsErrorState() {
		apiErr.Status = resp.StatusCode
		if apiErr.Msg == "" {
			apiErr.Msg = resp.Status
		}
		return &apiErr
	}
	return nil
}

// OnAuthStateChange 注册监听，返回的函数用于取消，可重复调用
func (c *Client) OnAuthStateChange(fn AuthListener) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// setSession 更新本地登录态并通知监听者
func (c *Client) setSession(event string, sess *model.Session) {
	c.mu.Lock()
	if event == SignedOut {
		sess = nil
	}
	// 刷新响应不带 refresh token 时沿用旧的
	if sess != nil && sess.RefreshToken == "" && c.session != nil {
		sess.RefreshToken = c.session.RefreshToken
	}
	c.session = sess
	fns := make([]AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, sess)
	}
}

// Session 当前本地保存的登录态
func (c *Client) Session() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
	College  string `json:"college,omitempty"`
	Stream   string `json:"stream,omitempty"`
}

// SendCode scope 为 register 或 reset
func (c *Client) SendCode(ctx context.Context, scope, email string) error {
	return c.do(ctx, http.MethodPost, "/api/email/"+scope+"/code", map[string]string{"email": email}, nil)
}

func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/api/user/register", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) SignIn(ctx context.Context, username, password string) (*model.Session, error) {
	var sess model.Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/user/login", body, &sess); err != nil {
		return nil, err
	}
	c.setSession(SignedIn, &sess)
	return &sess, nil
}

// SignOut 服务端调用失败时本地登录态也会清除
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.accessToken() != "" {
		err = c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	}
	c.setSession(SignedOut, nil)
	return err
}

func (c *Client) Refresh(ctx context.Context) (*model.Session, error) {
	cur := c.Session()
	if cur == nil || cur.RefreshToken == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Kind: "unauthorized", Msg: "not signed in"}
	}
	var sess model.Session
	if err := c.do(ctx, http.MethodPost, "/api/token/refresh", map[string]string{"refresh_token": cur.RefreshToken}, &sess); err != nil {
		return nil, err
	}
	c.setSession(TokenRefreshed, &sess)
	return &sess, nil
}

// GetSession 向服务端确认当前 token 是否仍然有效；未登录时返回 nil
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	if c.accessToken() == "" {
		return nil, nil
	}
	var sess model.Session
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
