package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"UFresher/internal/model"
)

// Watch 订阅服务端推送的登录态事件，直到 ctx 结束或连接断开。
// 登出、修改密码或在其它设备登录都会清除本地登录态
func (c *Client) Watch(ctx context.Context) error {
	tok := c.accessToken()
	if tok == "" {
		return &APIError{Status: http.StatusUnauthorized, Kind: "unauthorized", Msg: "not signed in"}
	}
	var apiErr APIError
	resp, err := c.http.Clone().SetTimeout(0).R().
		SetContext(ctx).
		SetBearerAuthToken(tok).
		SetHeader("Accept", "text/event-stream").
		SetErrorResult(&apiErr).
		DisableAutoReadResponse().
		Get("/api/auth/events")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.IsErrorState() {
		apiErr.Status = resp.StatusCode
		if apiErr.Msg == "" {
			apiErr.Msg = resp.Status
		}
		return &apiErr
	}

	var event string
	var data strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event != "" {
				c.dispatch(event, data.String())
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimPrefix(line, "data:"))
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return scanner.Err()
}

// dispatch 服务端推送的登录态不带 token。每个用户只有一个有效 token，
// 不是本客户端发起的 SIGNED_IN 意味着已在别处登录；TOKEN_REFRESHED 只可能来自
// 持有有效 token 的一方，在它之前必然已经收到过 SIGNED_IN，因此忽略
func (c *Client) dispatch(event, data string) {
	switch event {
	case SignedOut:
		c.setSession(SignedOut, nil)
	case SignedIn:
		var sess model.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return
		}
		if cur := c.Session(); cur != nil && cur.ExpiresAt.Equal(sess.ExpiresAt) {
			return
		}
		c.setSession(SignedOut, nil)
	}
}
