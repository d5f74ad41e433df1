package client

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"UFresher/internal/model"
	"UFresher/internal/pkg"
)

// listView 列表视图的公共状态。Close 之后的任何结果都不再写入状态
type listView[T any] struct {
	mu      sync.RWMutex
	items   []T
	loading bool
	err     error
	alive   atomic.Bool
}

func (v *listView[T]) init() {
	v.loading = true
	v.alive.Store(true)
}

func (v *listView[T]) begin() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.alive.Load() {
		v.loading = true
	}
}

// finish 拉取失败时列表回到空
func (v *listView[T]) finish(items []T, err error) error {
	return v.finishWith(items, err, nil)
}

// finishWith also 与列表在同一把锁内写入，Close 之后不再执行
func (v *listView[T]) finishWith(items []T, err error, also func()) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.alive.Load() {
		return err
	}
	if also != nil {
		also()
	}
	v.loading = false
	v.err = err
	if err != nil {
		v.items = nil
		return err
	}
	v.items = items
	return nil
}

func (v *listView[T]) fail(err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.alive.Load() {
		v.err = err
	}
	return err
}

func (v *listView[T]) snapshot() ([]T, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.items, v.loading, v.err
}

// Close 持锁翻转，返回后不会再有写入
func (v *listView[T]) Close() {
	v.mu.Lock()
	v.alive.Store(false)
	v.mu.Unlock()
}

// ClubsState 俱乐部列表视图的快照
type ClubsState struct {
	Clubs   []model.Club
	Loading bool
	Err     error
}

// ClubsView 俱乐部列表；加入、退出、创建成功后重新拉取列表，失败时记录错误并返回
type ClubsView struct {
	listView[model.Club]
	c           *Client
	communityID uint64
}

// NewClubsView communityID 为 0 时列出全部俱乐部
func NewClubsView(c *Client, communityID uint64) *ClubsView {
	v := &ClubsView{c: c, communityID: communityID}
	v.init()
	return v
}

func (v *ClubsView) State() ClubsState {
	clubs, loading, err := v.snapshot()
	return ClubsState{Clubs: clubs, Loading: loading, Err: err}
}

func (v *ClubsView) Refresh(ctx context.Context) error {
	v.begin()
	path := "/api/clubs"
	if v.communityID != 0 {
		path += "?community_id=" + strconv.FormatUint(v.communityID, 10)
	}
	var res listResult[model.Club]
	err := v.c.do(ctx, http.MethodGet, path, nil, &res)
	return v.finish(res.List, err)
}

func (v *ClubsView) Join(ctx context.Context, clubID uint64) error {
	if err := v.c.do(ctx, http.MethodPost, "/api/clubs/"+strconv.FormatUint(clubID, 10)+"/join", nil, nil); err != nil {
		return v.fail(err)
	}
	return v.Refresh(ctx)
}

func (v *ClubsView) Leave(ctx context.Context, clubID uint64) error {
	if err := v.c.do(ctx, http.MethodPost, "/api/clubs/"+strconv.FormatUint(clubID, 10)+"/leave", nil, nil); err != nil {
		return v.fail(err)
	}
	return v.Refresh(ctx)
}

// Create 服务端会让创建者自动加入
func (v *ClubsView) Create(ctx context.Context, name, description string, communityID uint64) (*model.Club, error) {
	body := map[string]any{"name": name, "description": description, "community_id": communityID}
	var club model.Club
	if err := v.c.do(ctx, http.MethodPost, "/api/clubs", body, &club); err != nil {
		return nil, v.fail(err)
	}
	if err := v.Refresh(ctx); err != nil {
		return &club, err
	}
	return &club, nil
}

// UserClubs 出错时记录错误并返回空列表
func (v *ClubsView) UserClubs(ctx context.Context) []model.Club {
	var res listResult[model.Club]
	if err := v.c.do(ctx, http.MethodGet, "/api/clubs/mine", nil, &res); err != nil {
		v.fail(err)
		return []model.Club{}
	}
	return res.List
}

type CommunitiesState struct {
	Communities []model.Community
	Loading     bool
	Err         error
}

type CommunitiesView struct {
	listView[model.Community]
	c *Client
}

func NewCommunitiesView(c *Client) *CommunitiesView {
	v := &CommunitiesView{c: c}
	v.init()
	return v
}

func (v *CommunitiesView) State() CommunitiesState {
	list, loading, err := v.snapshot()
	return CommunitiesState{Communities: list, Loading: loading, Err: err}
}

func (v *CommunitiesView) Refresh(ctx context.Context) error {
	v.begin()
	var res listResult[model.Community]
	err := v.c.do(ctx, http.MethodGet, "/api/communities", nil, &res)
	return v.finish(res.List, err)
}

func (v *CommunitiesView) mutate(ctx context.Context, path string) error {
	if err := v.c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return v.fail(err)
	}
	return v.Refresh(ctx)
}

func (v *CommunitiesView) Join(ctx context.Context, communityID uint64) error {
	return v.mutate(ctx, "/api/communities/"+strconv.FormatUint(communityID, 10)+"/join")
}

func (v *CommunitiesView) Leave(ctx context.Context, communityID uint64) error {
	return v.mutate(ctx, "/api/communities/"+strconv.FormatUint(communityID, 10)+"/leave")
}

// UserCommunity 未加入任何社区时返回 nil
func (v *CommunitiesView) UserCommunity(ctx context.Context) (*model.Community, error) {
	var res struct {
		Community *model.Community `json:"community"`
	}
	if err := v.c.do(ctx, http.MethodGet, "/api/communities/mine", nil, &res); err != nil {
		return nil, err
	}
	return res.Community, nil
}

// Stats 用户看板统计
type Stats struct {
	CommunitiesJoined int64 `json:"communities_joined"`
	ActiveClubs       int64 `json:"active_clubs"`
	Mentors           int64 `json:"mentors"`
	ActiveConnections int64 `json:"active_connections"`
}

type StatsView struct {
	c *Client

	mu      sync.RWMutex
	stats   Stats
	loading bool
	err     error
	alive   atomic.Bool
}

func NewStatsView(c *Client) *StatsView {
	v := &StatsView{c: c, loading: true}
	v.alive.Store(true)
	return v
}

// Refresh 失败时统计归零
func (v *StatsView) Refresh(ctx context.Context) error {
	var s Stats
	err := v.c.do(ctx, http.MethodGet, "/api/stats", nil, &s)
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.alive.Load() {
		return err
	}
	v.loading = false
	v.err = err
	v.stats = s
	return err
}

func (v *StatsView) State() (Stats, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats, v.loading, v.err
}

func (v *StatsView) Close() {
	v.mu.Lock()
	v.alive.Store(false)
	v.mu.Unlock()
}

type MentorshipState struct {
	Mentorships []model.Mentorship
	Mentors     []model.User
	Loading     bool
	Err         error
}

// MentorshipView 自己的导师关系列表，另外带出可选导师
type MentorshipView struct {
	listView[model.Mentorship]
	c *Client

	// mentors 由 listView.mu 保护
	mentors []model.User
}

func NewMentorshipView(c *Client) *MentorshipView {
	v := &MentorshipView{c: c}
	v.init()
	return v
}

func (v *MentorshipView) State() MentorshipState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return MentorshipState{Mentorships: v.items, Mentors: v.mentors, Loading: v.loading, Err: v.err}
}

// Refresh 同时拉取导师列表与自己的导师关系
func (v *MentorshipView) Refresh(ctx context.Context) error {
	v.begin()
	var rels listResult[model.Mentorship]
	var mentors listResult[model.User]
	err := v.c.do(ctx, http.MethodGet, "/api/mentorships", nil, &rels)
	if err == nil {
		err = v.c.do(ctx, http.MethodGet, "/api/mentors", nil, &mentors)
	}
	return v.finishWith(rels.List, err, func() { v.mentors = mentors.List })
}

func (v *MentorshipView) mutate(ctx context.Context, path string, body any) error {
	if err := v.c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return v.fail(err)
	}
	return v.Refresh(ctx)
}

func (v *MentorshipView) Request(ctx context.Context, mentorID uint64, topic string) error {
	return v.mutate(ctx, "/api/mentorships", map[string]any{"mentor_id": mentorID, "topic": topic})
}

func (v *MentorshipView) Accept(ctx context.Context, id uint64) error {
	return v.mutate(ctx, "/api/mentorships/"+strconv.FormatUint(id, 10)+"/accept", nil)
}

func (v *MentorshipView) Complete(ctx context.Context, id uint64) error {
	return v.mutate(ctx, "/api/mentorships/"+strconv.FormatUint(id, 10)+"/complete", nil)
}

// FilterCommunities 名称或学校包含 query（忽略大小写）
func FilterCommunities(list []model.Community, query string) []model.Community {
	return pkg.FilterSlice(list, query, func(c model.Community) []string {
		return []string{c.Name, c.CollegeName}
	})
}

// FilterClubs 名称或简介包含 query（忽略大小写）
func FilterClubs(list []model.Club, query string) []model.Club {
	return pkg.FilterSlice(list, query, func(c model.Club) []string {
		return []string{c.Name, c.Description}
	})
}
