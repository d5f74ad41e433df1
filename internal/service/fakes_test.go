package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"UFresher/internal/model"
	"UFresher/internal/repository/mysql"
	"UFresher/internal/repository/redis"

	"gorm.io/gorm"
)

// 内存实现的仓储，只覆盖服务层用到的语义

type fakeUsers struct {
	byID   map[uint64]*model.User
	nextID uint64
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]*model.User{}}
	for _, u := range users {
		_ = f.Create(context.Background(), u)
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, x := range f.byID {
		if x.Username == u.Username || x.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username || u.Email == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	if u, ok := f.byID[id]; ok {
		u.Password = hash
	}
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uint64, fields map[string]any) error {
	u, ok := f.byID[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "college":
			u.College = v.(string)
		case "stream":
			u.Stream = v.(string)
		case "profile_pic":
			u.ProfilePic = v.(string)
		case "available_for_mentorship":
			u.AvailableForMentorship = v.(bool)
		}
	}
	return nil
}

func (f *fakeUsers) ListMentors(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range f.byID {
		if u.Role == model.RoleMentor && u.AvailableForMentorship {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeTokens struct {
	tokens  map[uint64]string
	refresh map[uint64]string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[uint64]string{}, refresh: map[uint64]string{}}
}

func (f *fakeTokens) AddUserToken(_ context.Context, id uint64, token string) error {
	f.tokens[id] = token
	return nil
}

func (f *fakeTokens) GetUserToken(_ context.Context, id uint64) (string, error) {
	t, ok := f.tokens[id]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return t, nil
}

func (f *fakeTokens) ExtendUserToken(context.Context, uint64) error { return nil }

func (f *fakeTokens) TokenExpiry(context.Context, uint64) (time.Duration, error) {
	return 30 * time.Minute, nil
}

func (f *fakeTokens) DeleteUserToken(_ context.Context, id uint64) error {
	delete(f.tokens, id)
	delete(f.refresh, id)
	return nil
}

func (f *fakeTokens) SetRefreshID(_ context.Context, id uint64, jti string, _ time.Duration) error {
	f.refresh[id] = jti
	return nil
}

func (f *fakeTokens) RotateRefreshID(_ context.Context, id uint64, oldJTI, newJTI string, _ time.Duration) (bool, error) {
	if cur, ok := f.refresh[id]; !ok || cur != oldJTI {
		return false, nil
	}
	f.refresh[id] = newJTI
	return true, nil
}

type fakeCodes struct {
	pending   map[string]string
	confirmed map[string]string
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{pending: map[string]string{}, confirmed: map[string]string{}}
}

func (f *fakeCodes) SavePending(_ context.Context, scope, email, code string) error {
	f.pending[scope+"|"+email] = code
	return nil
}

func (f *fakeCodes) Confirm(_ context.Context, scope, email string) error {
	k := scope + "|" + email
	v, ok := f.pending[k]
	if !ok {
		return redis.ErrCodeConfirmedFailed
	}
	delete(f.pending, k)
	f.confirmed[k] = v
	return nil
}

func (f *fakeCodes) DeletePending(_ context.Context, scope, email string) error {
	delete(f.pending, scope+"|"+email)
	return nil
}

func (f *fakeCodes) GetConfirmed(_ context.Context, scope, email string) (string, error) {
	v, ok := f.confirmed[scope+"|"+email]
	if !ok {
		return "", redis.ErrEmailNotFound
	}
	return v, nil
}

func (f *fakeCodes) DeleteConfirmed(_ context.Context, scope, email string) error {
	delete(f.confirmed, scope+"|"+email)
	return nil
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

// fakeCommunities 同时实现 CommunityStore 与 CommunityMemberStore
type fakeCommunities struct {
	byID      map[uint64]*model.Community
	memberOf  map[uint64]uint64 // user -> community
	nextID    uint64
	findCalls int
}

func newFakeCommunities() *fakeCommunities {
	return &fakeCommunities{byID: map[uint64]*model.Community{}, memberOf: map[uint64]uint64{}}
}

func (f *fakeCommunities) add(name, college string) *model.Community {
	c := &model.Community{Name: name, CollegeName: college, CreatedAt: time.Now()}
	_ = f.Create(context.Background(), c)
	return c
}

func (f *fakeCommunities) Create(_ context.Context, c *model.Community) error {
	for _, x := range f.byID {
		if x.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	c.ID = f.nextID
	if c.CreatorID != 0 {
		if _, ok := f.memberOf[c.CreatorID]; !ok {
			f.memberOf[c.CreatorID] = c.ID
			c.MemberCount++
		}
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCommunities) FindByID(_ context.Context, id uint64) (*model.Community, error) {
	f.findCalls++
	c, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommunities) List(_ context.Context) ([]model.Community, error) {
	out := make([]model.Community, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCommunities) DeleteByID(_ context.Context, id uint64) ([]uint64, error) {
	delete(f.byID, id)
	var members []uint64
	for u, c := range f.memberOf {
		if c == id {
			members = append(members, u)
			delete(f.memberOf, u)
		}
	}
	return members, nil
}

func (f *fakeCommunities) Join(_ context.Context, communityID, userID uint64) (bool, error) {
	if cur, ok := f.memberOf[userID]; ok {
		if cur == communityID {
			return false, nil
		}
		return false, mysql.ErrAlreadyInCommunity
	}
	if _, ok := f.byID[communityID]; !ok {
		return false, gorm.ErrRecordNotFound
	}
	f.memberOf[userID] = communityID
	f.byID[communityID].MemberCount++
	return true, nil
}

func (f *fakeCommunities) Leave(_ context.Context, communityID, userID uint64) (bool, error) {
	if cur, ok := f.memberOf[userID]; !ok || cur != communityID {
		return false, nil
	}
	delete(f.memberOf, userID)
	if c, ok := f.byID[communityID]; ok && c.MemberCount > 0 {
		c.MemberCount--
	}
	return true, nil
}

func (f *fakeCommunities) IsMember(_ context.Context, communityID, userID uint64) (bool, error) {
	return f.memberOf[userID] == communityID, nil
}

func (f *fakeCommunities) FindCommunityByUser(_ context.Context, userID uint64) (*model.Community, error) {
	id, ok := f.memberOf[userID]
	if !ok {
		return nil, nil
	}
	cp := *f.byID[id]
	return &cp, nil
}

type fakeClubs struct {
	byID    map[uint64]*model.Club
	members map[uint64]map[uint64]bool
	nextID  uint64
	joinErr error
}

func newFakeClubs() *fakeClubs {
	return &fakeClubs{byID: map[uint64]*model.Club{}, members: map[uint64]map[uint64]bool{}}
}

func (f *fakeClubs) add(name, desc string, communityID uint64) *model.Club {
	f.nextID++
	c := &model.Club{ID: f.nextID, Name: name, Description: desc, CommunityID: communityID}
	f.byID[c.ID] = c
	f.members[c.ID] = map[uint64]bool{}
	return c
}

func (f *fakeClubs) Create(_ context.Context, c *model.Club) error {
	f.nextID++
	c.ID = f.nextID
	c.MemberCount = 1
	cp := *c
	f.byID[c.ID] = &cp
	f.members[c.ID] = map[uint64]bool{c.CreatedBy: true}
	return nil
}

func (f *fakeClubs) FindByID(_ context.Context, id uint64) (*model.Club, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClubs) List(_ context.Context, communityID uint64) ([]model.Club, error) {
	var out []model.Club
	for _, c := range f.byID {
		if communityID == 0 || c.CommunityID == communityID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeClubs) ListByUser(_ context.Context, userID uint64) ([]model.Club, error) {
	var out []model.Club
	for id, m := range f.members {
		if m[userID] {
			out = append(out, *f.byID[id])
		}
	}
	return out, nil
}

func (f *fakeClubs) MemberClubIDs(_ context.Context, userID uint64, ids []uint64) (map[uint64]bool, error) {
	out := map[uint64]bool{}
	for _, id := range ids {
		if f.members[id][userID] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeClubs) IsMember(_ context.Context, clubID, userID uint64) (bool, error) {
	return f.members[clubID][userID], nil
}

func (f *fakeClubs) Join(_ context.Context, clubID, userID uint64) (bool, error) {
	if f.joinErr != nil {
		return false, f.joinErr
	}
	if f.members[clubID][userID] {
		return false, nil
	}
	f.members[clubID][userID] = true
	f.byID[clubID].MemberCount++
	return true, nil
}

func (f *fakeClubs) Leave(_ context.Context, clubID, userID uint64) (bool, error) {
	if !f.members[clubID][userID] {
		return false, nil
	}
	delete(f.members[clubID], userID)
	f.byID[clubID].MemberCount--
	return true, nil
}

func (f *fakeClubs) DeleteByID(_ context.Context, id uint64) ([]uint64, error) {
	var members []uint64
	for u := range f.members[id] {
		members = append(members, u)
	}
	delete(f.byID, id)
	delete(f.members, id)
	return members, nil
}

type fakeStatsCache struct {
	data        map[uint64][]byte
	invalidated []uint64
}

func newFakeStatsCache() *fakeStatsCache { return &fakeStatsCache{data: map[uint64][]byte{}} }

func (f *fakeStatsCache) Get(_ context.Context, id uint64, dst any) (bool, error) {
	raw, ok := f.data[id]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeStatsCache) Set(_ context.Context, id uint64, v any) error {
	raw, err := json.Marshal(v)
	f.data[id] = raw
	return err
}

func (f *fakeStatsCache) Invalidate(_ context.Context, id uint64) error {
	delete(f.data, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeModeration struct {
	byID   map[uint64]*model.ModerationLog
	nextID uint64
}

func newFakeModeration() *fakeModeration {
	return &fakeModeration{byID: map[uint64]*model.ModerationLog{}}
}

func (f *fakeModeration) Create(_ context.Context, l *model.ModerationLog) error {
	f.nextID++
	l.ID = f.nextID
	cp := *l
	f.byID[l.ID] = &cp
	return nil
}

func (f *fakeModeration) FindByID(_ context.Context, id uint64) (*model.ModerationLog, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeModeration) List(_ context.Context, status string, offset, limit int) ([]model.ModerationLog, error) {
	var out []model.ModerationLog
	for _, l := range f.byID {
		if status == "" || l.ModeratorAction == status {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeModeration) Review(_ context.Context, id uint64, action string, moderatorID uint64) (bool, error) {
	l, ok := f.byID[id]
	if !ok || l.ModeratorAction != model.ModerationPending {
		return false, nil
	}
	now := time.Now()
	l.ModeratorAction = action
	l.ModeratorID = &moderatorID
	l.ReviewedAt = &now
	return true, nil
}

type fakeSettings struct {
	enabled, set bool
}

func (f *fakeSettings) ModerationEnabled(context.Context) (bool, bool, error) {
	return f.enabled, f.set, nil
}

func (f *fakeSettings) SetModerationEnabled(_ context.Context, v bool) error {
	f.enabled, f.set = v, true
	return nil
}

type fakeChats struct {
	byID      map[uint64]*model.ChatMessage
	nextID    uint64
	deleteErr error
}

func newFakeChats() *fakeChats { return &fakeChats{byID: map[uint64]*model.ChatMessage{}} }

func (f *fakeChats) Create(_ context.Context, m *model.ChatMessage) error {
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeChats) ListByRoom(_ context.Context, room string, beforeID uint64, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range f.byID {
		if m.RoomID == room && (beforeID == 0 || m.ID < beforeID) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChats) Delete(_ context.Context, id uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

type fakePosts struct {
	byID   map[uint64]*model.Post
	nextID uint64
	heads  map[uint64]uint64 // club -> head
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: map[uint64]*model.Post{}, heads: map[uint64]uint64{}}
}

func (f *fakePosts) Create(_ context.Context, p *model.Post) error {
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePosts) FindByID(_ context.Context, id uint64) (*model.Post, error) {
	p, ok := f.byID[id]
	if !ok || p.Status != model.PostNormal {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) ListByClubCursor(_ context.Context, clubID, lastID uint64, _ int64, limit int) ([]model.Post, error) {
	var out []model.Post
	for _, p := range f.byID {
		if p.ClubID == clubID && p.Status == model.PostNormal && (lastID == 0 || p.ID < lastID) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePosts) SetStatus(_ context.Context, id uint64, status int) error {
	if p, ok := f.byID[id]; ok {
		p.Status = status
	}
	return nil
}

func (f *fakePosts) DeleteWithPermission(_ context.Context, postID, operatorID uint64, isAdmin bool) (int64, error) {
	p, ok := f.byID[postID]
	if !ok || p.Status != model.PostNormal {
		return 0, nil
	}
	if p.AuthorID != operatorID && f.heads[p.ClubID] != operatorID && !isAdmin {
		return 0, nil
	}
	p.Status = model.PostDeleted
	return 1, nil
}

type fakeMentorships struct {
	byID   map[uint64]*model.Mentorship
	nextID uint64
}

func newFakeMentorships() *fakeMentorships {
	return &fakeMentorships{byID: map[uint64]*model.Mentorship{}}
}

func (f *fakeMentorships) Request(_ context.Context, mentorID, menteeID uint64, topic string) (*model.Mentorship, bool, error) {
	for _, m := range f.byID {
		if m.MentorID == mentorID && m.MenteeID == menteeID {
			if m.Status != model.MentorshipCompleted {
				cp := *m
				return &cp, false, nil
			}
			m.Status, m.Topic = model.MentorshipPending, topic
			cp := *m
			return &cp, true, nil
		}
	}
	f.nextID++
	m := &model.Mentorship{ID: f.nextID, MentorID: mentorID, MenteeID: menteeID, Topic: topic, Status: model.MentorshipPending}
	f.byID[m.ID] = m
	cp := *m
	return &cp, true, nil
}

func (f *fakeMentorships) FindByID(_ context.Context, id uint64) (*model.Mentorship, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMentorships) Transition(_ context.Context, id uint64, from, to string) (bool, error) {
	m, ok := f.byID[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	return true, nil
}

func (f *fakeMentorships) ListByUser(_ context.Context, userID uint64) ([]model.Mentorship, error) {
	var out []model.Mentorship
	for _, m := range f.byID {
		if m.MentorID == userID || m.MenteeID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}
