package service

import (
	"context"
	"testing"

	"UFresher/internal/apperror"
	"UFresher/internal/config"
	"UFresher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostFixture() (*PostService, *fakePosts, *fakeModeration, uint64) {
	communities := newFakeCommunities()
	clubs := newFakeClubs()
	club := clubs.add("Robotics", "", 1)
	clubs.members[club.ID][1] = true
	clubs.members[club.ID][2] = true
	posts := newFakePosts()
	posts.heads[club.ID] = 2
	logs := newFakeModeration()
	mod := NewModerationService(logs, &fakeSettings{}, newFakeChats(), posts,
		config.ModerationConfig{Enabled: true, Keywords: []string{"scam"}})
	clubSvc := NewClubService(clubs, NewCommunityService(communities, communities, nil), nil)
	return NewPostService(posts, clubSvc, mod), posts, logs, club.ID
}

func TestPostService_CreateMembersOnly(t *testing.T) {
	svc, _, logs, clubID := newPostFixture()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, 3, clubID, "hi", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.CreatePost(ctx, 1, clubID, " ", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	p, err := svc.CreatePost(ctx, 1, clubID, "Meetup", "friday 5pm")
	require.NoError(t, err)
	assert.Equal(t, clubID, p.ClubID)
	assert.Empty(t, logs.byID)

	_, err = svc.CreatePost(ctx, 1, clubID, "Offer", "not a scam")
	require.NoError(t, err)
	assert.Len(t, logs.byID, 1)
}

func TestPostService_ListCursor(t *testing.T) {
	svc, _, _, clubID := newPostFixture()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.CreatePost(ctx, 1, clubID, "post", "")
		require.NoError(t, err)
	}

	page, nextID, nextTS, err := svc.ListByClubCursor(ctx, 1, clubID, 0, 0, 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, page[2].ID, nextID)
	assert.NotZero(t, nextTS)

	page, nextID, _, err = svc.ListByClubCursor(ctx, 1, clubID, nextID, nextTS, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Zero(t, nextID)

	_, _, _, err = svc.ListByClubCursor(ctx, 3, clubID, 0, 0, 3)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPostService_DeletePermissions(t *testing.T) {
	svc, posts, _, clubID := newPostFixture()
	ctx := context.Background()
	p, err := svc.CreatePost(ctx, 1, clubID, "mine", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePost(ctx, 3, p.ID, false), apperror.ErrForbidden)
	// 俱乐部负责人可以删除
	require.NoError(t, svc.DeletePost(ctx, 2, p.ID, false))
	assert.Equal(t, model.PostDeleted, posts.byID[p.ID].Status)
	// 已删除视为成功
	assert.NoError(t, svc.DeletePost(ctx, 3, p.ID, false))

	q, err := svc.CreatePost(ctx, 1, clubID, "other", "")
	require.NoError(t, err)
	assert.NoError(t, svc.DeletePost(ctx, 99, q.ID, true))
}
