package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"UFresher/internal/model"
	"UFresher/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	rows     []model.EventOutbox
	sent     []uint64
	failed   []uint64
	requeued int
}

func (f *fakeOutbox) ListPending(context.Context, int) ([]model.EventOutbox, error) {
	return f.rows, nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uint64) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uint64) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutbox) RequeueFailed(context.Context, int) (int64, error) {
	f.requeued++
	return 0, nil
}

type keyedSender struct {
	keys []string
	fail map[string]bool
}

func (s *keyedSender) Send(_ context.Context, key string, _ []byte) error {
	if s.fail[key] {
		return errors.New("broker unavailable")
	}
	s.keys = append(s.keys, key)
	return nil
}

func TestOutboxRelayer_DrainOnce(t *testing.T) {
	repo := &fakeOutbox{rows: []model.EventOutbox{
		{ID: 1, AggregateID: 10, Payload: `{}`},
		{ID: 2, AggregateID: 20, Payload: `{}`},
		{ID: 3, AggregateID: 30, Payload: `{}`},
	}}
	sender := &keyedSender{fail: map[string]bool{"20": true}}
	NewOutboxRelayer(repo, sender).drainOnce(context.Background())

	assert.Equal(t, 1, repo.requeued)
	assert.Equal(t, []string{"10", "30"}, sender.keys)
	assert.Equal(t, []uint64{1, 3}, repo.sent)
	assert.Equal(t, []uint64{2}, repo.failed)
}

type fakeCounts struct {
	communities []mysql.CountPair
	clubs       []mysql.CountPair
	realComm    map[uint64]int64
	realClub    map[uint64]int64
	fixedComm   map[uint64]int64
	fixedClub   map[uint64]int64
}

func page(all []mysql.CountPair, lastID uint64, n int) []mysql.CountPair {
	var out []mysql.CountPair
	for _, p := range all {
		if p.ID > lastID && len(out) < n {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeCounts) ListCommunities(_ context.Context, lastID uint64, n int) ([]mysql.CountPair, error) {
	return page(f.communities, lastID, n), nil
}

func (f *fakeCounts) ListClubs(_ context.Context, lastID uint64, n int) ([]mysql.CountPair, error) {
	return page(f.clubs, lastID, n), nil
}

func (f *fakeCounts) RealCommunityMembers(_ context.Context, id uint64) (int64, error) {
	return f.realComm[id], nil
}

func (f *fakeCounts) RealClubMembers(_ context.Context, id uint64) (int64, error) {
	return f.realClub[id], nil
}

func (f *fakeCounts) FixCommunity(_ context.Context, id uint64, n int64) error {
	f.fixedComm[id] = n
	return nil
}

func (f *fakeCounts) FixClub(_ context.Context, id uint64, n int64) error {
	f.fixedClub[id] = n
	return nil
}

func TestMemberCountReconciler_FixesDriftAcrossBatches(t *testing.T) {
	repo := &fakeCounts{
		communities: []mysql.CountPair{{ID: 1, MemberCount: 3}, {ID: 2, MemberCount: 5}, {ID: 3, MemberCount: 0}},
		clubs:       []mysql.CountPair{{ID: 7, MemberCount: -1}},
		realComm:    map[uint64]int64{1: 3, 2: 4, 3: 2},
		realClub:    map[uint64]int64{7: 0},
		fixedComm:   map[uint64]int64{},
		fixedClub:   map[uint64]int64{},
	}
	r := NewMemberCountReconciler(repo)
	r.batchSize = 2
	var fixed []string
	r.OnFix = func(kind string, id uint64) { fixed = append(fixed, fmt.Sprintf("%s:%d", kind, id)) }
	r.reconcileOnce(context.Background())

	assert.Equal(t, map[uint64]int64{2: 4, 3: 2}, repo.fixedComm)
	assert.Equal(t, map[uint64]int64{7: 0}, repo.fixedClub)
	assert.Equal(t, []string{"community:2", "community:3", "club:7"}, fixed)
}

func TestMemberCountReconciler_FixDropsCommunityCache(t *testing.T) {
	communities := newFakeCommunities()
	c := communities.add("A", "College A")
	svc := NewCommunityService(communities, communities, nil)
	ctx := context.Background()
	_, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)

	communities.byID[c.ID].MemberCount = 2
	repo := &fakeCounts{
		communities: []mysql.CountPair{{ID: c.ID, MemberCount: 2}},
		realComm:    map[uint64]int64{c.ID: 0},
		fixedComm:   map[uint64]int64{},
		fixedClub:   map[uint64]int64{},
	}
	r := NewMemberCountReconciler(repo)
	r.OnFix = func(kind string, id uint64) {
		if kind == "community" {
			communities.byID[id].MemberCount = repo.fixedComm[id]
			svc.InvalidateCached(id)
		}
	}
	r.reconcileOnce(ctx)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.MemberCount)
}
