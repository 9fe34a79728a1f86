package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimelineRepo struct {
	rows       []Entry
	gotFilters TimelineFilters
	gotOffset  int
	gotLimit   int
}

func (r *fakeTimelineRepo) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	r.gotFilters = filters
	r.gotOffset = offset
	r.gotLimit = limit
	if offset >= len(r.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return r.rows[offset:end], nil
}

func entries(n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{ID: int64(n - i), Action: "facture.paiement", Entity: "facture", EntityID: "1", OccurredAt: time.Now()}
	}
	return out
}

func TestTimelineDefaultsPaging(t *testing.T) {
	repo := &fakeTimelineRepo{rows: entries(5)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	require.Equal(t, 1, result.Paging.Page)
	require.Equal(t, defaultPageSize, result.Paging.PageSize)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 0, repo.gotOffset)
	require.Equal(t, defaultPageSize+1, repo.gotLimit)
}

func TestTimelineDetectsNextPage(t *testing.T) {
	repo := &fakeTimelineRepo{rows: entries(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Rows, 10)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Zero(t, result.Paging.PrevPage)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.PrevPage)
	require.Equal(t, 20, repo.gotOffset)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &fakeTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, result.Paging.PageSize)
	require.Equal(t, maxPageSize+1, repo.gotLimit)
}
