package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/rules"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
)

type fakeFeedRepo struct {
	profiles    []model.Profile
	sortedErr   error
	sortedCalls int
	plainCalls  int
}

func (f *fakeFeedRepo) ListActivePage(_ context.Context, q pgrepo.FeedPageQuery) ([]model.Profile, error) {
	f.sortedCalls++
	if f.sortedErr != nil {
		return nil, f.sortedErr
	}

	out := make([]model.Profile, 0, q.Limit)
	for _, p := range f.profiles {
		if p.TenantID != q.TenantID || p.ID == q.ViewerID {
			continue
		}
		if q.HasCursor {
			if p.LastActiveAt.After(q.CursorActiveAt) || p.LastActiveAt.Equal(q.CursorActiveAt) && p.ID >= q.CursorProfileID {
				continue
			}
		}
		out = append(out, p)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeFeedRepo) ListActiveUnsorted(_ context.Context, tenantID, viewerID string, limit int) ([]model.Profile, error) {
	f.plainCalls++
	out := make([]model.Profile, 0, limit)
	for _, p := range f.profiles {
		if p.TenantID != tenantID || p.ID == viewerID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeProfileStore struct {
	byID map[string]model.Profile
}

func (f *fakeProfileStore) Get(_ context.Context, id string) (model.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return p, nil
}

type fakeSponsorStore struct {
	cards []model.SponsorCard
}

func (f *fakeSponsorStore) ListActive(_ context.Context, tenantID string, limit int, at time.Time) ([]model.SponsorCard, error) {
	out := make([]model.SponsorCard, 0, limit)
	for _, c := range f.cards {
		if c.TenantID != tenantID || !c.ActiveAt(at) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func single(id, tenant string, activeAgo time.Duration, base time.Time) model.Profile {
	return model.Profile{
		ID:           id,
		TenantID:     tenant,
		Category:     model.Category{Kind: enums.CategorySingle, Single: &model.SingleDetails{Gender: "f"}},
		Status:       enums.ProfileStatusActive,
		LastActiveAt: base.Add(-activeAgo),
	}
}

func newTestService(repo *fakeFeedRepo, profiles *fakeProfileStore) *Service {
	svc := NewService(repo, profiles, Config{PageSize: 3, MaxPageSize: 10, SponsorEvery: 2})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestFetchPageOrdersAndPaginates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)

	repo := &fakeFeedRepo{}
	for i := 1; i <= 5; i++ {
		repo.profiles = append(repo.profiles, single(fmt.Sprintf("p%d", i), "t1", time.Duration(i)*time.Minute, base))
	}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	first, err := svc.FetchPage(context.Background(), "viewer", "", 3)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 3 || !first.HasMore || first.NextCursor == "" {
		t.Fatalf("unexpected first page: items=%d hasMore=%v cursor=%q", len(first.Items), first.HasMore, first.NextCursor)
	}
	if first.Items[0].Profile.ID != "p1" || first.Items[2].Profile.ID != "p3" {
		t.Fatalf("unexpected ordering: %s..%s", first.Items[0].Profile.ID, first.Items[2].Profile.ID)
	}

	second, err := svc.FetchPage(context.Background(), "viewer", first.NextCursor, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 remaining items, got %d", len(second.Items))
	}
	if second.Items[0].Profile.ID != "p4" {
		t.Fatalf("second page starts at %s", second.Items[0].Profile.ID)
	}
	if second.HasMore || second.NextCursor != "" {
		t.Fatalf("short page should end pagination")
	}
}

func TestFetchPageRejectsGarbageCursor(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	svc := newTestService(&fakeFeedRepo{}, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	if _, err := svc.FetchPage(context.Background(), "viewer", "not-a-cursor!", 3); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestFetchPageFiltersIncompatible(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	viewer.Blocked = []string{"blocked"}

	blocked := single("blocked", "t1", time.Minute, base)
	blocker := single("blocker", "t1", 2*time.Minute, base)
	blocker.Blocked = []string{"viewer"}
	undeclared := single("undeclared", "t1", 3*time.Minute, base)
	undeclared.Category = model.Category{}
	fine := single("fine", "t1", 4*time.Minute, base)

	repo := &fakeFeedRepo{profiles: []model.Profile{blocked, blocker, undeclared, fine}}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	res, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Profile.ID != "fine" {
		t.Fatalf("expected only the compatible candidate, got %d items", len(res.Items))
	}
}

func TestFetchPageAppliesTastePredicate(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{profiles: []model.Profile{
		single("keep", "t1", time.Minute, base),
		single("drop", "t1", 2*time.Minute, base),
	}}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})
	svc.AttachTastePredicate(rules.Predicate(func(_, candidate model.Profile) bool {
		return candidate.ID != "drop"
	}))

	res, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Profile.ID != "keep" {
		t.Fatalf("taste predicate not applied: %d items", len(res.Items))
	}
}

func TestFetchPageFallsBackWhenSortedQueryUnsupported(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{
		profiles:  []model.Profile{single("p1", "t1", time.Minute, base)},
		sortedErr: pgrepo.ErrSortedQueryUnsupported,
	}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	res, err := svc.FetchPage(context.Background(), "viewer", "", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !res.Degraded {
		t.Fatalf("expected degraded result")
	}
	if res.NextCursor != "" {
		t.Fatalf("degraded pages must not carry a cursor")
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected fallback items, got %d", len(res.Items))
	}

	// The breaker is sticky: later fetches skip the sorted path entirely.
	if _, err := svc.FetchPage(context.Background(), "viewer", "", 3); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if repo.sortedCalls != 1 {
		t.Fatalf("sorted path retried %d times after tripping", repo.sortedCalls)
	}
	if repo.plainCalls != 2 {
		t.Fatalf("expected 2 unsorted scans, got %d", repo.plainCalls)
	}
}

func TestFetchPageOtherErrorsPropagate(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	boom := errors.New("connection reset")
	repo := &fakeFeedRepo{sortedErr: boom}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	if _, err := svc.FetchPage(context.Background(), "viewer", "", 3); !errors.Is(err, boom) {
		t.Fatalf("expected raw error, got %v", err)
	}
	if svc.isDegraded() {
		t.Fatalf("transient errors must not trip the breaker")
	}
}

func TestFetchPageDeduplicatesAcrossDegradedPages(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{
		profiles:  []model.Profile{single("p1", "t1", time.Minute, base), single("p2", "t1", 2*time.Minute, base)},
		sortedErr: pgrepo.ErrSortedQueryUnsupported,
	}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	first, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first.Items))
	}

	second, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(second.Items) != 0 {
		t.Fatalf("degraded refetch repeated %d candidates", len(second.Items))
	}
}

func TestFetchPageFreshFetchResetsSeenSet(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{profiles: []model.Profile{single("p1", "t1", time.Minute, base)}}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})

	for i := 0; i < 2; i++ {
		res, err := svc.FetchPage(context.Background(), "viewer", "", 10)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(res.Items) != 1 {
			t.Fatalf("fetch %d: expected fresh session to list the candidate again, got %d items", i, len(res.Items))
		}
	}
}

func TestFetchPageInterleavesSponsors(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{}
	for i := 1; i <= 5; i++ {
		repo.profiles = append(repo.profiles, single(fmt.Sprintf("p%d", i), "t1", time.Duration(i)*time.Minute, base))
	}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})
	svc.AttachSponsors(&fakeSponsorStore{cards: []model.SponsorCard{
		{ID: "s1", TenantID: "t1", Priority: 10, StartsAt: base.Add(-time.Hour), EndsAt: base.Add(time.Hour)},
		{ID: "s2", TenantID: "t1", Priority: 5, StartsAt: base.Add(-time.Hour), EndsAt: base.Add(time.Hour)},
		{ID: "stale", TenantID: "t1", Priority: 1, StartsAt: base.Add(-2 * time.Hour), EndsAt: base.Add(-time.Hour)},
	}})

	res, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Every 2 organic items: p1 p2 S p3 p4 S p5
	var got []string
	for _, item := range res.Items {
		if item.IsSponsor {
			got = append(got, "S:"+item.Sponsor.ID)
		} else {
			got = append(got, item.Profile.ID)
		}
	}
	want := []string{"p1", "p2", "S:s1", "p3", "p4", "S:s2", "p5"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, got, want)
		}
	}
}

func TestFetchPageAppendsLeftoverSponsorsOnShortPage(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer := single("viewer", "t1", 0, base)
	repo := &fakeFeedRepo{profiles: []model.Profile{single("p1", "t1", time.Minute, base)}}
	svc := newTestService(repo, &fakeProfileStore{byID: map[string]model.Profile{"viewer": viewer}})
	svc.AttachSponsors(&fakeSponsorStore{cards: []model.SponsorCard{
		{ID: "s1", TenantID: "t1", StartsAt: base.Add(-time.Hour), EndsAt: base.Add(time.Hour)},
	}})

	res, err := svc.FetchPage(context.Background(), "viewer", "", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Items) != 2 || !res.Items[1].IsSponsor {
		t.Fatalf("expected trailing sponsor card, got %d items", len(res.Items))
	}
}
