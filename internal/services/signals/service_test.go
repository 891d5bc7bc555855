package signals

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

type fakePublisher struct {
	mu      sync.Mutex
	subs    []Subscriber
	likes   map[string]int
	reports map[string]int
}

func newFakePublisher(subs ...Subscriber) *fakePublisher {
	return &fakePublisher{
		subs:    subs,
		likes:   make(map[string]int),
		reports: make(map[string]int),
	}
}

func (f *fakePublisher) Subscribers() []Subscriber { return f.subs }

func (f *fakePublisher) PushLikeCount(profileID string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[profileID] = count
}

func (f *fakePublisher) PushReportCount(profileID string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[profileID] = count
}

type fakeReports struct {
	pending   map[string]int
	calls     int
	inserted  []model.Report
	insertErr error
}

func (f *fakeReports) Insert(_ context.Context, report model.Report) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, report)
	return nil
}

func (f *fakeReports) CountPending(_ context.Context, tenantID string) (int, error) {
	f.calls++
	return f.pending[tenantID], nil
}

type fakeLikes struct {
	counts map[string]int
}

func (f *fakeLikes) CountIncomingLikes(_ context.Context, profileID string) (int, error) {
	return f.counts[profileID], nil
}

func TestPollLikesPushesToEverySubscriber(t *testing.T) {
	pub := newFakePublisher(
		Subscriber{ProfileID: "a", TenantID: "t1"},
		Subscriber{ProfileID: "b", TenantID: "t1", Moderator: true},
	)
	svc := NewService(&fakeReports{}, &fakeLikes{counts: map[string]int{"a": 3, "b": 0}}, pub, Config{})

	svc.pollLikes(context.Background())

	if pub.likes["a"] != 3 {
		t.Fatalf("subscriber a got %d likes", pub.likes["a"])
	}
	if got, ok := pub.likes["b"]; !ok || got != 0 {
		t.Fatalf("zero counts are still pushed, got %v ok=%v", got, ok)
	}
}

func TestPollReportsOnlyReachesModerators(t *testing.T) {
	pub := newFakePublisher(
		Subscriber{ProfileID: "plain", TenantID: "t1"},
		Subscriber{ProfileID: "mod1", TenantID: "t1", Moderator: true},
		Subscriber{ProfileID: "mod2", TenantID: "t1", Moderator: true},
	)
	reports := &fakeReports{pending: map[string]int{"t1": 7}}
	svc := NewService(reports, &fakeLikes{}, pub, Config{})

	svc.pollReports(context.Background())

	if _, ok := pub.reports["plain"]; ok {
		t.Fatalf("non-moderator received a report count")
	}
	if pub.reports["mod1"] != 7 || pub.reports["mod2"] != 7 {
		t.Fatalf("moderators got %v", pub.reports)
	}
	if reports.calls != 1 {
		t.Fatalf("tenant counted %d times, want 1", reports.calls)
	}
}

func TestCountersValidateInput(t *testing.T) {
	svc := NewService(&fakeReports{}, &fakeLikes{}, newFakePublisher(), Config{})

	if _, err := svc.PendingReportCount(context.Background(), ""); err != ErrValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.IncomingLikeCount(context.Background(), ""); err != ErrValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFileReportStoresPending(t *testing.T) {
	reports := &fakeReports{}
	svc := NewService(reports, &fakeLikes{}, newFakePublisher(), Config{})

	report, err := svc.FileReport(context.Background(), "alice", "t1", "bob", "  spam messages  ")
	if err != nil {
		t.Fatalf("file report: %v", err)
	}
	if report.ID == "" || report.Status != model.ReportStatusPending {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Reason != "spam messages" {
		t.Fatalf("reason not trimmed: %q", report.Reason)
	}
	if len(reports.inserted) != 1 || reports.inserted[0].TargetID != "bob" {
		t.Fatalf("stored %+v", reports.inserted)
	}
}

func TestFileReportRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeReports{}, &fakeLikes{}, newFakePublisher(), Config{})

	cases := []struct {
		name     string
		reporter string
		tenant   string
		target   string
		reason   string
	}{
		{"self report", "alice", "t1", "alice", "spam"},
		{"empty reason", "alice", "t1", "bob", "   "},
		{"missing tenant", "alice", "", "bob", "spam"},
		{"missing target", "alice", "t1", "", "spam"},
	}
	for _, tc := range cases {
		if _, err := svc.FileReport(context.Background(), tc.reporter, tc.tenant, tc.target, tc.reason); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}
