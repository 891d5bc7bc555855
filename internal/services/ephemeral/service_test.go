package ephemeral

import (
	"context"
	"testing"
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

type messageStoreStub struct {
	msg         model.Message
	stampCalls  int
	stampReturn bool
}

func (s *messageStoreStub) Get(_ context.Context, _ string) (model.Message, error) {
	return s.msg, nil
}

func (s *messageStoreStub) StampViewedAt(_ context.Context, _ string, at time.Time) (bool, error) {
	s.stampCalls++
	if s.msg.ViewedAt == nil {
		stamped := at
		s.msg.ViewedAt = &stamped
		return true, nil
	}
	return s.stampReturn, nil
}

func TestStateTransitions(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	msg := model.Message{SelfDestruct: enums.SelfDestruct30s}

	if got := StateOf(msg, viewed); got != StateUnopened {
		t.Fatalf("no viewedAt should be unopened, got %s", got)
	}

	msg.ViewedAt = &viewed
	if got := StateOf(msg, viewed.Add(29*time.Second)); got != StateViewing {
		t.Fatalf("before the window should be viewing, got %s", got)
	}
	if got := StateOf(msg, viewed.Add(30*time.Second)); got != StateExpired {
		t.Fatalf("at the deadline should be expired, got %s", got)
	}
	if got := StateOf(msg, viewed.Add(time.Hour)); got != StateExpired {
		t.Fatalf("past the deadline should be expired, got %s", got)
	}
}

func TestStateNoSelfDestructNeverExpires(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	msg := model.Message{SelfDestruct: enums.SelfDestructNone, ViewedAt: &viewed}

	if got := StateOf(msg, viewed.Add(100*time.Hour)); got != StateViewing {
		t.Fatalf("no-window attachment must stay viewable, got %s", got)
	}
}

func TestRemainingSeconds(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	msg := model.Message{SelfDestruct: enums.SelfDestruct30s, ViewedAt: &viewed}

	if got := RemainingSeconds(msg, viewed.Add(10*time.Second)); got != 20 {
		t.Fatalf("expected 20s left, got %d", got)
	}
	if got := RemainingSeconds(msg, viewed.Add(29500*time.Millisecond)); got != 1 {
		t.Fatalf("partial second must round up, got %d", got)
	}
	if got := RemainingSeconds(msg, viewed.Add(30*time.Second)); got != 0 {
		t.Fatalf("expected 0 at the deadline, got %d", got)
	}
	if got := RemainingSeconds(model.Message{SelfDestruct: enums.SelfDestruct30s}, viewed); got != -1 {
		t.Fatalf("unopened attachment has no countdown, got %d", got)
	}
}

func TestMarkViewedStampsOnce(t *testing.T) {
	store := &messageStoreStub{msg: model.Message{
		ID:           "m1",
		SenderID:     "a",
		ReceiverID:   "b",
		SelfDestruct: enums.SelfDestruct30s,
	}}
	svc := NewService(store)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.MarkViewed(context.Background(), "b", "m1")
	if err != nil {
		t.Fatalf("first view: %v", err)
	}
	if first.ViewedAt == nil || !first.ViewedAt.Equal(now) {
		t.Fatalf("viewedAt not stamped: %+v", first.ViewedAt)
	}

	svc.now = func() time.Time { return now.Add(time.Minute) }
	second, err := svc.MarkViewed(context.Background(), "b", "m1")
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if !second.ViewedAt.Equal(now) {
		t.Fatalf("viewedAt must be immutable, got %v", second.ViewedAt)
	}
	if store.stampCalls != 1 {
		t.Fatalf("stamp must not be retried once set, got %d calls", store.stampCalls)
	}
}

type signerStub struct {
	calls int
}

func (s *signerStub) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	s.calls++
	return "https://media.example/" + key, nil
}

func TestStatusSignsURLWhileViewing(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &messageStoreStub{msg: model.Message{
		ID:           "m1",
		SenderID:     "a",
		ReceiverID:   "b",
		ImageKey:     "attachments/m1.jpg",
		SelfDestruct: enums.SelfDestruct30s,
		ViewedAt:     &viewed,
	}}
	signer := &signerStub{}
	svc := NewService(store)
	svc.AttachSigner(signer)
	svc.now = func() time.Time { return viewed.Add(10 * time.Second) }

	att, err := svc.Status(context.Background(), "b", "m1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if att.State != StateViewing || att.RemainingSeconds != 20 {
		t.Fatalf("unexpected attachment: %+v", att)
	}
	if att.URL != "https://media.example/attachments/m1.jpg" {
		t.Fatalf("expected signed url, got %q", att.URL)
	}
}

func TestStatusOmitsURLOutsideViewingWindow(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &messageStoreStub{msg: model.Message{
		ID:           "m1",
		SenderID:     "a",
		ReceiverID:   "b",
		ImageKey:     "attachments/m1.jpg",
		SelfDestruct: enums.SelfDestruct30s,
		ViewedAt:     &viewed,
	}}
	signer := &signerStub{}
	svc := NewService(store)
	svc.AttachSigner(signer)
	svc.now = func() time.Time { return viewed.Add(time.Minute) }

	att, err := svc.Status(context.Background(), "b", "m1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if att.State != StateExpired || att.URL != "" {
		t.Fatalf("expired attachment must carry no url: %+v", att)
	}
	if signer.calls != 0 {
		t.Fatalf("signer must not be called for expired attachments, got %d", signer.calls)
	}
}

func TestStatusWithoutSignerStillReports(t *testing.T) {
	viewed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &messageStoreStub{msg: model.Message{
		ID:           "m1",
		SenderID:     "a",
		ReceiverID:   "b",
		ImageKey:     "attachments/m1.jpg",
		SelfDestruct: enums.SelfDestruct30s,
		ViewedAt:     &viewed,
	}}
	svc := NewService(store)
	svc.now = func() time.Time { return viewed.Add(10 * time.Second) }

	att, err := svc.Status(context.Background(), "b", "m1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if att.State != StateViewing || att.URL != "" {
		t.Fatalf("no signer means no url, got %+v", att)
	}
}

func TestMarkViewedSenderForbidden(t *testing.T) {
	store := &messageStoreStub{msg: model.Message{ID: "m1", SenderID: "a", ReceiverID: "b"}}
	svc := NewService(store)

	if _, err := svc.MarkViewed(context.Background(), "a", "m1"); err != ErrForbidden {
		t.Fatalf("sender views must be rejected, got %v", err)
	}
}
