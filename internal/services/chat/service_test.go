package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	redrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/redis"
)

type messageStoreStub struct {
	msgs []model.Message
}

func (s *messageStoreStub) Insert(_ context.Context, msg model.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *messageStoreStub) Get(_ context.Context, messageID string) (model.Message, error) {
	for _, msg := range s.msgs {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return model.Message{}, ErrValidation
}

func (s *messageStoreStub) ListThread(_ context.Context, profileID, partnerID string) ([]model.Message, error) {
	out := make([]model.Message, 0)
	for _, msg := range s.msgs {
		if msg.IsDeleted {
			continue
		}
		if (msg.SenderID == profileID && msg.ReceiverID == partnerID) ||
			(msg.SenderID == partnerID && msg.ReceiverID == profileID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *messageStoreStub) ListForProfile(_ context.Context, profileID string) ([]model.Message, error) {
	out := make([]model.Message, 0)
	for _, msg := range s.msgs {
		if msg.IsDeleted {
			continue
		}
		if msg.SenderID == profileID || msg.ReceiverID == profileID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *messageStoreStub) SoftDelete(_ context.Context, messageID string) error {
	for i := range s.msgs {
		if s.msgs[i].ID == messageID {
			s.msgs[i].IsDeleted = true
			return nil
		}
	}
	return ErrValidation
}

func (s *messageStoreStub) MarkThreadRead(_ context.Context, profileID, partnerID string) error {
	for i := range s.msgs {
		if s.msgs[i].ReceiverID == profileID && s.msgs[i].SenderID == partnerID {
			s.msgs[i].IsRead = true
		}
	}
	return nil
}

type profileStoreStub struct {
	profiles map[string]model.Profile
}

func (s *profileStoreStub) Get(_ context.Context, profileID string) (model.Profile, error) {
	profile, ok := s.profiles[profileID]
	if !ok {
		return model.Profile{}, ErrValidation
	}
	return profile, nil
}

type policyStub struct {
	policy model.TenantChatPolicy
}

func (s policyStub) ChatPolicy(_ context.Context, _ string) (model.TenantChatPolicy, error) {
	return s.policy, nil
}

func single(id, tenant string) model.Profile {
	return model.Profile{
		ID:       id,
		TenantID: tenant,
		Category: model.Category{
			Kind:   enums.CategorySingle,
			Single: &model.SingleDetails{Gender: "m"},
		},
		Status: enums.ProfileStatusActive,
	}
}

func newTestService(t *testing.T, cap int, withRuns bool) (*Service, *messageStoreStub) {
	t.Helper()

	msgs := &messageStoreStub{}
	profiles := &profileStoreStub{profiles: map[string]model.Profile{
		"a": single("a", "t1"),
		"b": single("b", "t1"),
	}}
	svc := NewService(msgs, profiles, policyStub{policy: model.TenantChatPolicy{MaxConsecutive: cap}})

	if withRuns {
		mini := miniredis.RunT(t)
		client := redrepo.NewClient(mini.Addr(), "", 0)
		svc.AttachRunCounter(redrepo.NewRunRepo(client, time.Hour))
	}

	return svc, msgs
}

func TestThrottleCapAndReplyReset(t *testing.T) {
	for _, withRuns := range []bool{false, true} {
		svc, _ := newTestService(t, 2, withRuns)
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			if _, err := svc.Send(ctx, "a", SendInput{ReceiverID: "b", Text: "hi"}); err != nil {
				t.Fatalf("withRuns=%v send %d: %v", withRuns, i, err)
			}
		}

		verdict, err := svc.CanSend(ctx, "a", "b")
		if err != nil {
			t.Fatalf("withRuns=%v cansend: %v", withRuns, err)
		}
		if verdict.Allowed {
			t.Fatalf("withRuns=%v: cap 2 reached, send must be blocked", withRuns)
		}
		if _, err := svc.Send(ctx, "a", SendInput{ReceiverID: "b", Text: "again"}); err != ErrThrottled {
			t.Fatalf("withRuns=%v: expected ErrThrottled, got %v", withRuns, err)
		}

		if _, err := svc.Send(ctx, "b", SendInput{ReceiverID: "a", Text: "reply"}); err != nil {
			t.Fatalf("withRuns=%v reply: %v", withRuns, err)
		}

		verdict, err = svc.CanSend(ctx, "a", "b")
		if err != nil {
			t.Fatalf("withRuns=%v cansend after reply: %v", withRuns, err)
		}
		if !verdict.Allowed || verdict.RunLength != 0 {
			t.Fatalf("withRuns=%v: reply must reset the run, got %+v", withRuns, verdict)
		}
	}
}

func TestThrottleExemptCategory(t *testing.T) {
	svc, _ := newTestService(t, 2, false)
	exempt := enums.CategorySingle
	svc.policies = policyStub{policy: model.TenantChatPolicy{
		MaxConsecutive: 2,
		ExemptCategory: &exempt,
	}}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Send(ctx, "a", SendInput{ReceiverID: "b", Text: "spam-free"}); err != nil {
			t.Fatalf("exempt send %d: %v", i, err)
		}
	}

	verdict, err := svc.CanSend(ctx, "a", "b")
	if err != nil {
		t.Fatalf("cansend: %v", err)
	}
	if !verdict.Allowed || !verdict.Exempt {
		t.Fatalf("exempt category must always be allowed, got %+v", verdict)
	}
}

func TestRunCounterRebuiltAfterDelete(t *testing.T) {
	svc, msgs := newTestService(t, 3, true)
	ctx := context.Background()

	first, err := svc.Send(ctx, "a", SendInput{ReceiverID: "b", Text: "one"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, "a", SendInput{ReceiverID: "b", Text: "two"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	run, err := svc.ConsecutiveRunLength(ctx, "a", "b")
	if err != nil || run != 2 {
		t.Fatalf("expected run 2, got %d (%v)", run, err)
	}

	if err := svc.Delete(ctx, "a", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// counter was invalidated; length rebuilds from the surviving thread
	run, err = svc.ConsecutiveRunLength(ctx, "a", "b")
	if err != nil || run != 1 {
		t.Fatalf("expected run 1 after delete, got %d (%v)", run, err)
	}
	if len(msgs.msgs) != 2 {
		t.Fatalf("soft delete must keep the record, got %d", len(msgs.msgs))
	}
}

func TestSendIncompatibleProfiles(t *testing.T) {
	svc, _ := newTestService(t, 2, false)
	svc.profiles = &profileStoreStub{profiles: map[string]model.Profile{
		"a": single("a", "t1"),
		"b": single("b", "t2"),
	}}

	if _, err := svc.Send(context.Background(), "a", SendInput{ReceiverID: "b", Text: "hi"}); err != ErrNotCompatible {
		t.Fatalf("cross-tenant send must fail, got %v", err)
	}
}

func TestSendSelfDestructRequiresImage(t *testing.T) {
	svc, _ := newTestService(t, 2, false)

	if _, err := svc.Send(context.Background(), "a", SendInput{
		ReceiverID:   "b",
		Text:         "hi",
		SelfDestruct: enums.SelfDestruct30s,
	}); err != ErrValidation {
		t.Fatalf("self-destruct without an image must fail, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc, msgs := newTestService(t, 10, false)
	svc.profiles = &profileStoreStub{profiles: map[string]model.Profile{
		"a": single("a", "t1"),
		"b": single("b", "t1"),
		"c": single("c", "t1"),
	}}
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		msgs.msgs = append(msgs.msgs, model.Message{
			ID: "b" + string(rune('0'+i)), SenderID: "b", ReceiverID: "a",
			Text: "hey", SentAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	msgs.msgs = append(msgs.msgs, model.Message{
		ID: "ac", SenderID: "a", ReceiverID: "c", Text: "hello", SentAt: base,
	})

	summary, err := svc.Summarize(context.Background(), "a")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if len(summary) != 2 {
		t.Fatalf("expected partners {b, c}, got %v", summary)
	}
	if summary["b"] != 3 {
		t.Fatalf("expected 3 unread from b, got %d", summary["b"])
	}
	if got, ok := summary["c"]; !ok || got != 0 {
		t.Fatalf("c must appear at zero, got %v (present=%v)", got, ok)
	}
}

func TestSummarizeSkipsDeletedAndRead(t *testing.T) {
	svc, msgs := newTestService(t, 10, false)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	msgs.msgs = []model.Message{
		{ID: "1", SenderID: "b", ReceiverID: "a", SentAt: base, IsDeleted: true},
		{ID: "2", SenderID: "b", ReceiverID: "a", SentAt: base, IsRead: true},
		{ID: "3", SenderID: "b", ReceiverID: "a", SentAt: base},
	}

	summary, err := svc.Summarize(context.Background(), "a")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary["b"] != 1 {
		t.Fatalf("deleted and read messages must not count, got %d", summary["b"])
	}
}

func TestDeleteModeratorMediaOnly(t *testing.T) {
	svc, msgs := newTestService(t, 10, false)
	moderator := enums.CategoryCouple
	svc.policies = policyStub{policy: model.TenantChatPolicy{
		MaxConsecutive:    10,
		ModeratorCategory: &moderator,
	}}

	mod := model.Profile{
		ID:       "mod",
		TenantID: "t1",
		Category: model.Category{
			Kind:   enums.CategoryCouple,
			Couple: &model.CoupleDetails{},
		},
	}
	svc.profiles = &profileStoreStub{profiles: map[string]model.Profile{
		"a": single("a", "t1"), "b": single("b", "t1"), "mod": mod,
	}}

	msgs.msgs = []model.Message{
		{ID: "text", TenantID: "t1", SenderID: "a", ReceiverID: "b", Text: "plain"},
		{ID: "media", TenantID: "t1", SenderID: "a", ReceiverID: "b", ImageKey: "k1"},
	}

	if err := svc.Delete(context.Background(), "mod", "text"); err != ErrForbidden {
		t.Fatalf("moderator must not delete plain text, got %v", err)
	}
	if err := svc.Delete(context.Background(), "mod", "media"); err != nil {
		t.Fatalf("moderator delete of media message: %v", err)
	}
	if err := svc.Delete(context.Background(), "b", "text"); err != ErrForbidden {
		t.Fatalf("receiver must not delete sender's message, got %v", err)
	}
	if err := svc.Delete(context.Background(), "a", "text"); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
}

func TestListThreadSortsByTimestamp(t *testing.T) {
	svc, msgs := newTestService(t, 10, false)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	msgs.msgs = []model.Message{
		{ID: "2", SenderID: "a", ReceiverID: "b", SentAt: base.Add(time.Minute)},
		{ID: "1", SenderID: "b", ReceiverID: "a", SentAt: base},
	}

	thread, err := svc.ListThread(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("list thread: %v", err)
	}
	if thread[0].ID != "1" || thread[1].ID != "2" {
		t.Fatalf("thread must be ordered by timestamp, got %v then %v", thread[0].ID, thread[1].ID)
	}
}
