package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/rules"
	"github.com/DaniDitu/LoveLink-sub000/internal/pkg/validate"
	redrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/redis"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotCompatible  = errors.New("profiles are not compatible")
	ErrThrottled      = errors.New("waiting for a reply")
	ErrForbidden      = errors.New("not allowed")
	ErrMessageTooLong = errors.New("message too long")
)

const maxTextLen = 4000

type MessageStore interface {
	Insert(ctx context.Context, msg model.Message) error
	Get(ctx context.Context, messageID string) (model.Message, error)
	ListThread(ctx context.Context, profileID, partnerID string) ([]model.Message, error)
	ListForProfile(ctx context.Context, profileID string) ([]model.Message, error)
	SoftDelete(ctx context.Context, messageID string) error
	MarkThreadRead(ctx context.Context, profileID, partnerID string) error
}

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (model.Profile, error)
}

type PolicyProvider interface {
	ChatPolicy(ctx context.Context, tenantID string) (model.TenantChatPolicy, error)
}

// RunStore is the incrementally maintained consecutive-send counter. It is an
// optimization over rescanning the thread; a miss falls back to the scan.
type RunStore interface {
	Get(ctx context.Context, a, b string) (redrepo.RunState, error)
	Set(ctx context.Context, a, b, senderID string, length int) error
	Advance(ctx context.Context, a, b, senderID string) (int, error)
	Invalidate(ctx context.Context, a, b string) error
}

// Notifier publishes thread changes to subscribed connections.
type Notifier interface {
	MessageStored(msg model.Message)
	MessageDeleted(msg model.Message)
}

type SendInput struct {
	ReceiverID   string
	Text         string
	ImageKey     string
	SelfDestruct enums.SelfDestruct
}

type SendVerdict struct {
	Allowed   bool
	RunLength int
	Cap       int
	Exempt    bool
}

type Service struct {
	messages MessageStore
	profiles ProfileStore
	policies PolicyProvider
	runs     RunStore
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(messages MessageStore, profiles ProfileStore, policies PolicyProvider) *Service {
	return &Service{
		messages: messages,
		profiles: profiles,
		policies: policies,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
}

func (s *Service) AttachRunCounter(runs RunStore) {
	s.runs = runs
}

func (s *Service) AttachNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Send stores one outbound message after compatibility and throttle checks.
// Failures are surfaced to the caller as-is; the message is not considered
// sent and nothing is retried.
func (s *Service) Send(ctx context.Context, senderID string, in SendInput) (model.Message, error) {
	text := strings.TrimSpace(in.Text)
	if !validate.ID(senderID) || !validate.ID(in.ReceiverID) || senderID == in.ReceiverID {
		return model.Message{}, ErrValidation
	}
	if text == "" && in.ImageKey == "" {
		return model.Message{}, ErrValidation
	}
	if len(text) > maxTextLen {
		return model.Message{}, ErrMessageTooLong
	}
	if !in.SelfDestruct.Valid() {
		return model.Message{}, ErrValidation
	}
	if in.SelfDestruct != "" && in.SelfDestruct != enums.SelfDestructNone && in.ImageKey == "" {
		// self-destruct applies to attachments only
		return model.Message{}, ErrValidation
	}

	sender, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		return model.Message{}, err
	}
	receiver, err := s.profiles.Get(ctx, in.ReceiverID)
	if err != nil {
		return model.Message{}, err
	}
	if !rules.Compatible(sender, receiver) {
		return model.Message{}, ErrNotCompatible
	}

	verdict, err := s.verdict(ctx, sender, in.ReceiverID)
	if err != nil {
		return model.Message{}, err
	}
	if !verdict.Allowed {
		return model.Message{}, ErrThrottled
	}

	msg := model.Message{
		ID:           uuid.NewString(),
		TenantID:     sender.TenantID,
		SenderID:     senderID,
		ReceiverID:   in.ReceiverID,
		Text:         text,
		ImageKey:     strings.TrimSpace(in.ImageKey),
		SelfDestruct: normalizeSelfDestruct(in.SelfDestruct),
		SentAt:       s.now().UTC(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return model.Message{}, err
	}

	s.advanceRun(ctx, msg)
	if s.notifier != nil {
		s.notifier.MessageStored(msg)
	}

	return msg, nil
}

// CanSend reports whether the profile may send the next message to the
// partner, with the current run length for UI display.
func (s *Service) CanSend(ctx context.Context, senderID, partnerID string) (SendVerdict, error) {
	if senderID == "" || partnerID == "" || senderID == partnerID {
		return SendVerdict{}, ErrValidation
	}

	sender, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		return SendVerdict{}, err
	}

	return s.verdict(ctx, sender, partnerID)
}

// ConsecutiveRunLength is the length of the contiguous run of most recent
// messages authored by the profile in this thread.
func (s *Service) ConsecutiveRunLength(ctx context.Context, profileID, partnerID string) (int, error) {
	if profileID == "" || partnerID == "" {
		return 0, ErrValidation
	}
	return s.runLength(ctx, profileID, partnerID)
}

func (s *Service) verdict(ctx context.Context, sender model.Profile, partnerID string) (SendVerdict, error) {
	policy, err := s.policies.ChatPolicy(ctx, sender.TenantID)
	if err != nil {
		return SendVerdict{}, err
	}

	if policy.Exempt(sender.Category.Kind) {
		return SendVerdict{Allowed: true, Cap: policy.MaxConsecutive, Exempt: true}, nil
	}

	run, err := s.runLength(ctx, sender.ID, partnerID)
	if err != nil {
		return SendVerdict{}, err
	}

	return SendVerdict{
		Allowed:   run < policy.MaxConsecutive,
		RunLength: run,
		Cap:       policy.MaxConsecutive,
	}, nil
}

// runLength prefers the maintained counter and rebuilds it from the thread on
// a miss, seeding the counter for the next call.
func (s *Service) runLength(ctx context.Context, profileID, partnerID string) (int, error) {
	if s.runs != nil {
		state, err := s.runs.Get(ctx, profileID, partnerID)
		if err != nil {
			s.logger.Debug("run counter read failed, rescanning thread", zap.Error(err))
		} else if state.Exists {
			if state.SenderID != profileID {
				return 0, nil
			}
			return state.Length, nil
		}
	}

	thread, err := s.messages.ListThread(ctx, profileID, partnerID)
	if err != nil {
		return 0, err
	}
	lastSender, run := tailRun(thread)

	if s.runs != nil && lastSender != "" {
		if err := s.runs.Set(ctx, profileID, partnerID, lastSender, run); err != nil {
			s.logger.Debug("run counter seed failed", zap.Error(err))
		}
	}

	if lastSender != profileID {
		return 0, nil
	}
	return run, nil
}

// tailRun scans from the most recent message backwards, counting the
// contiguous run by the last author. Deleted messages never reach here.
func tailRun(thread []model.Message) (string, int) {
	if len(thread) == 0 {
		return "", 0
	}

	last := thread[len(thread)-1].SenderID
	run := 0
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].SenderID != last {
			break
		}
		run++
	}
	return last, run
}

func (s *Service) advanceRun(ctx context.Context, msg model.Message) {
	if s.runs == nil {
		return
	}
	if _, err := s.runs.Advance(ctx, msg.SenderID, msg.ReceiverID, msg.SenderID); err != nil {
		// counter is a cache; drop it rather than serve a stale run
		s.logger.Warn("run counter advance failed", zap.Error(err))
		_ = s.runs.Invalidate(ctx, msg.SenderID, msg.ReceiverID)
	}
}

// ListThread returns the conversation ordered by timestamp. The repo already
// sorts, but merged subscription feeds may deliver out of order, so ordering
// is enforced here too.
func (s *Service) ListThread(ctx context.Context, profileID, partnerID string) ([]model.Message, error) {
	if profileID == "" || partnerID == "" {
		return nil, ErrValidation
	}

	thread, err := s.messages.ListThread(ctx, profileID, partnerID)
	if err != nil {
		return nil, err
	}

	SortByTimestamp(thread)
	return thread, nil
}

func SortByTimestamp(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].SentAt.Before(msgs[j].SentAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}

// Delete soft-deletes a message. The sender may always delete their own; a
// moderator-category profile may delete any message carrying media. From this
// point the message is excluded from every list, count and throttle run.
func (s *Service) Delete(ctx context.Context, actorID, messageID string) error {
	if actorID == "" || messageID == "" {
		return ErrValidation
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != actorID {
		actor, err := s.profiles.Get(ctx, actorID)
		if err != nil {
			return err
		}
		policy, err := s.policies.ChatPolicy(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		if !msg.HasImage() || !policy.Moderator(actor.Category.Kind) || actor.TenantID != msg.TenantID {
			return ErrForbidden
		}
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	if s.runs != nil {
		// the deleted message may have been part of the tail run
		if err := s.runs.Invalidate(ctx, msg.SenderID, msg.ReceiverID); err != nil {
			s.logger.Debug("run counter invalidate failed", zap.Error(err))
		}
	}
	if s.notifier != nil {
		msg.IsDeleted = true
		s.notifier.MessageDeleted(msg)
	}

	return nil
}

func (s *Service) MarkThreadRead(ctx context.Context, profileID, partnerID string) error {
	if profileID == "" || partnerID == "" {
		return ErrValidation
	}
	return s.messages.MarkThreadRead(ctx, profileID, partnerID)
}

// Summarize reduces every non-deleted message touching the profile into
// per-partner unread counts in one pass. Partners the profile only ever
// wrote to appear at zero, giving chat-list membership and badge counts
// from a single query.
func (s *Service) Summarize(ctx context.Context, profileID string) (map[string]int, error) {
	if profileID == "" {
		return nil, ErrValidation
	}

	msgs, err := s.messages.ListForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int)
	for _, msg := range msgs {
		if msg.ReceiverID == profileID {
			if !msg.IsRead {
				summary[msg.SenderID]++
			} else if _, ok := summary[msg.SenderID]; !ok {
				summary[msg.SenderID] = 0
			}
			continue
		}
		if _, ok := summary[msg.ReceiverID]; !ok {
			summary[msg.ReceiverID] = 0
		}
	}

	return summary, nil
}

// UnreadTotal is the badge count across all conversations.
func (s *Service) UnreadTotal(ctx context.Context, profileID string) (int, error) {
	summary, err := s.Summarize(ctx, profileID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, n := range summary {
		total += n
	}
	return total, nil
}

func normalizeSelfDestruct(v enums.SelfDestruct) enums.SelfDestruct {
	if v == "" {
		return enums.SelfDestructNone
	}
	return v
}
