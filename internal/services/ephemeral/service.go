package ephemeral

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("only the receiver may view an attachment")
)

// State of a self-destructing attachment.
type State string

const (
	StateUnopened State = "unopened"
	StateViewing  State = "viewing"
	StateExpired  State = "expired"
)

type MessageStore interface {
	Get(ctx context.Context, messageID string) (model.Message, error)
	StampViewedAt(ctx context.Context, messageID string, at time.Time) (bool, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const signedURLTTL = 5 * time.Minute

type Service struct {
	store  MessageStore
	signer URLSigner
	now    func() time.Time
	logger *zap.Logger
}

func NewService(store MessageStore) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
}

func (s *Service) AttachSigner(signer URLSigner) {
	s.signer = signer
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// StateOf derives the lifecycle state from stored fields and the clock alone.
// Nothing is mutated: expiry is recomputed on every tick while the attachment
// is mounted.
func StateOf(msg model.Message, at time.Time) State {
	if msg.ViewedAt == nil {
		return StateUnopened
	}

	window := msg.SelfDestruct.Window()
	if window <= 0 {
		return StateViewing
	}
	if !at.Before(msg.ViewedAt.Add(window)) {
		return StateExpired
	}
	return StateViewing
}

// RemainingSeconds reports whole seconds until expiry, rounded up. Zero means
// expired; attachments without a self-destruct window never expire and report
// a negative value meaning "no countdown".
func RemainingSeconds(msg model.Message, at time.Time) int64 {
	window := msg.SelfDestruct.Window()
	if window <= 0 || msg.ViewedAt == nil {
		return -1
	}

	left := msg.ViewedAt.Add(window).Sub(at)
	if left <= 0 {
		return 0
	}
	sec := int64(left / time.Second)
	if left%time.Second != 0 {
		sec++
	}
	return sec
}

// MarkViewed stamps viewedAt the first time the receiving party renders the
// attachment. The store-level guard makes replays no-ops, so the stamp is
// written at most once no matter how often the attachment re-renders.
func (s *Service) MarkViewed(ctx context.Context, viewerID, messageID string) (model.Message, error) {
	if viewerID == "" || messageID == "" {
		return model.Message{}, ErrValidation
	}

	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return model.Message{}, err
	}
	if msg.ReceiverID != viewerID {
		return model.Message{}, ErrForbidden
	}
	if msg.ViewedAt != nil {
		return msg, nil
	}

	now := s.now().UTC()
	stamped, err := s.store.StampViewedAt(ctx, messageID, now)
	if err != nil {
		return model.Message{}, err
	}
	if stamped {
		msg.ViewedAt = &now
		return msg, nil
	}

	// lost the race against another render; reload the authoritative stamp
	return s.store.Get(ctx, messageID)
}

// Attachment is the render view of a self-destructing image: current state,
// countdown, and a presigned URL while the state still permits viewing.
type Attachment struct {
	State            State
	RemainingSeconds int64
	URL              string
}

// Describe derives the attachment view at the current tick. The URL is signed
// only while the state is viewing; expired or unopened attachments carry none.
func (s *Service) Describe(ctx context.Context, msg model.Message) Attachment {
	at := s.now().UTC()
	att := Attachment{
		State:            StateOf(msg, at),
		RemainingSeconds: RemainingSeconds(msg, at),
	}
	if att.State == StateViewing {
		att.URL = s.signURL(ctx, msg.ImageKey)
	}
	return att
}

// Status reports the current lifecycle state and countdown for either
// conversation party.
func (s *Service) Status(ctx context.Context, viewerID, messageID string) (Attachment, error) {
	if viewerID == "" || messageID == "" {
		return Attachment{}, ErrValidation
	}

	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return Attachment{}, err
	}
	if msg.SenderID != viewerID && msg.ReceiverID != viewerID {
		return Attachment{}, ErrForbidden
	}

	return s.Describe(ctx, msg), nil
}

func (s *Service) signURL(ctx context.Context, key string) string {
	if s.signer == nil || key == "" {
		return ""
	}

	url, err := s.signer.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		s.logger.Debug("presign attachment url failed", zap.Error(err))
		return ""
	}
	return url
}
