package signals

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/pkg/validate"
)

var ErrValidation = errors.New("validation error")

const maxReasonLength = 1000

type ReportStore interface {
	Insert(ctx context.Context, report model.Report) error
	CountPending(ctx context.Context, tenantID string) (int, error)
}

type LikeStore interface {
	CountIncomingLikes(ctx context.Context, profileID string) (int, error)
}

// Subscriber is one connected client interested in background counters.
type Subscriber struct {
	ProfileID string
	TenantID  string
	Moderator bool
}

type Publisher interface {
	Subscribers() []Subscriber
	PushLikeCount(profileID string, count int)
	PushReportCount(profileID string, count int)
}

type Config struct {
	ReportPollInterval time.Duration
	LikePollInterval   time.Duration
}

// Service polls slow-moving counters and pushes them to connected clients.
// Like counts go to every subscriber; pending report counts only to
// moderator connections.
type Service struct {
	reports   ReportStore
	likes     LikeStore
	publisher Publisher
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(reports ReportStore, likes LikeStore, publisher Publisher, cfg Config) *Service {
	if cfg.ReportPollInterval <= 0 {
		cfg.ReportPollInterval = 5 * time.Minute
	}
	if cfg.LikePollInterval <= 0 {
		cfg.LikePollInterval = time.Minute
	}
	return &Service{
		reports:   reports,
		likes:     likes,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// FileReport records a pending report against another profile. The count
// reaches moderators on the next report poll.
func (s *Service) FileReport(ctx context.Context, reporterID, tenantID, targetID, reason string) (model.Report, error) {
	if !validate.ID(reporterID) || !validate.ID(targetID) || reporterID == targetID || tenantID == "" {
		return model.Report{}, ErrValidation
	}
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > maxReasonLength {
		return model.Report{}, ErrValidation
	}

	report := model.Report{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ReporterID: reporterID,
		TargetID:   targetID,
		Reason:     reason,
		Status:     model.ReportStatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.reports.Insert(ctx, report); err != nil {
		return model.Report{}, err
	}
	return report, nil
}

func (s *Service) PendingReportCount(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, ErrValidation
	}
	return s.reports.CountPending(ctx, tenantID)
}

func (s *Service) IncomingLikeCount(ctx context.Context, profileID string) (int, error) {
	if profileID == "" {
		return 0, ErrValidation
	}
	return s.likes.CountIncomingLikes(ctx, profileID)
}

// Run blocks until ctx is cancelled, polling on the configured intervals.
func (s *Service) Run(ctx context.Context) {
	likeTicker := time.NewTicker(s.cfg.LikePollInterval)
	defer likeTicker.Stop()
	reportTicker := time.NewTicker(s.cfg.ReportPollInterval)
	defer reportTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-likeTicker.C:
			s.pollLikes(ctx)
		case <-reportTicker.C:
			s.pollReports(ctx)
		}
	}
}

func (s *Service) pollLikes(ctx context.Context) {
	for _, sub := range s.publisher.Subscribers() {
		count, err := s.likes.CountIncomingLikes(ctx, sub.ProfileID)
		if err != nil {
			s.logger.Debug("like count poll failed",
				zap.String("profile_id", sub.ProfileID), zap.Error(err))
			continue
		}
		s.publisher.PushLikeCount(sub.ProfileID, count)
	}
}

func (s *Service) pollReports(ctx context.Context) {
	// One count per tenant, fanned out to that tenant's moderators.
	counts := make(map[string]int)
	for _, sub := range s.publisher.Subscribers() {
		if !sub.Moderator {
			continue
		}
		count, ok := counts[sub.TenantID]
		if !ok {
			var err error
			count, err = s.reports.CountPending(ctx, sub.TenantID)
			if err != nil {
				s.logger.Debug("report count poll failed",
					zap.String("tenant_id", sub.TenantID), zap.Error(err))
				continue
			}
			counts[sub.TenantID] = count
		}
		s.publisher.PushReportCount(sub.ProfileID, count)
	}
}
