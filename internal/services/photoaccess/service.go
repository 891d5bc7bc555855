package photoaccess

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/rules"
	"github.com/DaniDitu/LoveLink-sub000/internal/pkg/validate"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("not allowed")
	ErrAlreadyOpen   = errors.New("an open request already exists")
	ErrNotDecidable  = errors.New("request is not pending")
	ErrNotCompatible = errors.New("profiles are not compatible")
)

// Decision is the effective access verdict for a viewer against one photo,
// recomputed from stored fields and the clock on every check.
type Decision string

const (
	DecisionGranted      Decision = "granted"
	DecisionNotRequested Decision = "not_requested"
	DecisionPending      Decision = "pending"
	DecisionDenied       Decision = "denied"
)

type RequestStore interface {
	Insert(ctx context.Context, req model.PhotoAccessRequest) error
	Get(ctx context.Context, requestID string) (model.PhotoAccessRequest, error)
	Latest(ctx context.Context, requesterID, ownerID, photoID string) (model.PhotoAccessRequest, error)
	Decide(ctx context.Context, requestID string, status enums.RequestStatus, duration *enums.AccessDuration, expiresAt *time.Time, viewsLeft *int, at time.Time) error
	ConsumeView(ctx context.Context, requestID string, at time.Time) (int, error)
	ListIncomingPending(ctx context.Context, ownerID string, limit int) ([]model.PhotoAccessRequest, error)
}

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (model.Profile, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Notifier pushes new incoming requests to the owner's subscription.
type Notifier interface {
	PhotoRequestCreated(req model.PhotoAccessRequest)
	PhotoRequestDecided(req model.PhotoAccessRequest)
}

type Config struct {
	ApprovalWindow time.Duration
	OneTimeViews   int
	SignedURLTTL   time.Duration
}

type Service struct {
	requests RequestStore
	profiles ProfileStore
	signer   URLSigner
	notifier Notifier
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

type GalleryPhotoView struct {
	Photo    model.GalleryPhoto
	Decision Decision
	URL      string
}

func NewService(requests RequestStore, profiles ProfileStore, cfg Config) *Service {
	if cfg.ApprovalWindow <= 0 {
		cfg.ApprovalWindow = 24 * time.Hour
	}
	if cfg.OneTimeViews <= 0 {
		cfg.OneTimeViews = 1
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 5 * time.Minute
	}

	return &Service{
		requests: requests,
		profiles: profiles,
		cfg:      cfg,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
}

func (s *Service) AttachSigner(signer URLSigner) {
	s.signer = signer
}

func (s *Service) AttachNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Request creates a pending access request for a gated photo. Re-requesting
// after a rejection starts a fresh record; an open (pending or effectively
// granted) request cannot be duplicated.
func (s *Service) Request(ctx context.Context, requesterID, ownerID, photoID string) (model.PhotoAccessRequest, error) {
	if !validate.ID(requesterID) || !validate.ID(ownerID) || !validate.ID(photoID) || requesterID == ownerID {
		return model.PhotoAccessRequest{}, ErrValidation
	}

	requester, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		return model.PhotoAccessRequest{}, err
	}
	owner, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return model.PhotoAccessRequest{}, err
	}
	if !rules.Compatible(requester, owner) {
		return model.PhotoAccessRequest{}, ErrNotCompatible
	}

	photo, ok := model.FindGalleryPhoto(owner.Gallery, photoID)
	if !ok {
		return model.PhotoAccessRequest{}, ErrNotFound
	}
	if photo.Visibility == enums.VisibilityPublic {
		return model.PhotoAccessRequest{}, ErrValidation
	}

	now := s.now().UTC()
	latest, err := s.requests.Latest(ctx, requesterID, ownerID, photoID)
	switch {
	case err == nil:
		switch latest.Status {
		case enums.RequestStatusPending:
			return model.PhotoAccessRequest{}, ErrAlreadyOpen
		case enums.RequestStatusApproved:
			if s.effective(latest, now) == DecisionGranted {
				return model.PhotoAccessRequest{}, ErrAlreadyOpen
			}
		}
	case errors.Is(err, pgrepo.ErrRequestNotFound):
		// first request for this photo
	default:
		return model.PhotoAccessRequest{}, err
	}

	req := model.PhotoAccessRequest{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		OwnerID:     ownerID,
		PhotoID:     photoID,
		Status:      enums.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return model.PhotoAccessRequest{}, err
	}

	if s.notifier != nil {
		s.notifier.PhotoRequestCreated(req)
	}

	return req, nil
}

// Decide applies the owner's approval or rejection to a pending request.
// Approvals stamp the fields the chosen duration needs; rejections clear
// them. Nothing is ever recomputed into the record afterwards.
func (s *Service) Decide(ctx context.Context, ownerID, requestID string, approve bool, duration enums.AccessDuration) (model.PhotoAccessRequest, error) {
	if ownerID == "" || requestID == "" {
		return model.PhotoAccessRequest{}, ErrValidation
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return model.PhotoAccessRequest{}, err
	}
	if req.OwnerID != ownerID {
		return model.PhotoAccessRequest{}, ErrForbidden
	}
	if req.Status != enums.RequestStatusPending {
		return model.PhotoAccessRequest{}, ErrNotDecidable
	}

	now := s.now().UTC()
	if !approve {
		if err := s.requests.Decide(ctx, requestID, enums.RequestStatusRejected, nil, nil, nil, now); err != nil {
			return model.PhotoAccessRequest{}, err
		}
		req.Status = enums.RequestStatusRejected
		req.Duration = nil
		req.ExpiresAt = nil
		req.ViewsLeft = nil
		req.UpdatedAt = now
	} else {
		if !duration.Valid() {
			return model.PhotoAccessRequest{}, ErrValidation
		}

		var (
			expiresAt *time.Time
			viewsLeft *int
		)
		switch duration {
		case enums.AccessTwentyFourHour:
			deadline := now.Add(s.cfg.ApprovalWindow)
			expiresAt = &deadline
		case enums.AccessOneTime:
			views := s.cfg.OneTimeViews
			viewsLeft = &views
		}

		d := duration
		if err := s.requests.Decide(ctx, requestID, enums.RequestStatusApproved, &d, expiresAt, viewsLeft, now); err != nil {
			return model.PhotoAccessRequest{}, err
		}
		req.Status = enums.RequestStatusApproved
		req.Duration = &d
		req.ExpiresAt = expiresAt
		req.ViewsLeft = viewsLeft
		req.UpdatedAt = now
	}

	if s.notifier != nil {
		s.notifier.PhotoRequestDecided(req)
	}

	return req, nil
}

// CheckAccess computes the effective decision for one photo without consuming
// anything. Fail-closed: every state that is not an effective approval is
// denied or reported for the caller to act on.
func (s *Service) CheckAccess(ctx context.Context, viewerID, ownerID, photoID string) (Decision, error) {
	viewer, owner, photo, err := s.load(ctx, viewerID, ownerID, photoID)
	if err != nil {
		return DecisionDenied, err
	}
	if !rules.Compatible(viewer, owner) {
		return DecisionDenied, nil
	}
	if photo.Visibility == enums.VisibilityPublic {
		return DecisionGranted, nil
	}

	latest, err := s.requests.Latest(ctx, viewerID, ownerID, photoID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRequestNotFound) {
			return DecisionNotRequested, nil
		}
		return DecisionDenied, err
	}

	return s.effective(latest, s.now().UTC()), nil
}

// CheckAndConsume is CheckAccess for an actual render: a granted OneTime view
// atomically burns its counter, so an immediate second render is denied.
func (s *Service) CheckAndConsume(ctx context.Context, viewerID, ownerID, photoID string) (Decision, string, error) {
	viewer, owner, photo, err := s.load(ctx, viewerID, ownerID, photoID)
	if err != nil {
		return DecisionDenied, "", err
	}
	if !rules.Compatible(viewer, owner) {
		return DecisionDenied, "", nil
	}
	if photo.Visibility == enums.VisibilityPublic {
		return DecisionGranted, s.signURL(ctx, photo.ObjectKey), nil
	}

	latest, err := s.requests.Latest(ctx, viewerID, ownerID, photoID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRequestNotFound) {
			return DecisionNotRequested, "", nil
		}
		return DecisionDenied, "", err
	}

	now := s.now().UTC()
	decision := s.effective(latest, now)
	if decision != DecisionGranted {
		return decision, "", nil
	}

	if latest.Duration != nil && *latest.Duration == enums.AccessOneTime {
		if _, err := s.requests.ConsumeView(ctx, latest.ID, now); err != nil {
			if errors.Is(err, pgrepo.ErrNoViewsLeft) {
				// raced another render for the last view
				return DecisionDenied, "", nil
			}
			return DecisionDenied, "", err
		}
	}

	return DecisionGranted, s.signURL(ctx, photo.ObjectKey), nil
}

// VisibleGallery is the gallery as one viewer sees it: public photos of a
// compatible owner plus gated ones with their effective decision.
// SuperSecret photos are never listed; they exist only as attachments.
func (s *Service) VisibleGallery(ctx context.Context, viewerID, ownerID string) ([]GalleryPhotoView, error) {
	if viewerID == "" || ownerID == "" {
		return nil, ErrValidation
	}

	owner, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if viewerID != ownerID {
		viewer, err := s.profiles.Get(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if !rules.Compatible(viewer, owner) {
			return nil, ErrNotCompatible
		}
	}

	now := s.now().UTC()
	out := make([]GalleryPhotoView, 0, len(owner.Gallery))
	for _, photo := range owner.Gallery {
		if photo.Visibility == enums.VisibilitySuperSecret {
			continue
		}

		view := GalleryPhotoView{Photo: photo}
		switch {
		case viewerID == ownerID, photo.Visibility == enums.VisibilityPublic:
			view.Decision = DecisionGranted
		default:
			latest, err := s.requests.Latest(ctx, viewerID, ownerID, photo.ID)
			if err != nil {
				if !errors.Is(err, pgrepo.ErrRequestNotFound) {
					return nil, err
				}
				view.Decision = DecisionNotRequested
			} else {
				view.Decision = s.effective(latest, now)
			}
		}

		if view.Decision == DecisionGranted {
			view.URL = s.signURL(ctx, photo.ObjectKey)
		}
		out = append(out, view)
	}

	return out, nil
}

func (s *Service) ListIncoming(ctx context.Context, ownerID string, limit int) ([]model.PhotoAccessRequest, error) {
	if ownerID == "" {
		return nil, ErrValidation
	}
	return s.requests.ListIncomingPending(ctx, ownerID, limit)
}

// effective maps a stored request to its read-time decision. Approved records
// past their expiry or out of views stay "approved" in the store (lazy
// expiry), but read as denied.
func (s *Service) effective(req model.PhotoAccessRequest, now time.Time) Decision {
	switch req.Status {
	case enums.RequestStatusPending:
		return DecisionPending
	case enums.RequestStatusRejected:
		return DecisionDenied
	case enums.RequestStatusApproved:
		if req.Duration == nil {
			return DecisionDenied
		}
		switch *req.Duration {
		case enums.AccessPermanent:
			return DecisionGranted
		case enums.AccessTwentyFourHour:
			if req.ExpiresAt != nil && now.Before(*req.ExpiresAt) {
				return DecisionGranted
			}
			return DecisionDenied
		case enums.AccessOneTime:
			if req.ViewsLeft != nil && *req.ViewsLeft > 0 {
				return DecisionGranted
			}
			return DecisionDenied
		}
	}
	return DecisionDenied
}

func (s *Service) load(ctx context.Context, viewerID, ownerID, photoID string) (model.Profile, model.Profile, model.GalleryPhoto, error) {
	if viewerID == "" || ownerID == "" || photoID == "" {
		return model.Profile{}, model.Profile{}, model.GalleryPhoto{}, ErrValidation
	}

	viewer, err := s.profiles.Get(ctx, viewerID)
	if err != nil {
		return model.Profile{}, model.Profile{}, model.GalleryPhoto{}, err
	}
	owner, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return model.Profile{}, model.Profile{}, model.GalleryPhoto{}, err
	}

	photo, ok := model.FindGalleryPhoto(owner.Gallery, photoID)
	if !ok {
		return model.Profile{}, model.Profile{}, model.GalleryPhoto{}, ErrNotFound
	}

	return viewer, owner, photo, nil
}

func (s *Service) signURL(ctx context.Context, key string) string {
	if s.signer == nil || key == "" {
		return ""
	}

	url, err := s.signer.PresignGet(ctx, key, s.cfg.SignedURLTTL)
	if err != nil {
		s.logger.Debug("presign photo url failed", zap.Error(err))
		return ""
	}
	return url
}
