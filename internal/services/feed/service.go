package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/rules"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidCursor = errors.New("invalid cursor")
)

type Repository interface {
	ListActivePage(ctx context.Context, q pgrepo.FeedPageQuery) ([]model.Profile, error)
	ListActiveUnsorted(ctx context.Context, tenantID, viewerID string, limit int) ([]model.Profile, error)
}

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (model.Profile, error)
}

type SponsorStore interface {
	ListActive(ctx context.Context, tenantID string, limit int, at time.Time) ([]model.SponsorCard, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	PageSize     int
	MaxPageSize  int
	SponsorEvery int
	PhotoURLTTL  time.Duration
}

type Item struct {
	IsSponsor bool
	Sponsor   *model.SponsorCard
	Profile   *model.Profile
	PhotoURL  string
	Online    bool
}

type Result struct {
	Items      []Item
	NextCursor string
	HasMore    bool
	// Degraded reports that the sorted query was unavailable this session
	// and ordering plus cursor semantics are approximate.
	Degraded bool
}

type pageCursor struct {
	ActiveAt int64  `json:"t"`
	ID       string `json:"i"`
}

type OnlineChecker interface {
	IsOnline(profile model.Profile) bool
}

// Service pages the browsable candidate pool. It holds its store handle and
// breaker state as fields; one value is constructed at wiring time and shared
// by reference.
type Service struct {
	repo     Repository
	profiles ProfileStore
	sponsors SponsorStore
	signer   URLSigner
	presence OnlineChecker
	taste    rules.Predicate
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	degraded bool
	logOnce  sync.Once
	seen     map[string]map[string]struct{}
}

func NewService(repo Repository, profiles ProfileStore, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	if cfg.SponsorEvery <= 0 {
		cfg.SponsorEvery = 4
	}
	if cfg.PhotoURLTTL <= 0 {
		cfg.PhotoURLTTL = 5 * time.Minute
	}

	return &Service{
		repo:     repo,
		profiles: profiles,
		cfg:      cfg,
		now:      time.Now,
		logger:   zap.NewNop(),
		seen:     make(map[string]map[string]struct{}),
	}
}

func (s *Service) AttachSponsors(sponsors SponsorStore) {
	s.sponsors = sponsors
}

func (s *Service) AttachPhotoSigner(signer URLSigner) {
	s.signer = signer
}

func (s *Service) AttachPresence(presence OnlineChecker) {
	s.presence = presence
}

// AttachTastePredicate installs the swappable preference layer applied after
// the compatibility rules.
func (s *Service) AttachTastePredicate(taste rules.Predicate) {
	s.taste = taste
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// FetchPage returns one page of candidates for the viewer. A fresh fetch
// (no cursor) on the primary path starts a new browsing session and resets
// the de-duplication set; in degraded mode the set persists because there is
// no cursor to delimit sessions.
func (s *Service) FetchPage(ctx context.Context, viewerID, cursor string, limit int) (Result, error) {
	if viewerID == "" {
		return Result{}, ErrValidation
	}
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	viewer, err := s.profiles.Get(ctx, viewerID)
	if err != nil {
		return Result{}, err
	}

	decoded, hasCursor, err := decodeCursor(cursor)
	if err != nil {
		return Result{}, err
	}

	if s.isDegraded() {
		return s.fetchUnsorted(ctx, viewer, limit)
	}

	if !hasCursor {
		s.resetSeen(viewerID)
	}

	query := pgrepo.FeedPageQuery{
		TenantID:  viewer.TenantID,
		ViewerID:  viewerID,
		HasCursor: hasCursor,
		Limit:     limit,
	}
	if hasCursor {
		query.CursorActiveAt = time.UnixMilli(decoded.ActiveAt).UTC()
		query.CursorProfileID = decoded.ID
	}

	candidates, err := s.repo.ListActivePage(ctx, query)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSortedQueryUnsupported) {
			s.tripBreaker()
			return s.fetchUnsorted(ctx, viewer, limit)
		}
		return Result{}, err
	}

	items := s.buildItems(ctx, viewer, candidates)

	result := Result{Items: items}
	if len(candidates) == limit {
		last := candidates[len(candidates)-1]
		next, err := encodeCursor(pageCursor{
			ActiveAt: last.LastActiveAt.UTC().UnixMilli(),
			ID:       last.ID,
		})
		if err != nil {
			return Result{}, err
		}
		result.NextCursor = next
		result.HasMore = true
	}

	return result, nil
}

// fetchUnsorted is the degraded path: no ordering, no cursor, hasMore
// approximated as "the capped scan came back full". A documented tradeoff,
// not corrected here.
func (s *Service) fetchUnsorted(ctx context.Context, viewer model.Profile, limit int) (Result, error) {
	candidates, err := s.repo.ListActiveUnsorted(ctx, viewer.TenantID, viewer.ID, limit)
	if err != nil {
		return Result{}, err
	}

	items := s.buildItems(ctx, viewer, candidates)

	return Result{
		Items:    items,
		HasMore:  len(candidates) == limit,
		Degraded: true,
	}, nil
}

// buildItems applies compatibility and taste filtering, de-duplicates against
// earlier pages, then interleaves sponsor cards.
func (s *Service) buildItems(ctx context.Context, viewer model.Profile, candidates []model.Profile) []Item {
	organic := make([]Item, 0, len(candidates))
	for i := range candidates {
		candidate := candidates[i]
		if !rules.Compatible(viewer, candidate) {
			continue
		}
		if s.taste != nil && !s.taste(viewer, candidate) {
			continue
		}
		if s.alreadySeen(viewer.ID, candidate.ID) {
			continue
		}

		item := Item{Profile: &candidate}
		if s.presence != nil {
			item.Online = s.presence.IsOnline(candidate)
		}
		if key := primaryPhotoKey(candidate); key != "" && s.signer != nil {
			if url, err := s.signer.PresignGet(ctx, key, s.cfg.PhotoURLTTL); err == nil {
				item.PhotoURL = url
			}
		}
		organic = append(organic, item)
	}

	return s.interleaveSponsors(ctx, viewer.TenantID, organic)
}

// interleaveSponsors inserts one active sponsor card after every N organic
// candidates, highest priority first, and appends the leftovers when the
// page is short.
func (s *Service) interleaveSponsors(ctx context.Context, tenantID string, organic []Item) []Item {
	if s.sponsors == nil || len(organic) == 0 {
		return organic
	}

	every := s.cfg.SponsorEvery
	slots := len(organic)/every + 1
	cards, err := s.sponsors.ListActive(ctx, tenantID, slots, s.now().UTC())
	if err != nil {
		s.logger.Debug("sponsor lookup failed", zap.Error(err))
		return organic
	}
	if len(cards) == 0 {
		return organic
	}

	out := make([]Item, 0, len(organic)+len(cards))
	next := 0
	for i, item := range organic {
		out = append(out, item)
		if (i+1)%every == 0 && next < len(cards) {
			card := cards[next]
			next++
			out = append(out, Item{IsSponsor: true, Sponsor: &card})
		}
	}
	for ; next < len(cards); next++ {
		card := cards[next]
		out = append(out, Item{IsSponsor: true, Sponsor: &card})
	}

	return out
}

func (s *Service) isDegraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// tripBreaker flips the sticky degradation flag for the rest of the session
// and logs exactly once for operator attention.
func (s *Service) tripBreaker() {
	s.mu.Lock()
	s.degraded = true
	s.mu.Unlock()

	s.logOnce.Do(func() {
		s.logger.Warn("sorted feed query unavailable, serving unsorted pages for the rest of the session")
	})
}

func (s *Service) alreadySeen(viewerID, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.seen[viewerID]
	if !ok {
		set = make(map[string]struct{})
		s.seen[viewerID] = set
	}
	if _, dup := set[candidateID]; dup {
		return true
	}
	set[candidateID] = struct{}{}
	return false
}

func (s *Service) resetSeen(viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, viewerID)
}

func primaryPhotoKey(profile model.Profile) string {
	for _, photo := range profile.Gallery {
		if photo.Visibility.GateRank() == 0 {
			return photo.ObjectKey
		}
	}
	return ""
}

func decodeCursor(raw string) (pageCursor, bool, error) {
	if raw == "" {
		return pageCursor{}, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}
	if cursor.ActiveAt <= 0 || cursor.ID == "" {
		return pageCursor{}, false, ErrInvalidCursor
	}

	return cursor, true, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
