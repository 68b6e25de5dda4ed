package status

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/hours"
	"storefront/internal/metrics"
	"storefront/internal/seasonal"
)

const (
	defaultHoursInterval  = time.Minute
	defaultSeasonInterval = time.Hour
)

// Journal persists transitions.
type Journal interface {
	RecordTransition(ctx context.Context, t *database.Transition) error
}

// Publisher fans transitions out to in-process subscribers.
type Publisher interface {
	Publish(event events.Event)
}

// Options configures a Service. Every field is optional.
type Options struct {
	HoursInterval  time.Duration
	SeasonInterval time.Duration
	Clock          Clock
	Journal        Journal
	Bus            Publisher
	Cache          *cache.SnapshotCache
	Logger         *zerolog.Logger
}

// Service keeps the latest business-hours status and seasonal state fresh.
type Service struct {
	hoursInterval  time.Duration
	seasonInterval time.Duration
	clock          Clock
	journal        Journal
	bus            Publisher
	cache          *cache.SnapshotCache
	logger         *zerolog.Logger

	mu          sync.RWMutex
	store       *config.StoreConfig
	hours       hours.Status
	season      seasonal.State
	seasonDay   time.Time
	hoursReady  bool
	seasonReady bool

	lifeMu  sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService builds a service for store. A nil store falls back to the built-in defaults.
func NewService(store *config.StoreConfig, opts Options) *Service {
	if store == nil {
		store = config.DefaultStoreConfig()
	}
	if opts.HoursInterval <= 0 {
		opts.HoursInterval = defaultHoursInterval
	}
	if opts.SeasonInterval <= 0 {
		opts.SeasonInterval = defaultSeasonInterval
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	s := &Service{
		hoursInterval:  opts.HoursInterval,
		seasonInterval: opts.SeasonInterval,
		clock:          opts.Clock,
		journal:        opts.Journal,
		bus:            opts.Bus,
		cache:          opts.Cache,
		logger:         opts.Logger,
		store:          store,
	}
	s.warnOverlaps(store)
	return s
}

// Start refreshes both snapshots immediately and then on their tickers.
func (s *Service) Start(ctx context.Context) {
	s.lifeMu.Lock()
	if s.running {
		s.lifeMu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopCh = stop
	s.wg.Add(2)
	s.lifeMu.Unlock()

	s.RefreshHours(ctx)
	s.RefreshSeason(ctx)

	go s.loop(ctx, stop, s.hoursInterval, s.RefreshHours)
	go s.loop(ctx, stop, s.seasonInterval, s.RefreshSeason)

	s.logger.Info().
		Dur("hours_interval", s.hoursInterval).
		Dur("season_interval", s.seasonInterval).
		Msg("Status service started")
}

// Stop ends both refresh loops and waits for them.
func (s *Service) Stop() {
	s.lifeMu.Lock()
	if !s.running {
		s.lifeMu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.lifeMu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("Status service stopped")
}

func (s *Service) loop(ctx context.Context, stop <-chan struct{}, interval time.Duration, refresh func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}

// Reload swaps in a new store configuration and recomputes both snapshots.
func (s *Service) Reload(ctx context.Context, store *config.StoreConfig) {
	if store == nil {
		return
	}
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	s.warnOverlaps(store)
	s.logger.Info().Str("store", store.String()).Msg("Store configuration applied")

	s.RefreshHours(ctx)
	s.RefreshSeason(ctx)
}

// RefreshHours recomputes the business-hours status.
func (s *Service) RefreshHours(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	store := s.store
	st := hours.Resolve(now, store.Schedule(), store.Location())
	prev, had := s.hours, s.hoursReady
	s.hours, s.hoursReady = st, true
	s.mu.Unlock()

	metrics.SetHours(st.IsOpen, st.MinutesUntilChange)
	if err := s.cache.SetHours(ctx, st, 2*s.hoursInterval); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache hours status")
	}

	if had && prev.IsOpen != st.IsOpen {
		s.recordHours(ctx, store.Name, st, now)
	}
}

// RefreshSeason recomputes the seasonal state.
func (s *Service) RefreshSeason(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	store := s.store
	local := now.In(store.Location())
	st := seasonal.Evaluate(local, store.ThemeTable())
	prev, had := s.season, s.seasonReady
	s.season, s.seasonDay, s.seasonReady = st, local, true
	s.mu.Unlock()

	metrics.SetSeasonEffects(st.Effects)
	if err := s.cache.SetSeason(ctx, st, 2*s.seasonInterval); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache seasonal state")
	}

	if had && prev.ThemeID() != st.ThemeID() {
		s.recordSeason(ctx, store.Name, st, now)
	}
}

func (s *Service) recordHours(ctx context.Context, store string, st hours.Status, now time.Time) {
	state := "closed"
	if st.IsOpen {
		state = "open"
	}
	s.logger.Info().Str("state", state).Str("message", st.Message).Msg("Store hours transition")

	s.record(ctx, &database.Transition{
		Kind:       database.KindHours,
		State:      state,
		Detail:     st.Message,
		OccurredAt: now,
	})
	s.publish(events.TypeHoursTransition, events.HoursTransition{
		Store:              store,
		IsOpen:             st.IsOpen,
		Message:            st.Message,
		MinutesUntilChange: st.MinutesUntilChange,
		ChangesAt:          st.ChangesAt,
	})
}

func (s *Service) recordSeason(ctx context.Context, store string, st seasonal.State, now time.Time) {
	effects := st.Effects.Names()
	themeID := st.ThemeID()
	if themeID == "" {
		themeID = seasonal.DefaultThemeID
	}
	s.logger.Info().Str("theme", themeID).Strs("effects", effects).Msg("Seasonal theme transition")

	s.record(ctx, &database.Transition{
		Kind:       database.KindSeason,
		State:      themeID,
		Detail:     strings.Join(effects, ","),
		OccurredAt: now,
	})

	payload := events.SeasonTransition{
		Store:     store,
		ThemeID:   themeID,
		Effects:   effects,
		IsHoliday: st.IsHoliday,
	}
	if st.ActiveTheme != nil {
		payload.DisplayName = st.ActiveTheme.DisplayName
	}
	s.publish(events.TypeSeasonTransition, payload)
}

func (s *Service) record(ctx context.Context, t *database.Transition) {
	metrics.IncTransition(t.Kind)
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordTransition(ctx, t); err != nil {
		s.logger.Error().Err(err).Str("kind", t.Kind).Msg("Failed to journal transition")
	}
}

func (s *Service) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	ev, err := events.NewEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", eventType).Msg("Failed to build event")
		return
	}
	s.bus.Publish(ev)
}

func (s *Service) warnOverlaps(store *config.StoreConfig) {
	for _, o := range store.ThemeOverlaps() {
		s.logger.Warn().Str("first", o.First).Str("second", o.Second).
			Msg("Seasonal themes overlap; the first declared wins")
	}
}

// Hours returns the latest status and whether it has been computed yet.
func (s *Service) Hours() (hours.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hours, s.hoursReady
}

// Season returns the latest seasonal state, the store-local instant it was evaluated for,
// and whether it has been computed yet.
func (s *Service) Season() (seasonal.State, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.season, s.seasonDay, s.seasonReady
}

// Ready reports whether both snapshots exist.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hoursReady && s.seasonReady
}

// Store returns the active store configuration.
func (s *Service) Store() *config.StoreConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// HoursAt resolves the status for an arbitrary instant against the active schedule.
func (s *Service) HoursAt(t time.Time) hours.Status {
	store := s.Store()
	return hours.Resolve(t, store.Schedule(), store.Location())
}

// SeasonAt evaluates the theme table for the calendar day of t in the store timezone.
func (s *Service) SeasonAt(t time.Time) seasonal.State {
	store := s.Store()
	return seasonal.Evaluate(t.In(store.Location()), store.ThemeTable())
}
