package kitchen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
	"github.com/google/uuid"
)

// DefaultRefreshInterval is how often the board re-fetches orders so urgency
// follows the wall clock.
const DefaultRefreshInterval = 60 * time.Second

var ErrProjectorStopped = errors.New("kitchen projector stopped")

// Projector keeps the last good set of preparation items and serves views
// over it. All state is owned by the goroutine running Run: refresh ticks,
// change notifications and caller requests are handled one at a time, so a
// status change can never interleave with a refresh.
type Projector struct {
	store      interfaces.OrderStore
	publisher  interfaces.ChangePublisher
	calc       *domain.PrepCalculator
	date       domain.Date
	logger     logger.Logger
	now        func() time.Time
	interval   time.Duration
	deviceName string

	requests chan func()
	notify   chan struct{}
	done     chan struct{}

	// loop-owned
	items       []domain.PreparationItem
	skipped     []domain.SkippedItem
	refreshedAt time.Time

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

type Option func(*Projector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) { p.now = now }
}

func WithRefreshInterval(d time.Duration) Option {
	return func(p *Projector) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPublisher announces local status changes to other boards.
func WithPublisher(pub interfaces.ChangePublisher) Option {
	return func(p *Projector) { p.publisher = pub }
}

func WithDeviceName(name string) Option {
	return func(p *Projector) { p.deviceName = name }
}

// NewProjector builds a projector for one reference date. Call Run to start
// it; requests block until Run is serving.
func NewProjector(store interfaces.OrderStore, calc *domain.PrepCalculator, date domain.Date, lgr logger.Logger, opts ...Option) *Projector {
	p := &Projector{
		store:      store,
		calc:       calc,
		date:       date,
		logger:     lgr,
		now:        time.Now,
		interval:   DefaultRefreshInterval,
		deviceName: "kitchen-board",
		requests:   make(chan func()),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		subs:       make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads the board and then serves it until ctx is cancelled. It must be
// called once.
func (p *Projector) Run(ctx context.Context) error {
	defer close(p.done)

	if err := p.refresh(ctx); err != nil {
		p.logger.Error("initial_refresh_failed", "Failed to load orders", "", nil, err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("projector_stopped", "Kitchen projector stopped", "", nil)
			return ctx.Err()

		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				p.logger.Error("refresh_failed", "Periodic refresh failed, keeping last projection", "", nil, err)
				// urgency still moves with the clock
				p.broadcast()
			}

		case <-p.notify:
			if err := p.refresh(ctx); err != nil {
				p.logger.Error("refresh_failed", "Refresh after change notification failed", "", nil, err)
			}

		case req := <-p.requests:
			req()
		}
	}
}

// Refresh re-fetches orders now. On failure the previous projection is kept.
func (p *Projector) Refresh(ctx context.Context) error {
	return p.do(ctx, p.refresh)
}

// Notify asks for a refresh after an external change. Repeated calls before
// the loop picks them up collapse into one.
func (p *Projector) Notify() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// View evaluates the current projection at the projector's clock.
func (p *Projector) View(ctx context.Context, opts domain.ViewOptions) (*domain.KitchenView, error) {
	var view *domain.KitchenView
	err := p.do(ctx, func(context.Context) error {
		view = Project(p.items, p.now(), opts, p.calc.LeadTimes())
		view.RefreshedAt = p.refreshedAt
		view.Skipped = append([]domain.SkippedItem(nil), p.skipped...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Advance moves an item to its next status. The store is written first; the
// local copy changes only after the store accepts the write.
func (p *Projector) Advance(ctx context.Context, itemID uuid.UUID) (domain.ItemStatus, error) {
	var next domain.ItemStatus
	err := p.do(ctx, func(ctx context.Context) error {
		idx := p.indexOf(itemID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
		}

		item := p.items[idx]
		next = item.Status.Next()

		if _, err := p.store.SetItemStatus(ctx, itemID, next); err != nil {
			if errors.Is(err, domain.ErrStatusTransitionConflict) {
				p.logger.Error("status_conflict", "Store rejected status change, reconciling", "", map[string]interface{}{
					"item_id": itemID.String(),
					"status":  next,
				}, err)
				if rerr := p.refresh(ctx); rerr != nil {
					p.logger.Error("refresh_failed", "Refresh after conflict failed", "", nil, rerr)
				}
				return fmt.Errorf("advance item %s: %w", itemID, err)
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return fmt.Errorf("advance item %s: %w", itemID, err)
			}
			return fmt.Errorf("advance item %s: %w: %w", itemID, domain.ErrStoreUnavailable, err)
		}

		p.items[idx].Status = next
		p.logger.Debug("item_status_changed", fmt.Sprintf("Item %s is now %s", item.MenuItemName, next), "", map[string]interface{}{
			"item_id":      itemID.String(),
			"order_number": item.OrderNumber,
			"old_status":   item.Status,
			"new_status":   next,
		})

		p.announce(ctx, item, next)

		if err := p.refresh(ctx); err != nil {
			p.logger.Error("refresh_failed", "Refresh after status change failed, keeping local change", "", nil, err)
			p.broadcast()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Subscribe returns a channel signalled after every recompute. The channel
// holds at most one pending signal.
func (p *Projector) Subscribe() (<-chan struct{}, func()) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan struct{}, 1)
	p.subs[id] = ch

	return ch, func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Projector) do(ctx context.Context, fn func(ctx context.Context) error) error {
	errc := make(chan error, 1)
	req := func() { errc <- fn(ctx) }

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrProjectorStopped
	}

	return <-errc
}

func (p *Projector) refresh(ctx context.Context) error {
	orders, err := p.store.ListOrders(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	items, skipped := BuildItems(orders, p.calc, p.date)
	for _, s := range skipped {
		p.logger.Error("item_skipped", "Cannot schedule order item", "", map[string]interface{}{
			"item_id":      s.ItemID.String(),
			"order_number": s.OrderNumber,
		}, errors.New(s.Reason))
	}

	p.items = items
	p.skipped = skipped
	p.refreshedAt = p.now()

	p.logger.Debug("projection_refreshed", "Kitchen projection refreshed", "", map[string]interface{}{
		"orders":  len(orders),
		"items":   len(items),
		"skipped": len(skipped),
	})

	p.broadcast()
	return nil
}

func (p *Projector) announce(ctx context.Context, item domain.PreparationItem, next domain.ItemStatus) {
	if p.publisher == nil {
		return
	}

	msg := interfaces.ItemStatusChangedMessage{
		ItemID:      item.ItemID,
		OrderNumber: item.OrderNumber,
		OldStatus:   item.Status,
		NewStatus:   next,
		ChangedBy:   p.deviceName,
		Timestamp:   p.now(),
	}
	if err := p.publisher.PublishItemStatusChanged(ctx, msg); err != nil {
		// other boards still catch up on their next tick
		p.logger.Error("rabbitmq_publish_failed", "Failed to publish item status change", "", nil, err)
	}
}

func (p *Projector) broadcast() {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (p *Projector) indexOf(id uuid.UUID) int {
	for i := range p.items {
		if p.items[i].ItemID == id {
			return i
		}
	}
	return -1
}
