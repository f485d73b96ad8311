package kitchen

import (
	"fmt"
	"slices"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/domain"
)

// BuildItems flattens every (order, item) pair into a preparation item.
// Items whose status, delivery time or category cannot be read are returned
// in skipped instead of failing the whole build. The result is ordered by prep
// start.
func BuildItems(orders []*domain.Order, calc *domain.PrepCalculator, date domain.Date) ([]domain.PreparationItem, []domain.SkippedItem) {
	var (
		items   []domain.PreparationItem
		skipped []domain.SkippedItem
	)

	for _, order := range orders {
		if order == nil {
			continue
		}
		for _, it := range order.Items {
			status, err := domain.ParseItemStatus(string(it.Status))
			if err != nil {
				skipped = append(skipped, skip(order, it, err))
				continue
			}

			prepStart, err := calc.PrepStart(order.DeliveryTime, it.Category, date)
			if err != nil {
				skipped = append(skipped, skip(order, it, err))
				continue
			}

			items = append(items, domain.PreparationItem{
				ItemID:       it.ID,
				OrderID:      order.ID,
				OrderNumber:  order.Number,
				CustomerName: order.CustomerName,
				MenuItemName: it.MenuItemName,
				VariantName:  it.VariantName,
				SauceName:    it.SauceName,
				Quantity:     it.Quantity,
				Notes:        it.Notes,
				Category:     it.Category,
				DeliveryTime: order.DeliveryTime,
				PrepStart:    prepStart,
				Status:       status,
			})
		}
	}

	slices.SortStableFunc(items, byPrepStart)
	return items, skipped
}

// Project evaluates items at now for the requested layout. Input items are
// not modified. A zero leadTimes table reads as the default schedule.
func Project(items []domain.PreparationItem, now time.Time, opts domain.ViewOptions, leadTimes domain.LeadTimeTable) *domain.KitchenView {
	view := &domain.KitchenView{
		Mode:          opts.Mode,
		ShowCompleted: opts.ShowCompleted,
		GeneratedAt:   now,
	}

	visible := make([]domain.ViewItem, 0, len(items))
	for _, it := range items {
		if !opts.ShowCompleted && it.Status.Done() {
			continue
		}
		visible = append(visible, toViewItem(it, now))
	}

	switch opts.Mode {
	case domain.ViewTimeline:
		slices.SortStableFunc(visible, func(a, b domain.ViewItem) int {
			if wa, wb := a.Urgency.Weight(), b.Urgency.Weight(); wa != wb {
				return wa - wb
			}
			return a.PrepStart.Compare(b.PrepStart)
		})
		view.Items = visible

	default:
		view.Mode = domain.ViewByCategory
		if leadTimes.IsZero() {
			leadTimes = domain.DefaultLeadTimes()
		}
		for _, c := range domain.Categories() {
			hours, err := leadTimes.Hours(c)
			if err != nil {
				// built tables always cover every category
				panic(fmt.Sprintf("kitchen: lead time table without %s: %v", c, err))
			}
			group := domain.CategoryGroup{
				Category:      c,
				Label:         c.Label(),
				LeadTimeHours: hours,
				Items:         []domain.ViewItem{},
			}
			for _, it := range visible {
				if it.Category == c {
					group.Items = append(group.Items, it)
				}
			}
			slices.SortStableFunc(group.Items, func(a, b domain.ViewItem) int {
				return a.PrepStart.Compare(b.PrepStart)
			})
			view.Groups = append(view.Groups, group)
		}
	}

	return view
}

func toViewItem(it domain.PreparationItem, now time.Time) domain.ViewItem {
	urgency := it.Urgency(now)
	return domain.ViewItem{
		PreparationItem: it,
		Urgency:         urgency,
		Overdue:         urgency == domain.UrgencyOverdue && it.Status == domain.ItemStatusPending,
	}
}

func skip(order *domain.Order, it domain.OrderItem, err error) domain.SkippedItem {
	return domain.SkippedItem{
		ItemID:      it.ID,
		OrderNumber: order.Number,
		Reason:      err.Error(),
	}
}

func byPrepStart(a, b domain.PreparationItem) int {
	return a.PrepStart.Compare(b.PrepStart)
}
