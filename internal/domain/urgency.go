package domain

import "time"

// Urgency classifies a prep start instant against the current instant. It is
// always derived, never stored.
type Urgency string

const (
	UrgencyOverdue  Urgency = "atrasado"
	UrgencyStartNow Urgency = "preparar_ahora"
	UrgencyUpcoming Urgency = "proximamente"
	UrgencyFuture   Urgency = "futuro"
)

const (
	startNowWindow = 15 * time.Minute
	upcomingWindow = 60 * time.Minute
)

// Classify compares prepStart with now. Thresholds are inclusive on the
// "start now" and "upcoming" side: [-15m, +15m] is start now, (15m, 60m]
// is upcoming.
func Classify(prepStart, now time.Time) Urgency {
	diff := prepStart.Sub(now)

	switch {
	case diff < -startNowWindow:
		return UrgencyOverdue
	case diff <= startNowWindow:
		return UrgencyStartNow
	case diff <= upcomingWindow:
		return UrgencyUpcoming
	default:
		return UrgencyFuture
	}
}

// Weight is the timeline sort key. Start-now items rank ahead of overdue
// ones; the board has always shown them in that order.
func (u Urgency) Weight() int {
	switch u {
	case UrgencyStartNow:
		return 0
	case UrgencyOverdue:
		return 1
	case UrgencyUpcoming:
		return 2
	default:
		return 3
	}
}
