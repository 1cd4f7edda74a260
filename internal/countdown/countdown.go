// Package countdown derives the time-dependent labels shown next to events.
package countdown

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"
)

// MaskWindow is how far ahead an event's name is revealed.
const MaskWindow = 7 * 24 * time.Hour

var (
	weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	months   = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// TimeLeft formats the remaining time as DD:HH:MM:SS, or all zeros once
// the target has passed.
func TimeLeft(target, now time.Time) string {
	d := target.Sub(now)
	if d <= 0 {
		return "00:00:00:00"
	}

	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", days, hours, minutes, seconds)
}

// FormatDate renders "Mon Jan 02" in the date's own location.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %s %02d", weekdays[t.Weekday()], months[t.Month()-1], t.Day())
}

func Masked(date, now time.Time) bool {
	return date.Sub(now) > MaskWindow
}

func MaskName(name string, date, now time.Time) string {
	if !Masked(date, now) {
		return name
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune('*')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Stream calls fn with the current time right away and then on every tick
// until ctx is done.
func Stream(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn func(time.Time) error) error {
	if err := fn(clock.Now()); err != nil {
		return err
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.Chan():
			if err := fn(now); err != nil {
				return err
			}
		}
	}
}
