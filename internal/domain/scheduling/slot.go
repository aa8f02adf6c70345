package scheduling

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// SlotDurationMinutes is the fixed length of every bookable slot.
	SlotDurationMinutes = 15

	openingHour = 8  // first slot starts 08:00
	closingHour = 17 // no slot starts at or after 17:00
)

// SlotTime is a time-of-day slot boundary. It round-trips both the HH:MM
// form used by the booking UI and the HH:MM:SS form stored by the
// auto-allocation path; the two compare equal when they name the same
// minute.
type SlotTime struct {
	hour        int
	minute      int
	withSeconds bool
}

// NewSlotTime builds a SlotTime in the HH:MM form.
func NewSlotTime(hour, minute int) SlotTime {
	return SlotTime{hour: hour, minute: minute}
}

// ParseSlotTime accepts "HH:MM" or "HH:MM:SS" (seconds must be zero) and
// preserves which form it was given.
func ParseSlotTime(s string) (SlotTime, error) {
	var h, m, sec int
	if n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err == nil && n == 3 {
		if err := validateSlotTime(h, m); err != nil {
			return SlotTime{}, err
		}
		if sec != 0 {
			return SlotTime{}, fmt.Errorf("slot time %q: seconds must be zero", s)
		}
		return SlotTime{hour: h, minute: m, withSeconds: true}, nil
	}
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err == nil && n == 2 {
		if err := validateSlotTime(h, m); err != nil {
			return SlotTime{}, err
		}
		return SlotTime{hour: h, minute: m}, nil
	}
	return SlotTime{}, fmt.Errorf("invalid slot time %q", s)
}

func validateSlotTime(h, m int) error {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("slot time out of range: %02d:%02d", h, m)
	}
	return nil
}

// String renders the slot in the same form it was parsed with.
func (t SlotTime) String() string {
	if t.withSeconds {
		return fmt.Sprintf("%02d:%02d:00", t.hour, t.minute)
	}
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// Canonical renders the slot as HH:MM:SS for storage.
func (t SlotTime) Canonical() string {
	return fmt.Sprintf("%02d:%02d:00", t.hour, t.minute)
}

// Minutes returns the minute-of-day, the comparison key for slot times.
func (t SlotTime) Minutes() int { return t.hour*60 + t.minute }

// Equal compares by minute-of-day regardless of representation.
func (t SlotTime) Equal(o SlotTime) bool { return t.Minutes() == o.Minutes() }

// Before reports whether t names an earlier minute than o.
func (t SlotTime) Before(o SlotTime) bool { return t.Minutes() < o.Minutes() }

// Add advances the slot time by the given number of minutes, rolling over
// into the next hour. Nothing clamps at the closing boundary: a 16:50
// start yields a 17:05 end.
func (t SlotTime) Add(minutes int) SlotTime {
	total := t.Minutes() + minutes
	return SlotTime{
		hour:        (total / 60) % 24,
		minute:      total % 60,
		withSeconds: t.withSeconds,
	}
}

// End returns the end boundary of the slot starting at t.
func (t SlotTime) End() SlotTime { return t.Add(SlotDurationMinutes) }

// WithSeconds returns the same minute in the HH:MM:SS form.
func (t SlotTime) WithSeconds() SlotTime {
	t.withSeconds = true
	return t
}

// MarshalJSON renders the slot as a string in its original form.
func (t SlotTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses either supported form.
func (t *SlotTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseSlotTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Overlaps applies the half-open interval test: [t, t+dur) overlaps
// [oStart, oEnd) iff t < oEnd and t+dur > oStart. Adjacent slots do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd SlotTime) bool {
	return aStart.Minutes() < bEnd.Minutes() && aEnd.Minutes() > bStart.Minutes()
}

// DailySlots returns the fixed catalog of bookable slots for any day:
// every 15-minute boundary from 08:00 inclusive to 17:00 exclusive.
func DailySlots() []SlotTime {
	var slots []SlotTime
	for h := openingHour; h < closingHour; h++ {
		for m := 0; m < 60; m += SlotDurationMinutes {
			slots = append(slots, NewSlotTime(h, m))
		}
	}
	return slots
}

// Frequency is the step of a recurring appointment series.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// ExpandRecurrence generates the ordered candidate dates from start to end
// inclusive, stepping by the frequency. Monthly steps anchor on the start
// date's day-of-month and clamp to the last day of shorter months, so a
// Jan 31 anchor yields Feb 28 (or 29) and then Mar 31 — never a skipped or
// duplicated month.
func ExpandRecurrence(start, end time.Time, freq Frequency) ([]time.Time, error) {
	if !freq.IsValid() {
		return nil, fmt.Errorf("invalid frequency %q", freq)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	start = truncateToDay(start)
	end = truncateToDay(end)

	var dates []time.Time
	switch freq {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly:
		step := map[Frequency]int{
			FrequencyDaily:    1,
			FrequencyWeekly:   7,
			FrequencyBiweekly: 14,
		}[freq]
		for d := start; !d.After(end); d = d.AddDate(0, 0, step) {
			dates = append(dates, d)
		}
	case FrequencyMonthly:
		anchorDay := start.Day()
		for i := 0; ; i++ {
			y, m, _ := start.AddDate(0, i, -start.Day()+1).Date()
			day := anchorDay
			if last := daysInMonth(y, m); day > last {
				day = last
			}
			d := time.Date(y, m, day, 0, 0, 0, 0, start.Location())
			if d.After(end) {
				break
			}
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
