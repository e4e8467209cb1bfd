package nutrition

import (
	"sort"
	"time"

	"github.com/sakif/nutri-track/internal/model"
)

// DayLayout is the calendar-day key format. Keys sort lexically in date order.
const DayLayout = "2006-01-02"

// HistoryLookbackDays bounds how far back the history view loads meals.
const HistoryLookbackDays = 30

// WeekDays is the length of the trailing weekly series, today included.
const WeekDays = 7

// DayKey returns the local calendar day t falls on in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// StartOfDay returns the first instant of the local day t falls on in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return dayStart(y, m, d, loc)
}

// TodayRange returns [start of day, start of next day) for the local day
// containing now. A DST day is 23 or 25 hours long.
func TodayRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := now.In(loc).Date()
	return DayRange(y, m, d, loc)
}

// DayRange returns [start, end) of the calendar day y-m-d in loc. Out of
// range days are normalized the way time.Date does.
func DayRange(y int, m time.Month, d int, loc *time.Location) (time.Time, time.Time) {
	return dayStart(y, m, d, loc), dayStart(y, m, d+1, loc)
}

// DaysAgo returns the start of the local day n calendar days before the day
// of now. It is also the start of an n-day lookback window.
func DaysAgo(now time.Time, n int, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return dayStart(y, m, d-n, loc)
}

// calendarDay returns noon of the day n calendar days before the day of now.
// Keys and labels come from it, never from a computed midnight.
func calendarDay(now time.Time, n int, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-n, 12, 0, 0, 0, loc)
}

// dayStart returns the first instant whose local date in loc is y-m-d.
// Where DST begins at midnight (America/Santiago, America/Havana) local
// midnight does not exist and the day starts at 01:00.
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	key := noon.Format(DayLayout)

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Format(DayLayout) == key && t.Add(-time.Second).Format(DayLayout) < key {
		return t
	}

	// Midnight is skipped or repeated: search for the first second of the day.
	lo, hi := noon.Add(-48*time.Hour).Unix(), noon.Unix()
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if time.Unix(mid, 0).In(loc).Format(DayLayout) >= key {
			hi = mid
		} else {
			lo = mid
		}
	}
	return time.Unix(hi, 0).In(loc)
}

// BucketByLocalDay groups meals by the local day of LoggedAt. Within a bucket
// meals keep their input order.
func BucketByLocalDay(meals []model.Meal, loc *time.Location) map[string][]model.Meal {
	buckets := make(map[string][]model.Meal)
	for _, m := range meals {
		key := DayKey(m.LoggedAt, loc)
		buckets[key] = append(buckets[key], m)
	}
	return buckets
}

// SumNutrients totals the nutrient vectors of meals. An empty slice sums to
// the zero vector.
func SumNutrients(meals []model.Meal) model.Nutrients {
	var total model.Nutrients
	for _, m := range meals {
		total = total.Add(m.Nutrients)
	}
	return total
}

// DailyTotals maps each day key to the sum of that day's meals.
func DailyTotals(buckets map[string][]model.Meal) map[string]model.Nutrients {
	totals := make(map[string]model.Nutrients, len(buckets))
	for key, meals := range buckets {
		totals[key] = SumNutrients(meals)
	}
	return totals
}

// SortedDayKeys returns the bucket keys, newest first.
func SortedDayKeys(buckets map[string][]model.Meal) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// ExcludeToday drops the key for the local day of now, preserving order.
func ExcludeToday(keys []string, now time.Time, loc *time.Location) []string {
	today := DayKey(now, loc)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != today {
			out = append(out, k)
		}
	}
	return out
}

// DayLabel names a day key relative to today: "Today", "Yesterday" or the
// full date such as "Monday, January 2, 2006".
func DayLabel(key string, now time.Time, loc *time.Location) string {
	switch key {
	case DayKey(now, loc):
		return "Today"
	case calendarDay(now, 1, loc).Format(DayLayout):
		return "Yesterday"
	}
	day, err := time.Parse(DayLayout, key)
	if err != nil {
		return key
	}
	return day.Format("Monday, January 2, 2006")
}

// DaySummary is one day of the weekly series or the history list.
type DaySummary struct {
	Date      string          `json:"date"`
	Label     string          `json:"label"`
	Totals    model.Nutrients `json:"totals"`
	MealCount int             `json:"mealCount"`
}

// WeeklySeries returns exactly WeekDays entries, oldest first and ending with
// today. Days without meals carry zero totals. Labels are short weekday names.
func WeeklySeries(meals []model.Meal, now time.Time, loc *time.Location) []DaySummary {
	buckets := BucketByLocalDay(meals, loc)
	series := make([]DaySummary, 0, WeekDays)
	for i := WeekDays - 1; i >= 0; i-- {
		day := calendarDay(now, i, loc)
		key := day.Format(DayLayout)
		series = append(series, DaySummary{
			Date:      key,
			Label:     day.Format("Mon"),
			Totals:    SumNutrients(buckets[key]),
			MealCount: len(buckets[key]),
		})
	}
	return series
}

// AverageCalories is the mean daily calories over the series, rounded half
// up. Empty days count toward the denominator.
func AverageCalories(series []DaySummary) int {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, d := range series {
		sum += d.Totals.Calories
	}
	return int(roundHalfUp(sum / float64(len(series))))
}
