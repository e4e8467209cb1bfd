package nutrition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sakif/nutri-track/internal/model"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("zone %s not available: %v", name, err)
	}
	return loc
}

func meal(at time.Time, kcal float64) model.Meal {
	return model.Meal{
		Name:      "test",
		Nutrients: model.Nutrients{Calories: kcal, Protein: kcal / 10},
		Type:      model.MealSnack,
		LoggedAt:  at,
	}
}

func TestDayKey_LocalMidnightBelongsToThatDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	if got := DayKey(midnight, loc); got != "2024-03-10" {
		t.Errorf("DayKey(local midnight) = %q, want 2024-03-10", got)
	}

	justBefore := midnight.Add(-time.Nanosecond)
	if got := DayKey(justBefore, loc); got != "2024-03-09" {
		t.Errorf("DayKey(23:59:59.999) = %q, want 2024-03-09", got)
	}

	// 20:00 UTC on the 9th is already the 10th in India.
	utc := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	if got := DayKey(utc, loc); got != "2024-03-10" {
		t.Errorf("DayKey(UTC instant) = %q, want 2024-03-10", got)
	}
}

func TestTodayRange_DST(t *testing.T) {
	loc := mustZone(t, "America/New_York")

	// Spring forward: 2024-03-10 is 23 hours long.
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, loc)
	start, end := TodayRange(now, loc)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Errorf("spring-forward day length = %v, want 23h", got)
	}
	if DayKey(start, loc) != "2024-03-10" || DayKey(end, loc) != "2024-03-11" {
		t.Errorf("range = [%v, %v), want the 10th to the 11th", start, end)
	}

	// Fall back: 2024-11-03 is 25 hours long.
	now = time.Date(2024, 11, 3, 12, 0, 0, 0, loc)
	start, end = TodayRange(now, loc)
	if got := end.Sub(start); got != 25*time.Hour {
		t.Errorf("fall-back day length = %v, want 25h", got)
	}
}

// Chile and Cuba change clocks at local midnight, so some days have no 00:00
// and others have two.
func TestTodayRange_MidnightTransitions(t *testing.T) {
	tests := []struct {
		name      string
		zone      string
		now       [3]int // year, month, day; evaluated at 12:00 local
		wantStart time.Time
		wantLen   time.Duration
	}{
		{
			name:      "Santiago spring forward starts at 01:00",
			zone:      "America/Santiago",
			now:       [3]int{2024, 9, 8},
			wantStart: time.Date(2024, 9, 8, 4, 0, 0, 0, time.UTC),
			wantLen:   23 * time.Hour,
		},
		{
			name:      "Santiago day before keeps its last hour",
			zone:      "America/Santiago",
			now:       [3]int{2024, 9, 7},
			wantStart: time.Date(2024, 9, 7, 4, 0, 0, 0, time.UTC),
			wantLen:   24 * time.Hour,
		},
		{
			name:      "Santiago fall back",
			zone:      "America/Santiago",
			now:       [3]int{2024, 4, 6},
			wantStart: time.Date(2024, 4, 6, 3, 0, 0, 0, time.UTC),
			wantLen:   25 * time.Hour,
		},
		{
			name:      "Havana spring forward starts at 01:00",
			zone:      "America/Havana",
			now:       [3]int{2024, 3, 10},
			wantStart: time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC),
			wantLen:   23 * time.Hour,
		},
		{
			name:      "Havana fall back starts at the first 00:00",
			zone:      "America/Havana",
			now:       [3]int{2024, 11, 3},
			wantStart: time.Date(2024, 11, 3, 4, 0, 0, 0, time.UTC),
			wantLen:   25 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := mustZone(t, tt.zone)
			now := time.Date(tt.now[0], time.Month(tt.now[1]), tt.now[2], 12, 0, 0, 0, loc)
			want := now.Format(DayLayout)

			start, end := TodayRange(now, loc)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start.UTC(), tt.wantStart)
			}
			if got := end.Sub(start); got != tt.wantLen {
				t.Errorf("day length = %v, want %v", got, tt.wantLen)
			}
			if DayKey(start, loc) != want {
				t.Errorf("start %v is not on %s", start, want)
			}
			if DayKey(start.Add(-time.Second), loc) == want {
				t.Errorf("the second before %v is still on %s", start, want)
			}
			if DayKey(end, loc) == want || DayKey(end.Add(-time.Second), loc) != want {
				t.Errorf("end %v does not close %s", end, want)
			}
		})
	}
}

// Consecutive day ranges tile the timeline with no gap or overlap.
func TestTodayRange_ConsecutiveDaysTile(t *testing.T) {
	for _, zone := range []string{"America/Santiago", "America/Havana", "America/New_York"} {
		loc := mustZone(t, zone)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, loc)
		_, prevEnd := TodayRange(now, loc)
		for i := 1; i < 366; i++ {
			day := time.Date(2024, 1, 1+i, 12, 0, 0, 0, loc)
			start, end := TodayRange(day, loc)
			if !start.Equal(prevEnd) {
				t.Fatalf("%s %s: start %v != previous end %v", zone, day.Format(DayLayout), start, prevEnd)
			}
			if !start.Before(end) {
				t.Fatalf("%s %s: empty range", zone, day.Format(DayLayout))
			}
			prevEnd = end
		}
	}
}

func TestTodayRange_LateMealBeforeSkippedMidnight(t *testing.T) {
	loc := mustZone(t, "America/Santiago")
	// 23:30 -04 on the 7th, half an hour before clocks jump to 01:00 on the 8th.
	late := time.Date(2024, 9, 8, 3, 30, 0, 0, time.UTC)

	start, end := TodayRange(late, loc)
	if late.Before(start) || !late.Before(end) {
		t.Errorf("meal at %v outside its own day [%v, %v)", late.In(loc), start, end)
	}
	if DayKey(late, loc) != "2024-09-07" {
		t.Errorf("DayKey = %s, want 2024-09-07", DayKey(late, loc))
	}
}

func TestDaysAgo(t *testing.T) {
	tests := []struct {
		zone string
		now  time.Time // UTC
		n    int
		want time.Time // UTC
	}{
		{"UTC", time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC), 2, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
		{"America/Santiago", time.Date(2024, 9, 10, 15, 0, 0, 0, time.UTC), 2, time.Date(2024, 9, 8, 4, 0, 0, 0, time.UTC)},
		{"America/Santiago", time.Date(2024, 9, 10, 15, 0, 0, 0, time.UTC), 3, time.Date(2024, 9, 7, 4, 0, 0, 0, time.UTC)},
		{"America/Havana", time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC), 2, time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC)},
		{"America/Havana", time.Date(2024, 11, 5, 15, 0, 0, 0, time.UTC), 2, time.Date(2024, 11, 3, 4, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.zone+"/"+tt.want.Format(DayLayout), func(t *testing.T) {
			loc := mustZone(t, tt.zone)
			if got := DaysAgo(tt.now, tt.n, loc); !got.Equal(tt.want) {
				t.Errorf("DaysAgo(%d) = %v, want %v", tt.n, got.UTC(), tt.want)
			}
		})
	}
}

func TestDayRange_NormalizesOverflow(t *testing.T) {
	start, end := DayRange(2024, 12, 32, time.UTC)
	if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DayRange(2024-12-32) = [%v, %v)", start, end)
	}
}

func TestBucketByLocalDay(t *testing.T) {
	loc := time.UTC
	d1 := time.Date(2024, 5, 1, 8, 0, 0, 0, loc)
	d2 := time.Date(2024, 5, 2, 23, 59, 0, 0, loc)

	buckets := BucketByLocalDay([]model.Meal{
		meal(d1, 300),
		meal(d2, 500),
		meal(d1.Add(4*time.Hour), 200),
	}, loc)

	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if n := len(buckets["2024-05-01"]); n != 2 {
		t.Errorf("2024-05-01 has %d meals, want 2", n)
	}
	totals := DailyTotals(buckets)
	if got := totals["2024-05-01"].Calories; got != 500 {
		t.Errorf("2024-05-01 calories = %v, want 500", got)
	}
	if got := totals["2024-05-02"].Calories; got != 500 {
		t.Errorf("2024-05-02 calories = %v, want 500", got)
	}
}

// The sum of the per-day totals equals the total over all meals.
func TestDailyTotals_PreservesSum(t *testing.T) {
	loc := mustZone(t, "Asia/Kolkata")
	r := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 50; round++ {
		var meals []model.Meal
		n := r.Intn(40)
		for i := 0; i < n; i++ {
			at := base.Add(time.Duration(r.Int63n(int64(30 * 24 * time.Hour))))
			meals = append(meals, meal(at, float64(r.Intn(900))))
		}

		var fromDays float64
		for _, n := range DailyTotals(BucketByLocalDay(meals, loc)) {
			fromDays += n.Calories
		}
		if all := SumNutrients(meals).Calories; all != fromDays {
			t.Fatalf("round %d: per-day sum %v != overall %v", round, fromDays, all)
		}
	}
}

func TestSortedDayKeys_NewestFirst(t *testing.T) {
	buckets := map[string][]model.Meal{
		"2024-04-30": nil,
		"2024-05-02": nil,
		"2023-12-31": nil,
		"2024-05-01": nil,
	}
	got := SortedDayKeys(buckets)
	want := []string{"2024-05-02", "2024-05-01", "2024-04-30", "2023-12-31"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedDayKeys() = %v, want %v", got, want)
		}
	}

	now := time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC)
	got = ExcludeToday(got, now, time.UTC)
	if len(got) != 3 || got[0] != "2024-05-01" {
		t.Errorf("ExcludeDay() = %v", got)
	}
}

func TestWeeklySeries_AlwaysSevenDays(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 8, 10, 0, 0, 0, loc) // a Wednesday

	series := WeeklySeries(nil, now, loc)
	if len(series) != WeekDays {
		t.Fatalf("len = %d, want %d", len(series), WeekDays)
	}
	if series[0].Date != "2024-05-02" || series[6].Date != "2024-05-08" {
		t.Errorf("window = %s..%s, want 2024-05-02..2024-05-08", series[0].Date, series[6].Date)
	}
	if series[0].Label != "Thu" || series[6].Label != "Wed" {
		t.Errorf("labels = %s..%s, want Thu..Wed", series[0].Label, series[6].Label)
	}
	for _, d := range series {
		if d.Totals != (model.Nutrients{}) || d.MealCount != 0 {
			t.Errorf("%s: want zero totals, got %+v", d.Date, d)
		}
	}
	if got := AverageCalories(series); got != 0 {
		t.Errorf("AverageCalories(empty week) = %d, want 0", got)
	}
}

func TestWeeklySeries_TotalsAndAverage(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 8, 10, 0, 0, 0, loc)

	meals := []model.Meal{
		meal(time.Date(2024, 5, 8, 8, 0, 0, 0, loc), 600),
		meal(time.Date(2024, 5, 8, 13, 0, 0, 0, loc), 800),
		meal(time.Date(2024, 5, 5, 19, 0, 0, 0, loc), 1000),
		meal(time.Date(2024, 5, 1, 19, 0, 0, 0, loc), 5000), // outside the window
	}
	series := WeeklySeries(meals, now, loc)

	if got := series[6].Totals.Calories; got != 1400 {
		t.Errorf("today calories = %v, want 1400", got)
	}
	if got := series[6].MealCount; got != 2 {
		t.Errorf("today meal count = %d, want 2", got)
	}
	if got := series[3].Totals.Calories; got != 1000 {
		t.Errorf("2024-05-05 calories = %v, want 1000", got)
	}
	// (1400 + 1000) / 7 = 342.86
	if got := AverageCalories(series); got != 343 {
		t.Errorf("AverageCalories() = %d, want 343", got)
	}
}

func TestWeeklySeries_AcrossDST(t *testing.T) {
	loc := mustZone(t, "America/New_York")
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, loc)

	series := WeeklySeries(nil, now, loc)
	want := []string{"2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"}
	for i, d := range series {
		if d.Date != want[i] {
			t.Errorf("series[%d] = %s, want %s", i, d.Date, want[i])
		}
	}
}

func TestWeeklySeries_AcrossMidnightTransition(t *testing.T) {
	tests := []struct {
		zone string
		now  time.Time
		want []string
		meal time.Time
		idx  int
	}{
		{
			zone: "America/Santiago",
			now:  time.Date(2024, 9, 10, 15, 0, 0, 0, time.UTC),
			want: []string{"2024-09-04", "2024-09-05", "2024-09-06", "2024-09-07", "2024-09-08", "2024-09-09", "2024-09-10"},
			meal: time.Date(2024, 9, 8, 16, 0, 0, 0, time.UTC),
			idx:  4,
		},
		{
			zone: "America/Havana",
			now:  time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC),
			want: []string{"2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"},
			meal: time.Date(2024, 3, 10, 5, 30, 0, 0, time.UTC),
			idx:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			loc := mustZone(t, tt.zone)
			series := WeeklySeries([]model.Meal{meal(tt.meal, 500)}, tt.now, loc)
			if len(series) != WeekDays {
				t.Fatalf("len = %d, want %d", len(series), WeekDays)
			}
			for i, d := range series {
				if d.Date != tt.want[i] {
					t.Errorf("series[%d] = %s, want %s", i, d.Date, tt.want[i])
				}
			}
			if series[tt.idx].Label != "Sun" {
				t.Errorf("series[%d].Label = %s, want Sun", tt.idx, series[tt.idx].Label)
			}
			if got := series[tt.idx].Totals.Calories; got != 500 {
				t.Errorf("%s calories = %v, want 500", tt.want[tt.idx], got)
			}
		})
	}
}

func TestDayLabel_OnSkippedMidnight(t *testing.T) {
	loc := mustZone(t, "America/Santiago")
	now := time.Date(2024, 9, 9, 12, 0, 0, 0, loc)

	if got := DayLabel("2024-09-08", now, loc); got != "Yesterday" {
		t.Errorf("DayLabel(2024-09-08) = %q, want Yesterday", got)
	}
	if got := DayLabel("2024-09-08", now.AddDate(0, 0, 2), loc); got != "Sunday, September 8, 2024" {
		t.Errorf("DayLabel(2024-09-08) = %q", got)
	}
}

func TestDayLabel(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)

	tests := map[string]string{
		"2024-01-01": "Today",
		"2023-12-31": "Yesterday",
		"2023-12-25": "Monday, December 25, 2023",
		"garbage":    "garbage",
	}
	for key, want := range tests {
		if got := DayLabel(key, now, loc); got != want {
			t.Errorf("DayLabel(%q) = %q, want %q", key, got, want)
		}
	}
}
