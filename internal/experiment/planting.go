package experiment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agmipkit/internal/ace"
	"agmipkit/internal/event"
)

// ErrNoWindow is returned when the weather data has no day matching the earliest planting date.
var ErrNoWindow = errors.New("no daily weather for the planting window")

type window struct {
	start, end int
}

// AutoPlantingDate sets the planting date of every simulated year to the first day of the
// planting window on which the rain of the last days days reaches rain mm. earliest and latest
// are month-day dates ("MM-DD" or "MMDD"); the window wraps into the next year when latest comes
// first.
//
// exp_dur selects the number of years. A multi-year run starts with sc_year, a single-year run
// with the year of the recorded planting event; otherwise the first weather year is used. Years
// without a qualifying day keep their planting event unchanged. The planting dates found are
// returned in window order.
func AutoPlantingDate(exp *ace.Experiment, earliest, latest, rain, days string) ([]string, error) {
	daily := exp.DailyWeather()
	if exp.Weather() == nil || len(daily) == 0 {
		return nil, missing("daily weather")
	}

	expDur, err := strconv.Atoi(strings.TrimSpace(exp.Value("exp_dur")))
	if err != nil || expDur < 1 {
		expDur = 1
	}
	startYear := 0
	if expDur > 1 {
		startYear = yearPrefix(exp.Value("sc_year"))
	}

	tl := event.New(exp.Events(), event.TypePlanting)
	if expDur == 1 && tl.Exists() {
		startYear = yearPrefix(tl.Current()["date"])
	}

	startIdx := 0
	if startYear != 0 {
		startIdx = findYearStart(daily, startYear)
		if startIdx == len(daily) {
			if expDur > 1 {
				return nil, fmt.Errorf("start year %d is out of the weather data range: %w", startYear, ErrNoData)
			}
			startIdx = 0
		}
	}

	eMonth, eDay, err := parseMonthDay(earliest)
	if err != nil {
		return nil, fmt.Errorf("invalid earliest date %q: %w", earliest, err)
	}
	lMonth, lDay, err := parseMonthDay(latest)
	if err != nil {
		return nil, fmt.Errorf("invalid latest date %q: %w", latest, err)
	}
	duration := windowLength(eMonth, eDay, lMonth, lDay)
	eKey := fmt.Sprintf("%02d%02d", eMonth, eDay)
	lKey := fmt.Sprintf("%02d%02d", lMonth, lDay)

	nDays, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil {
		return nil, fmt.Errorf("invalid number of accumulation days %q: %w", days, err)
	}
	if nDays <= 0 {
		return nil, fmt.Errorf("number of accumulation days must be positive, got %d", nDays)
	}
	threshold, err := parseFloat("rainfall threshold", rain)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("rainfall threshold must be positive, got %v", threshold)
	}

	windows := make([]window, expDur)
	start := dailyIndex(daily, eKey, startIdx, 0)
	for i := range windows {
		end := dailyIndex(daily, lKey, start, duration)
		windows[i] = window{start: start, end: end}
		if i+1 < len(windows) {
			start = dailyIndex(daily, eKey, end, 365-duration)
		}
	}
	if windows[0].start == len(daily) {
		return nil, ErrNoWindow
	}

	var found []string
	for _, w := range windows {
		if date, ok := firstRainyDay(daily, w, nDays, threshold); ok {
			tl.Update("date", date, true, true)
			found = append(found, date)
		}
	}
	if len(found) > 0 {
		exp.SetEvents(tl.Events())
	}
	return found, nil
}

// firstRainyDay scans a window with a rolling sum over the last n days. Days whose rain cannot be
// parsed are skipped.
func firstRainyDay(daily []ace.Record, w window, n int, threshold float64) (string, bool) {
	last := min(w.start+n, w.end)
	acc := 0.0
	for j := w.start; j < last; j++ {
		r, err := rainOf(daily[j])
		if err != nil {
			continue
		}
		acc += r
		if acc >= threshold {
			return daily[j].Value("w_date"), true
		}
	}
	for j := last; j < w.end; j++ {
		dropped, err := rainOf(daily[j-n])
		if err != nil {
			continue
		}
		added, err := rainOf(daily[j])
		if err != nil {
			continue
		}
		acc += added - dropped
		if acc >= threshold {
			return daily[j].Value("w_date"), true
		}
	}
	return "", false
}

func rainOf(rec ace.Record) (float64, error) {
	v := strings.TrimSpace(rec.Value("rain"))
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func yearPrefix(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// findYearStart returns the index of January 1st of year, jumping a year ahead at every other
// January 1st. It returns len(daily) when the year is absent.
func findYearStart(daily []ace.Record, year int) int {
	want := fmt.Sprintf("%d0101", year)
	for i := 0; i < len(daily); i++ {
		d := daily[i].Value("w_date")
		if d == want {
			return i
		}
		if strings.HasSuffix(d, "0101") {
			i += 364
		}
	}
	return len(daily)
}

// parseMonthDay accepts MM-DD, YYYY-MM-DD, MMDD and YYYYMMDD.
func parseMonthDay(s string) (month, day int, err error) {
	s = strings.TrimSpace(s)
	var mm, dd string
	if parts := strings.Split(s, "-"); len(parts) >= 2 {
		mm, dd = parts[len(parts)-2], parts[len(parts)-1]
	} else if len(s) >= 4 {
		mm, dd = s[len(s)-4:len(s)-2], s[len(s)-2:]
	} else {
		return 0, 0, errors.New("expected MM-DD or MMDD")
	}
	if month, err = strconv.Atoi(mm); err != nil {
		return 0, 0, err
	}
	if day, err = strconv.Atoi(dd); err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("month %d day %d out of range", month, day)
	}
	return month, day, nil
}

// windowLength is the number of days from the earliest to the latest date, counted in a common
// year and wrapping into the next one.
func windowLength(eMonth, eDay, lMonth, lDay int) int {
	const year = 2001
	e := time.Date(year, time.Month(eMonth), eDay, 0, 0, 0, 0, time.UTC)
	l := time.Date(year, time.Month(lMonth), lDay, 0, 0, 0, 0, time.UTC)
	if e.After(l) {
		l = l.AddDate(1, 0, 0)
	}
	return int(l.Sub(e).Hours() / 24)
}

// sameMonthDay matches a YYYYMMDD date against MMDD. February 29th matches the 28th in common
// years.
func sameMonthDay(date, monthDay string) bool {
	if monthDay == "0229" && len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil && !isLeap(y) {
			return strings.HasSuffix(date, "0228")
		}
	}
	return strings.HasSuffix(date, monthDay)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// dailyIndex finds monthDay at or after start. The records at start+hint and start+hint+1 are
// tried first. It returns len(daily) when no record matches.
func dailyIndex(daily []ace.Record, monthDay string, start, hint int) int {
	for _, i := range []int{start + hint, start + hint + 1} {
		if i >= 0 && i < len(daily) && sameMonthDay(daily[i].Value("w_date"), monthDay) {
			return i
		}
	}
	for j := start; j < len(daily); j++ {
		if sameMonthDay(daily[j].Value("w_date"), monthDay) {
			return j
		}
	}
	return len(daily)
}
