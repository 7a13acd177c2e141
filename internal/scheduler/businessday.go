package scheduler

import "time"

// AddBusinessDays возвращает календарную дату ровно через k рабочих дней после now.
// Рабочий день - с понедельника по пятницу, праздники не учитываются.
// Результат - полночь в часовом поясе now.
func AddBusinessDays(now time.Time, k int) time.Time {
	day := truncateToDate(now)
	for added := 0; added < k; {
		day = day.AddDate(0, 0, 1)
		if isBusinessDay(day) {
			added++
		}
	}
	return day
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dateKey переводит дату в полночь UTC: так даты сравниваются с колонкой DATE.
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
