package core

import "time"

// DateSection is the age band a list falls into on the lists screen.
type DateSection int

const (
	SectionToday DateSection = iota
	SectionPrevious7Days
	SectionPrevious30Days
	SectionOlder
)

var sectionTitles = [...]string{
	SectionToday:          "Today",
	SectionPrevious7Days:  "Previous 7 Days",
	SectionPrevious30Days: "Previous 30 Days",
	SectionOlder:          "Older",
}

func (s DateSection) String() string {
	if int(s) < len(sectionTitles) {
		return sectionTitles[s]
	}
	return "Older"
}

// SectionGroup is one age band with the lists it holds, in input order.
type SectionGroup struct {
	Section DateSection
	Lists   []GroceryList
}

// GroupListsByDateSection buckets each list into exactly one section by
// calendar day, not elapsed wall-clock time: a list created at 23:59
// today and one created at 00:01 today are both "Today". Boundaries are
// start-of-day(now) minus 7 and 30 days, inclusive. Lists without a
// creation date are silently dropped. All four sections are returned in
// fixed order; empty ones carry a nil slice.
func GroupListsByDateSection(now time.Time, lists []GroceryList) []SectionGroup {
	today := startOfDay(now)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	groups := []SectionGroup{
		{Section: SectionToday},
		{Section: SectionPrevious7Days},
		{Section: SectionPrevious30Days},
		{Section: SectionOlder},
	}

	for _, l := range lists {
		if l.DateCreated.IsZero() {
			continue
		}
		created := startOfDay(l.DateCreated)

		var s DateSection
		switch {
		case created.Equal(today):
			s = SectionToday
		case !created.Before(weekAgo):
			s = SectionPrevious7Days
		case !created.Before(monthAgo):
			s = SectionPrevious30Days
		default:
			s = SectionOlder
		}
		groups[s].Lists = append(groups[s].Lists, l)
	}

	return groups
}
