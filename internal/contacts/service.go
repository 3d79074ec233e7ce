package contacts

import (
	"context"
	"sort"
	"time"
)

// Service handles contact business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new contact for userID.
func (s *Service) Create(ctx context.Context, c Contact) (*Contact, error) {
	return s.repo.Create(ctx, c)
}

// Get returns one contact owned by userID.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Contact, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns a filtered page of contacts plus the total match count.
func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]Contact, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, userID, filter)
}

// Update applies a partial or full update to an owned contact.
func (s *Service) Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error) {
	return s.repo.Update(ctx, userID, id, patch)
}

// Delete removes an owned contact.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

// UpcomingBirthdays returns contacts whose next birthday falls within
// the lookahead window, ordered by that date. The rollover into next
// year is computed per contact; Feb 29 birthdays count as Feb 28 on
// non-leap years.
func (s *Service) UpcomingBirthdays(ctx context.Context, userID int64, days int, today time.Time) ([]Contact, error) {
	if days < 1 {
		days = 7
	}
	all, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	today = truncateToDate(today)
	end := today.AddDate(0, 0, days)

	type upcoming struct {
		next    time.Time
		contact Contact
	}
	var matches []upcoming
	for _, c := range all {
		next := nextBirthday(c.Birthday, today)
		if !next.Before(today) && !next.After(end) {
			matches = append(matches, upcoming{next: next, contact: c})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].next.Before(matches[j].next) })

	result := make([]Contact, len(matches))
	for i, m := range matches {
		result[i] = m.contact
	}
	return result, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func birthdayInYear(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func nextBirthday(birthday, reference time.Time) time.Time {
	next := birthdayInYear(birthday, reference.Year())
	if next.Before(reference) {
		next = birthdayInYear(birthday, reference.Year()+1)
	}
	return next
}
