package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// AvailabilityService computes free intervals and bookable slots from
// working hours, time off and existing bookings. It is the shared
// collaborator of the schedule-gap and waitlist agents and the open-slot
// heuristic.
type AvailabilityService interface {
	FreeIntervals(ctx context.Context, tenantID, staffID string, day time.Time) ([]models.Interval, error)
	OpenSlots(ctx context.Context, tenantID string, day time.Time, duration time.Duration, staffID string) ([]models.Slot, error)
}

type availabilityService struct {
	schedule repositories.ScheduleRepository
	bookings repositories.BookingRepository
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(schedule repositories.ScheduleRepository, bookings repositories.BookingRepository) AvailabilityService {
	return &availabilityService{schedule: schedule, bookings: bookings}
}

// FreeIntervals maps one staff member's working hours for the day, minus
// time off and bookings, into a sorted list of free intervals.
func (s *availabilityService) FreeIntervals(ctx context.Context, tenantID, staffID string, day time.Time) ([]models.Interval, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	hours, err := s.schedule.WorkingHoursFor(ctx, tenantID, staffID, int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if len(hours) == 0 {
		return nil, nil
	}

	working := make([]models.Interval, 0, len(hours))
	for _, h := range hours {
		working = append(working, models.Interval{
			Start: dayStart.Add(time.Duration(h.StartMinute) * time.Minute),
			End:   dayStart.Add(time.Duration(h.EndMinute) * time.Minute),
		})
	}

	var busy []models.Interval
	off, err := s.schedule.TimeOffFor(ctx, tenantID, staffID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load time off: %w", err)
	}
	for _, o := range off {
		busy = append(busy, models.Interval{Start: o.StartTime, End: o.EndTime})
	}
	bookings, err := s.bookings.ListForStaffDay(ctx, tenantID, staffID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	for _, b := range bookings {
		busy = append(busy, models.Interval{Start: b.StartTime, End: b.EndTime})
	}

	return SubtractIntervals(working, busy), nil
}

// OpenSlots returns one bookable slot per free interval that fits the
// duration. An empty staffID considers every active staff member.
func (s *availabilityService) OpenSlots(ctx context.Context, tenantID string, day time.Time, duration time.Duration, staffID string) ([]models.Slot, error) {
	var staffIDs []string
	if staffID != "" {
		staffIDs = []string{staffID}
	} else {
		staff, err := s.schedule.ListActiveStaff(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("load staff: %w", err)
		}
		for _, st := range staff {
			staffIDs = append(staffIDs, st.ID)
		}
	}

	var slots []models.Slot
	for _, id := range staffIDs {
		free, err := s.FreeIntervals(ctx, tenantID, id, day)
		if err != nil {
			return nil, err
		}
		for _, iv := range free {
			if iv.End.Sub(iv.Start) >= duration {
				slots = append(slots, models.Slot{
					StaffID: id,
					Start:   iv.Start,
					End:     iv.Start.Add(duration),
				})
			}
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// SubtractIntervals removes the busy intervals from the working ones,
// returning the sorted free remainder. Overlapping busy intervals are
// merged first.
func SubtractIntervals(working, busy []models.Interval) []models.Interval {
	merged := MergeIntervals(busy)

	var free []models.Interval
	for _, w := range working {
		cursor := w.Start
		for _, b := range merged {
			if b.End.Before(cursor) || b.End.Equal(cursor) || b.Start.After(w.End) || b.Start.Equal(w.End) {
				continue
			}
			if b.Start.After(cursor) {
				free = append(free, models.Interval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if cursor.Before(w.End) {
			free = append(free, models.Interval{Start: cursor, End: w.End})
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i].Start.Before(free[j].Start) })
	return free
}

// MergeIntervals sorts intervals and coalesces overlapping or touching ones.
func MergeIntervals(intervals []models.Interval) []models.Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]models.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []models.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
