package gcal

import (
	"context"
	"fmt"
	"strings"
	"time"

	tenantdomain "fieldcrm-backend/internal/tenant/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Slot is one bookable calendar window offered to a customer.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Formatted string    `json:"formatted"` // e.g. "Monday, March 10 at 10:00 AM"
}

// FormatSlot renders a slot start the way it is presented to
// customers and matched back against their replies.
func FormatSlot(start time.Time) string {
	return start.Format("Monday, January 2 at 3:04 PM")
}

// Business hours used when generating candidate slots.
const (
	slotDayStartHour = 9
	slotDayEndHour   = 17
)

type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{clientID: clientID, clientSecret: clientSecret}
}

func (s *Service) calendarService(ctx context.Context, acct *tenantdomain.MailAccount) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		TokenType:    "Bearer",
	}
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}
	client := oauth2.NewClient(ctx, config.TokenSource(ctx, token))

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	return srv, nil
}

// ListAvailableSlots returns up to max free slots of the given
// duration over the next daysAhead days, inside business hours,
// skipping windows that overlap busy periods on the calendar.
func (s *Service) ListAvailableSlots(ctx context.Context, acct *tenantdomain.MailAccount, calendarID string, durationMinutes, daysAhead, max int) ([]Slot, error) {
	srv, err := s.calendarService(ctx, acct)
	if err != nil {
		return nil, err
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	now := time.Now()
	windowEnd := now.AddDate(0, 0, daysAhead)

	fb, err := srv.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: now.Format(time.RFC3339),
		TimeMax: windowEnd.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed: %v", err)
	}

	var busy [][2]time.Time
	if cal, ok := fb.Calendars[calendarID]; ok {
		for _, b := range cal.Busy {
			start, err1 := time.Parse(time.RFC3339, b.Start)
			end, err2 := time.Parse(time.RFC3339, b.End)
			if err1 != nil || err2 != nil {
				continue
			}
			busy = append(busy, [2]time.Time{start, end})
		}
	}

	dur := time.Duration(durationMinutes) * time.Minute
	var slots []Slot
	for day := 0; day <= daysAhead && len(slots) < max; day++ {
		date := now.AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		start := time.Date(date.Year(), date.Month(), date.Day(), slotDayStartHour, 0, 0, 0, date.Location())
		dayEnd := time.Date(date.Year(), date.Month(), date.Day(), slotDayEndHour, 0, 0, 0, date.Location())

		for cursor := start; cursor.Add(dur).Before(dayEnd) || cursor.Add(dur).Equal(dayEnd); cursor = cursor.Add(dur) {
			if cursor.Before(now) {
				continue
			}
			if overlapsBusy(cursor, cursor.Add(dur), busy) {
				continue
			}
			slots = append(slots, Slot{
				Start:     cursor,
				End:       cursor.Add(dur),
				Formatted: FormatSlot(cursor),
			})
			if len(slots) >= max {
				break
			}
		}
	}
	return slots, nil
}

// overlapsBusy reports whether [start, end) intersects any busy
// interval; a slot that only touches a busy block at its boundary
// remains free.
func overlapsBusy(start, end time.Time, busy [][2]time.Time) bool {
	for _, b := range busy {
		if start.Before(b[1]) && b[0].Before(end) {
			return true
		}
	}
	return false
}

// CreateEvent books an event on the tenant's calendar, optionally
// inviting the customer.
func (s *Service) CreateEvent(ctx context.Context, acct *tenantdomain.MailAccount, calendarID, summary, description string, start, end time.Time, attendee string) error {
	srv, err := s.calendarService(ctx, acct)
	if err != nil {
		return err
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	if attendee != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: strings.TrimSpace(attendee)}}
	}

	if _, err := srv.Events.Insert(calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to create event: %v", err)
	}
	return nil
}
