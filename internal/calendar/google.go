package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/boklin/boklin/internal/booking"
)

// refreshMargin forces a token refresh shortly before the stored expiry so an
// in-flight request never carries a token that dies mid-call.
const refreshMargin = 5 * time.Minute

// GoogleSync implements booking.CalendarSync against the Google Calendar API.
// All methods treat a missing connection as "nothing to do" rather than an
// error, so hosts without a connected calendar take the cheap path.
type GoogleSync struct {
	oauth *oauth2.Config
	store TokenStore
}

func NewGoogleSync(clientID, clientSecret, redirectURL string, store TokenStore) *GoogleSync {
	return &GoogleSync{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				gcal.CalendarReadonlyScope,
				gcal.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		},
		store: store,
	}
}

// AuthURL starts the connect flow. Offline access with forced consent is
// required to obtain a refresh token.
func (g *GoogleSync) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code and stores the connection,
// keyed to the host encoded in the OAuth state.
func (g *GoogleSync) HandleCallback(ctx context.Context, hostID uuid.UUID, code string) error {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return errors.New("no refresh token granted, reconnect with consent")
	}

	email, err := g.calendarEmail(ctx, token.AccessToken)
	if err != nil {
		return fmt.Errorf("resolve calendar account: %w", err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	return g.store.SaveConnection(ctx, &Connection{
		UserID:       hostID,
		Provider:     ProviderGoogle,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Disconnect removes the host's stored Google connection.
func (g *GoogleSync) Disconnect(ctx context.Context, hostID uuid.UUID) error {
	return g.store.DeleteConnection(ctx, hostID, ProviderGoogle)
}

// BusyIntervals queries freebusy on the host's primary calendar. A host
// without a connection contributes nothing and no error.
func (g *GoogleSync) BusyIntervals(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]booking.BusyInterval, error) {
	srv, err := g.serviceFor(ctx, hostID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			return nil, nil
		}
		return nil, err
	}

	resp, err := srv.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: "primary"}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	primary, ok := resp.Calendars["primary"]
	if !ok {
		return nil, nil
	}

	var busy []booking.BusyInterval
	for _, period := range primary.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		busy = append(busy, booking.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// CreateEvent mirrors a booking onto the host's primary calendar and returns
// the created event's ID. Hosts without a connection get an empty ID.
func (g *GoogleSync) CreateEvent(ctx context.Context, detail *booking.BookingDetail) (string, error) {
	srv, err := g.serviceFor(ctx, detail.UserID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			return "", nil
		}
		return "", err
	}

	event := &gcal.Event{
		Summary:     fmt.Sprintf("%s - %s", detail.EventType.Title, detail.GuestName),
		Description: eventDescription(detail),
		Location:    eventLocation(detail.EventType.Location),
		Start: &gcal.EventDateTime{
			DateTime: detail.StartTime.Format(time.RFC3339),
			TimeZone: detail.Host.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: detail.EndTime.Format(time.RFC3339),
			TimeZone: detail.Host.Timezone,
		},
		Attendees: []*gcal.EventAttendee{
			{Email: detail.GuestEmail, DisplayName: detail.GuestName},
			{Email: detail.Host.Email, DisplayName: detail.Host.Name},
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := srv.Events.Insert("primary", event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	if created.Id == "" {
		return "", errors.New("calendar event created without id")
	}
	return created.Id, nil
}

// DeleteEvent removes a previously mirrored event. Hosts without a connection
// are a no-op: nothing to delete anywhere.
func (g *GoogleSync) DeleteEvent(ctx context.Context, hostID uuid.UUID, eventID string) error {
	srv, err := g.serviceFor(ctx, hostID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			return nil
		}
		return err
	}

	if err := srv.Events.Delete("primary", eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}

// serviceFor builds an API client with a valid access token for the host,
// refreshing and persisting the token lazily when it is near expiry.
func (g *GoogleSync) serviceFor(ctx context.Context, hostID uuid.UUID) (*gcal.Service, error) {
	conn, err := g.store.GetConnection(ctx, hostID, ProviderGoogle)
	if err != nil {
		return nil, err
	}

	stored := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.ExpiresAt.Add(-refreshMargin),
	}

	token, err := g.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	if token.AccessToken != conn.AccessToken {
		if err := g.store.UpdateTokens(ctx, hostID, ProviderGoogle, token.AccessToken, token.Expiry); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
	}

	return gcal.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	)
}

// calendarEmail resolves the account's primary calendar ID, which Google uses
// as the account email.
func (g *GoogleSync) calendarEmail(ctx context.Context, accessToken string) (string, error) {
	srv, err := gcal.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	)
	if err != nil {
		return "", err
	}
	entry, err := srv.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return entry.Id, nil
}

func eventDescription(detail *booking.BookingDetail) string {
	lines := []string{
		"Booked via Boklin",
		"",
		"Guest: " + detail.GuestName,
		"Email: " + detail.GuestEmail,
	}
	if detail.GuestPhone != nil {
		lines = append(lines, "Phone: "+*detail.GuestPhone)
	}
	if detail.GuestNotes != nil {
		lines = append(lines, "", "Notes:", *detail.GuestNotes)
	}
	return strings.Join(lines, "\n")
}

func eventLocation(loc *booking.EventLocation) string {
	if loc == nil {
		return ""
	}
	switch loc.Type {
	case booking.LocationInPerson:
		return loc.Address
	case booking.LocationVideo:
		return loc.Link
	case booking.LocationPhone:
		if loc.Phone != "" {
			return "Tel: " + loc.Phone
		}
	case booking.LocationCustom:
		return loc.Instructions
	}
	return ""
}
