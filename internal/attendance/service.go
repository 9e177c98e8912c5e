// internal/attendance/service.go
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ag1104/attendance-system/internal/config"
	"github.com/Ag1104/attendance-system/internal/geo"
	"github.com/Ag1104/attendance-system/internal/models"
	"github.com/Ag1104/attendance-system/internal/staff"
	"github.com/Ag1104/attendance-system/internal/storage"
)

// State is the furthest point a sign-in request reached.
type State string

const (
	StateReceived             State = "RECEIVED"
	StateValidatedInput       State = "VALIDATED_INPUT"
	StateValidatedGeofence    State = "VALIDATED_GEOFENCE"
	StateValidatedTimeWindow  State = "VALIDATED_TIME_WINDOW"
	StateValidatedNoDuplicate State = "VALIDATED_NO_DUPLICATE"
	StateCommitted            State = "COMMITTED"
)

// Directory looks up staff names. *staff.Loader satisfies it.
type Directory interface {
	Load() (staff.Directory, error)
}

type SignInRequest struct {
	StaffID   string
	Latitude  *float64
	Longitude *float64
	// Address is the originating network address as resolved by the caller.
	Address string
}

type SignInResult struct {
	Message string                  `json:"message"`
	Time    string                  `json:"time"`
	Status  models.AttendanceStatus `json:"status"`
	Entry   models.AttendanceEntry  `json:"-"`
}

// Service validates sign-ins and appends them to the ledger. The duplicate
// check and the append run under one lock, so a process never writes two
// entries for the same key.
type Service struct {
	cfg       config.Config
	ledger    storage.Ledger
	directory Directory

	Now   func() time.Time
	NewID func() string

	mu sync.Mutex
}

func NewService(cfg config.Config, ledger storage.Ledger, directory Directory) *Service {
	return &Service{
		cfg:       cfg,
		ledger:    ledger,
		directory: directory,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

func (s *Service) Config() config.Config { return s.cfg }

func (s *Service) now() time.Time {
	return s.Now().In(s.cfg.Location)
}

// Today returns the current calendar date in the office timezone.
func (s *Service) Today() string {
	return s.now().Format(models.DateLayout)
}

func (s *Service) EnsureLedger(ctx context.Context) error {
	return s.ledger.EnsureInitialized(ctx)
}

func (s *Service) SignedToday(ctx context.Context) ([]string, error) {
	if err := s.ledger.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return s.ledger.ListForDate(ctx, s.Today())
}

func (s *Service) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	if err := s.ledger.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return s.ledger.Entries(ctx, date)
}

func (s *Service) Staff() (staff.Directory, error) {
	if s.directory == nil {
		return staff.Directory{}, nil
	}
	return s.directory.Load()
}

// SignIn runs the validation sequence and commits one entry on success.
// Validation failures are returned as *RejectionError; any other error comes
// from the ledger.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	staffID := staff.NormalizeID(req.StaffID)
	if staffID == "" {
		return nil, reject(StateReceived, ErrStaffIDRequired, http.StatusBadRequest, "Staff ID is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, reject(StateReceived, ErrInvalidCoordinates, http.StatusBadRequest, "Valid latitude and longitude are required")
	}
	point := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !point.Valid() {
		return nil, reject(StateReceived, ErrInvalidCoordinates, http.StatusBadRequest, "Valid latitude and longitude are required")
	}
	if s.cfg.RequireKnownStaff {
		dir, err := s.Staff()
		if err != nil {
			return nil, err
		}
		if _, ok := dir[staffID]; !ok {
			return nil, reject(StateReceived, ErrUnknownStaff, http.StatusForbidden, "Unknown staff ID")
		}
	}

	// VALIDATED_INPUT
	inside, distance := geo.Within(s.cfg.Office, point, s.cfg.AllowedRadius)
	if !inside {
		return nil, reject(StateValidatedInput, ErrOutsidePerimeter, http.StatusForbidden,
			fmt.Sprintf("You are outside the office perimeter (%dm away)", int(distance)))
	}

	// VALIDATED_GEOFENCE
	now := s.now()
	tod := config.Of(now)
	if tod < s.cfg.SignInStart {
		return nil, reject(StateValidatedGeofence, ErrWindowNotOpen, http.StatusForbidden, "Sign-in has not started yet")
	}
	if s.cfg.SignInEnd != 0 && tod > s.cfg.SignInEnd {
		return nil, reject(StateValidatedGeofence, ErrWindowClosed, http.StatusForbidden, "Sign-in has closed for today")
	}
	status := models.StatusOnTime
	if tod > s.cfg.OnTimeEnd {
		status = models.StatusLate
	}

	// VALIDATED_TIME_WINDOW
	entry := models.AttendanceEntry{
		ID:             s.NewID(),
		StaffID:        staffID,
		Date:           now.Format(models.DateLayout),
		Time:           now.Format(models.TimeLayout),
		Status:         status,
		IP:             req.Address,
		DistanceMeters: storage.RoundDistance(distance),
		CreatedAt:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	conflict, err := s.ledger.FindConflicts(ctx, entry.StaffID, entry.IP, entry.Date)
	if err != nil {
		return nil, err
	}
	if conflict != storage.NoConflict {
		return nil, duplicate(conflict.Err())
	}

	// VALIDATED_NO_DUPLICATE
	if err := s.ledger.Append(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateStaff) || errors.Is(err, ErrDuplicateDevice) {
			return nil, duplicate(err)
		}
		return nil, err
	}

	// COMMITTED
	log.Printf("sign-in committed staff=%s ip=%s status=%s distance=%.2fm", entry.StaffID, entry.IP, entry.Status, entry.DistanceMeters)
	return &SignInResult{
		Message: "Sign-in successful",
		Time:    entry.Time,
		Status:  entry.Status,
		Entry:   entry,
	}, nil
}
