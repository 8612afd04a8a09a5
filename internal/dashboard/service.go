// Package dashboard serves the patient's own view: their aggregate record
// and the doctors linked to their account.
package dashboard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/platform/querycache"
)

// myDataKey scopes the cached aggregate to the signed-in user. The backend
// resolves "me" from the bearer token, so a shared key would hand one
// patient's record to the next caller inside the stale window.
func myDataKey(userID int) string {
	return fmt.Sprintf("user/%d/me", userID)
}

type API interface {
	MyPatientData(ctx context.Context) (*clinicapi.PatientData, error)
	SearchDoctors(ctx context.Context, query string) ([]clinicapi.Doctor, error)
	LinkDoctor(ctx context.Context, doctorEmail string) error
	UnlinkDoctor(ctx context.Context, medicID int) error
}

type Cache interface {
	Get(ctx context.Context, key string, fetch querycache.FetchFunc) (any, error)
	Invalidate(key string)
}

type Service struct {
	api    API
	cache  Cache
	logger zerolog.Logger
}

func NewService(api API, cache Cache, logger zerolog.Logger) *Service {
	return &Service{
		api:    api,
		cache:  cache,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

// MyData returns the signed-in patient's aggregate through the cache.
func (s *Service) MyData(ctx context.Context, userID int) (*clinicapi.PatientData, error) {
	v, err := s.cache.Get(ctx, myDataKey(userID), func(ctx context.Context) (any, error) {
		return s.api.MyPatientData(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*clinicapi.PatientData), nil
}

// SearchDoctors looks up linkable doctors.
func (s *Service) SearchDoctors(ctx context.Context, query string) ([]clinicapi.Doctor, error) {
	if query == "" {
		return nil, nil
	}
	return s.api.SearchDoctors(ctx, query)
}

// LinkDoctor attaches a doctor to the patient's account by email.
func (s *Service) LinkDoctor(ctx context.Context, userID int, doctorEmail string) error {
	if doctorEmail == "" {
		return fmt.Errorf("doctor email is required")
	}
	if err := s.api.LinkDoctor(ctx, doctorEmail); err != nil {
		return err
	}
	s.cache.Invalidate(myDataKey(userID))
	return nil
}

// UnlinkDoctor detaches a doctor from the account.
func (s *Service) UnlinkDoctor(ctx context.Context, userID, medicID int) error {
	if err := s.api.UnlinkDoctor(ctx, medicID); err != nil {
		return err
	}
	s.cache.Invalidate(myDataKey(userID))
	return nil
}
