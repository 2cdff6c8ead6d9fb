package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/pkg/cep"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

const cacheKeyCEP = "cep"

type addressLookup interface {
	Lookup(ctx context.Context, raw string) (*cep.Address, error)
}

// CEPService resolves postal codes, caching known addresses.
type CEPService struct {
	client addressLookup
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewCEPService constructs the postal-code service.
func NewCEPService(client addressLookup, cache *CacheService, logger *zap.Logger, ttl time.Duration) *CEPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CEPService{client: client, cache: cache, logger: logger, ttl: ttl}
}

// Lookup returns the address of raw. Malformed codes are validation errors
// and unknown codes are not found.
func (s *CEPService) Lookup(ctx context.Context, raw string) (*cep.Address, bool, error) {
	digits, err := cep.Normalize(raw)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "cep must have 8 digits")
	}
	key := cacheKeyCEP + ":" + digits

	var cached cep.Address
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	addr, err := s.client.Lookup(ctx, digits)
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrInvalidCEP):
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "cep must have 8 digits")
		case errors.Is(err, cep.ErrNotFound):
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "cep not found")
		}
		s.logger.Warn("cep lookup failed", zap.String("cep", digits), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "cep lookup failed")
	}
	s.cache.Set(ctx, key, addr, s.ttl)
	return addr, false, nil
}
