package identity

import (
	"context"
	"errors"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
)

// Profile defaults for tokens without user metadata.
const (
	defaultName   = "Unknown User"
	defaultRegion = "UNKNOWN"
	defaultRole   = "viewer"
)

// SlotLookup resolves an email to its organisation context.
type SlotLookup interface {
	Lookup(ctx context.Context, email string) (SlotContext, error)
}

// Resolver produces the Identity of a request.
type Resolver struct {
	verifier *Verifier
	slots    SlotLookup
	zones    *ZoneCache
	cache    Cache
	logger   logger.Logger
}

// NewResolver wires the resolver. slots and zones may be nil, in which case
// the token profile is used as is.
func NewResolver(verifier *Verifier, slots SlotLookup, zones *ZoneCache, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL)
	}
	return &Resolver{
		verifier: verifier,
		slots:    slots,
		zones:    zones,
		cache:    cache,
		logger:   logger.Get().Named("identity"),
	}
}

// Resolve validates the Authorization header value and returns the requester.
// Token failures wrap model.ErrUnauthorized. Slot and zone lookup failures
// degrade to the token profile, and a degraded identity is not cached.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (model.Identity, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		return model.Identity{}, err
	}
	claims, err := r.verifier.Verify(token)
	if err != nil {
		return model.Identity{}, err
	}
	if id, ok := r.cache.Get(ctx, claims.Email); ok {
		return id, nil
	}

	start := time.Now()
	id := fromClaims(claims)
	grbm, slotErr := r.applySlot(ctx, &id)
	zoneErr := r.applyZones(ctx, &id, grbm)
	metrics.RecordIdentityResolve(float64(time.Since(start).Milliseconds()))

	if slotErr != nil || zoneErr != nil {
		r.logger.Debug(ctx, "identity not cached", logger.String("email", claims.Email))
		return id, nil
	}
	r.cache.Set(ctx, claims.Email, id)
	return id, nil
}

func fromClaims(c *Claims) model.Identity {
	id := model.Identity{
		Email:  c.Email,
		Name:   c.UserMetadata.Name,
		Region: c.UserMetadata.Region,
		Role:   c.UserMetadata.Role,
	}
	if id.Name == "" {
		id.Name = defaultName
	}
	if id.Region == "" {
		id.Region = defaultRegion
	}
	if id.Role == "" {
		id.Role = defaultRole
	}
	return id
}

// applySlot overlays the organisation context and returns the region's GRBM
// code. A missing slot is not an error.
func (r *Resolver) applySlot(ctx context.Context, id *model.Identity) (string, error) {
	if r.slots == nil {
		return "", nil
	}
	sc, err := r.slots.Lookup(ctx, id.Email)
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	if err != nil {
		r.logger.Warn(ctx, "slot context lookup failed", logger.String("email", id.Email), logger.Error(err))
	}
	overlay(&id.NIK, sc.NIK)
	overlay(&id.Name, sc.Name)
	overlay(&id.Role, sc.Role)
	overlay(&id.Region, sc.Region)
	overlay(&id.Scope, sc.Scope)
	overlay(&id.ScopeID, sc.ScopeID)
	return sc.GRBM, err
}

func (r *Resolver) applyZones(ctx context.Context, id *model.Identity, grbm string) error {
	id.ZonaRBM = grbm
	if r.zones == nil {
		return nil
	}
	region, ok := id.KnownRegion()
	if !ok {
		return nil
	}
	zones, err := r.zones.Resolve(ctx, region)
	if err != nil {
		r.logger.Warn(ctx, "zone resolution failed", logger.String("region", region), logger.Error(err))
		return err
	}
	overlay(&id.ZonaRBM, zones.RBM)
	overlay(&id.ZonaBM, zones.BM)
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
