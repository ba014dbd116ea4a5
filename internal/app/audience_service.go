/**
 * @description
 * The audience registry. It owns audience definitions and resolves them against
 * the panel of raw candidate records: a candidate matches when every constrained
 * attribute is present and satisfies its constraint, exact for categorical
 * attributes and inclusive range for numeric ones. Unconstrained attributes are
 * wildcards. Resolution is deterministic for a fixed panel and re-materializes
 * the audience's member set on each call.
 *
 * @dependencies
 * - context, strconv, strings: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
)

// Recognized demographic attributes. Numeric attributes accept a single value or
// an inclusive "lo-hi" range; categorical attributes take one exact value.
var demographicAttributes = map[string]bool{
	// attribute -> numeric?
	"age":        true,
	"income":     true,
	"gender":     false,
	"region":     false,
	"education":  false,
	"employment": false,
}

// AudienceService provides the core business logic for the audience registry.
type AudienceService struct {
	repo store.Repository
}

// NewAudienceService creates a new audience registry instance.
func NewAudienceService(repo store.Repository) *AudienceService {
	return &AudienceService{repo: repo}
}

// Create validates and persists a new audience definition.
func (s *AudienceService) Create(ctx context.Context, ownerID uuid.UUID, req domain.CreateAudienceRequest) (*domain.Audience, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("audience name is required")
	}
	if req.DeclaredSize <= 0 {
		return nil, NewValidationError("declared size must be positive")
	}
	if err := validateDemographics(req.Demographics); err != nil {
		return nil, err
	}

	audience := &domain.Audience{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		DeclaredSize: req.DeclaredSize,
		Demographics: req.Demographics,
	}
	if audience.Demographics == nil {
		audience.Demographics = map[string]string{}
	}
	if err := s.repo.CreateAudience(ctx, audience); err != nil {
		return nil, err
	}
	return audience, nil
}

// Resolve matches the panel against the audience's demographic predicate and
// re-materializes the member set, capped at the audience's declared size. The
// returned slice reflects the panel as of now, not a snapshot.
func (s *AudienceService) Resolve(ctx context.Context, ownerID, audienceID uuid.UUID) ([]domain.AudienceMember, error) {
	audience, err := s.ownedAudience(ctx, ownerID, audienceID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.ListPanelMembers(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]domain.AudienceMember, 0, audience.DeclaredSize)
	for _, candidate := range candidates {
		if len(members) == audience.DeclaredSize {
			break
		}
		if matchesDemographics(audience.Demographics, candidate.Attributes) {
			members = append(members, domain.AudienceMember{
				ID:            uuid.New(),
				AudienceID:    audience.ID,
				PanelMemberID: candidate.ID,
				Attributes:    candidate.Attributes,
			})
		}
	}

	if err := s.repo.ReplaceAudienceMembers(ctx, audience.ID, members); err != nil {
		return nil, err
	}
	return s.repo.ListAudienceMembers(ctx, audience.ID)
}

// List returns the audiences owned by the user.
func (s *AudienceService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Audience, error) {
	return s.repo.ListAudiencesByOwner(ctx, ownerID)
}

func (s *AudienceService) ownedAudience(ctx context.Context, ownerID, audienceID uuid.UUID) (*domain.Audience, error) {
	audience, err := s.repo.FindAudienceByID(ctx, audienceID)
	if err != nil {
		if errors.Is(err, store.ErrAudienceNotFound) {
			return nil, NewNotFoundError("audience not found")
		}
		return nil, err
	}
	if audience.OwnerID != ownerID {
		return nil, NewNotFoundError("audience not found")
	}
	return audience, nil
}

// validateDemographics checks every constraint against the recognized attribute
// and value domains.
func validateDemographics(demographics map[string]string) error {
	for attribute, constraint := range demographics {
		numeric, ok := demographicAttributes[strings.ToLower(attribute)]
		if !ok {
			return NewValidationError("unrecognized demographic attribute: " + attribute)
		}
		constraint = strings.TrimSpace(constraint)
		if constraint == "" {
			return NewValidationError("empty constraint for attribute: " + attribute)
		}
		if numeric {
			if _, _, err := parseNumericConstraint(constraint); err != nil {
				return NewValidationError("invalid numeric constraint for " + attribute + ": " + constraint)
			}
		}
	}
	return nil
}

// matchesDemographics reports whether a candidate satisfies every constraint.
// Attributes the predicate does not mention are wildcards.
func matchesDemographics(constraints, attributes map[string]string) bool {
	for attribute, constraint := range constraints {
		value, present := attributes[attribute]
		if !present {
			// try case-insensitive attribute lookup
			for k, v := range attributes {
				if strings.EqualFold(k, attribute) {
					value, present = v, true
					break
				}
			}
		}
		if !present {
			return false
		}
		if !matchesConstraint(strings.TrimSpace(constraint), strings.TrimSpace(value)) {
			return false
		}
	}
	return true
}

func matchesConstraint(constraint, value string) bool {
	if lo, hi, err := parseNumericConstraint(constraint); err == nil {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		return n >= lo && n <= hi
	}
	return strings.EqualFold(constraint, value)
}

// parseNumericConstraint accepts a single integer ("30") or an inclusive range
// ("18-35") with lo <= hi.
func parseNumericConstraint(constraint string) (int64, int64, error) {
	if lo, hi, found := strings.Cut(constraint, "-"); found {
		loN, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return 0, 0, err
		}
		hiN, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return 0, 0, err
		}
		if loN > hiN {
			return 0, 0, errors.New("range lower bound exceeds upper bound")
		}
		return loN, hiN, nil
	}
	n, err := strconv.ParseInt(constraint, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}
