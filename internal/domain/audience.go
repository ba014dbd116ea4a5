/**
 * @description
 * Domain models for the audience registry: audience definitions with demographic
 * constraints, the panel of raw candidate records they are resolved against, and
 * the materialized audience members produced by resolution.
 *
 * @notes
 * - Demographic constraints map an attribute name to either an exact categorical
 *   value ("gender": "female") or an inclusive numeric range ("age": "18-35").
 *   Attributes a constraint does not mention are wildcards.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audience is a named, demographically constrained target population owned by a user.
type Audience struct {
	ID           uuid.UUID         `json:"id"`
	OwnerID      uuid.UUID         `json:"owner_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	DeclaredSize int               `json:"declared_size"`
	Demographics map[string]string `json:"demographics"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PanelMember is one raw candidate record in the panel pool the registry
// resolves audiences against.
type PanelMember struct {
	ID         uuid.UUID         `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

// AudienceMember is a panel record materialized into an audience at resolution time.
type AudienceMember struct {
	ID            uuid.UUID         `json:"id"`
	AudienceID    uuid.UUID         `json:"audience_id"`
	PanelMemberID uuid.UUID         `json:"panel_member_id"`
	Attributes    map[string]string `json:"attributes"`
}

// CreateAudienceRequest is the DTO for the audience creation endpoint.
type CreateAudienceRequest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	DeclaredSize int               `json:"declared_size"`
	Demographics map[string]string `json:"demographics"`
}
