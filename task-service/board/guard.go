package board

import (
	"github.com/google/uuid"

	"taskboard/task-service/domain"
)

// ValidateMove rejects move requests that are malformed before any storage is
// touched. Ownership is resolved later by the store.
func ValidateMove(ownerID string, req domain.MoveRequest) error {
	if ownerID == "" {
		return domain.ErrUnauthorized
	}
	dest := req.Destination
	if !validID(req.ItemID) {
		return domain.Invalid("id", "must be a UUID")
	}
	switch dest.Kind {
	case domain.KindTask:
		if !dest.Status.Valid() {
			return domain.Invalid("status", "must be one of todo, in_progress, review, done")
		}
	case domain.KindChecklist, domain.KindProject:
		if dest.Status != "" {
			return domain.Invalid("status", "not allowed for %s items", dest.Kind)
		}
	default:
		return domain.Invalid("kind", "unknown item kind %q", dest.Kind)
	}
	if dest.Parent != "" && !validID(dest.Parent) {
		return domain.Invalid("parent", "must be a UUID")
	}
	if req.Index < 0 {
		return domain.Invalid("position", "must be a non-negative integer")
	}
	return nil
}

// ValidateReindex checks a full-reindex request.
func ValidateReindex(ownerID, parentID string, orderedIDs []string) error {
	if ownerID == "" {
		return domain.ErrUnauthorized
	}
	if parentID != "" && !validID(parentID) {
		return domain.Invalid("parent", "must be a UUID")
	}
	if len(orderedIDs) == 0 {
		return domain.Invalid("orderedIds", "must be a non-empty array")
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if !validID(id) {
			return domain.Invalid("orderedIds", "%q is not a UUID", id)
		}
		if _, dup := seen[id]; dup {
			return domain.Invalid("orderedIds", "%q listed twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateOwnerAndID(ownerID, field, id string) error {
	if ownerID == "" {
		return domain.ErrUnauthorized
	}
	if !validID(id) {
		return domain.Invalid(field, "must be a UUID")
	}
	return nil
}

func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
