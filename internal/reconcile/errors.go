package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	pkgerrors "github.com/yungbote/frugalprotein-backend/internal/pkg/errors"
)

var (
	// ErrInvalidIdentityPair marks a pair without a store product id. Callers
	// drop these silently.
	ErrInvalidIdentityPair = fmt.Errorf("identity pair has no store product id: %w", pkgerrors.ErrInvalidArgument)
	ErrProductNotFound     = fmt.Errorf("product %w", pkgerrors.ErrNotFound)
)

// IdentityConflictError means the incoming pair cannot be attached to exactly
// one product without breaking another product's identity. Nothing was written.
type IdentityConflictError struct {
	Store      types.Store
	Pair       types.IdentityPair
	Reason     types.ConflictReason
	MatchedIDs []uuid.UUID
	Constraint string
}

func (e *IdentityConflictError) Error() string {
	ids := make([]string, 0, len(e.MatchedIDs))
	for _, id := range e.MatchedIDs {
		ids = append(ids, id.String())
	}
	barcode := "<nil>"
	if e.Pair.Barcode != nil {
		barcode = *e.Pair.Barcode
	}
	msg := fmt.Sprintf("identity conflict (%s) store=%s barcode=%s pid=%s matched=[%s]",
		e.Reason, e.Store, barcode, e.Pair.StorePID, strings.Join(ids, ","))
	if e.Constraint != "" {
		msg += " constraint=" + e.Constraint
	}
	return msg
}

func IsIdentityConflict(err error) bool {
	var ce *IdentityConflictError
	return errors.As(err, &ce)
}
