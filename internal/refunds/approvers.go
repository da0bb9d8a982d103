package refunds

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/config"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

// ApproverDirectory resolves who decides at a given approval level.
type ApproverDirectory interface {
	ApproverForLevel(ctx context.Context, tenantID uuid.UUID, level int) (uuid.UUID, error)
}

// staticApproverDirectory assigns one configured approver per level. The
// platform runs a single operations team, so routing does not vary by
// tenant yet; a role-based directory can replace this without touching the
// workflow.
type staticApproverDirectory struct {
	byLevel map[int]uuid.UUID
}

// NewStaticApproverDirectory parses the configured approver IDs. Levels may
// be left unconfigured; resolving one then fails at decision time.
func NewStaticApproverDirectory(cfg config.ApprovalsConfig) (ApproverDirectory, error) {
	byLevel := map[int]uuid.UUID{}
	for level, raw := range map[int]string{
		1: cfg.FinanceApproverID,
		2: cfg.ManagerApproverID,
		3: cfg.ExecutiveApproverID,
	} {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing approver id for level %d: %w", level, err)
		}
		byLevel[level] = id
	}
	return &staticApproverDirectory{byLevel: byLevel}, nil
}

func (d *staticApproverDirectory) ApproverForLevel(ctx context.Context, tenantID uuid.UUID, level int) (uuid.UUID, error) {
	id, ok := d.byLevel[level]
	if !ok {
		return uuid.Nil, apperrors.New(apperrors.CodeDependency, fmt.Sprintf("no approver configured for %s", levelName(level)))
	}
	return id, nil
}
