package visibility

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/pkg/logger"
	"github.com/greensiliconvalley/portal/pkg/metrics"
)

// Evaluator decides per-resource view access for a principal.
type Evaluator struct {
	db       *gorm.DB
	store    *Store
	defaults Defaults
	now      func() time.Time
	log      *zap.Logger
}

// EvaluatorOption customises the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the time source used for time-window checks.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator constructs an Evaluator. The defaults map is injected rather
// than read from package state so tests can substitute alternate policies.
func NewEvaluator(db *gorm.DB, store *Store, defaults Defaults, opts ...EvaluatorOption) (*Evaluator, error) {
	if db == nil {
		return nil, errors.New("visibility evaluator: db is required")
	}
	if store == nil {
		return nil, errors.New("visibility evaluator: store is required")
	}
	if defaults == nil {
		defaults = BuiltinDefaults()
	}

	e := &Evaluator{
		db:       db,
		store:    store,
		defaults: defaults,
		now:      time.Now,
		log:      logger.WithModule("visibility"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CanUserView reports whether the user may view the resource.
//
// When explicit rules exist, the first rule that allows wins and type-level
// defaults are never consulted. When none exist, the injected defaults table
// decides. Unknown principals and lookup failures deny.
func (e *Evaluator) CanUserView(ctx context.Context, userID, resourceType, resourceID string) bool {
	allowed := e.evaluate(ctx, userID, resourceType, resourceID)

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	metrics.VisibilityChecks.WithLabelValues(resourceType, decision).Inc()

	return allowed
}

func (e *Evaluator) evaluate(ctx context.Context, userID, resourceType, resourceID string) bool {
	principal, ok := e.lookupPrincipal(ctx, userID)
	if !ok {
		return false
	}

	rules := e.store.ReadRules(ctx, resourceType, resourceID)
	if len(rules) > 0 {
		for i := range rules {
			if e.evaluateRule(ctx, principal, &rules[i]) {
				return true
			}
		}
		return false
	}

	return e.defaults.Allows(resourceType, principal.Role)
}

// evaluateRule applies the single-rule predicate in its fixed order. Each
// step can short-circuit.
//
// The trailing time-window step can only deny: a rule carrying nothing but a
// window never grants access.
func (e *Evaluator) evaluateRule(ctx context.Context, principal Principal, rule *Rule) bool {
	if rule.IsPublic {
		return true
	}

	if containsString(rule.Restrictions.ExcludeRoles, principal.Role) {
		return false
	}
	if containsString(rule.Restrictions.ExcludeUsers, principal.UserID) {
		return false
	}

	if containsString(rule.AllowedRoles, principal.Role) {
		return e.approvalSatisfied(ctx, principal, rule)
	}
	if containsString(rule.AllowedUsers, principal.UserID) {
		return e.approvalSatisfied(ctx, principal, rule)
	}

	if window := rule.Restrictions.TimeWindow; window != nil {
		if !window.Contains(e.now()) {
			return false
		}
	}

	return false
}

// approvalSatisfied gates an affirmative match on the rule's approval flag:
// the match only allows once an approval record exists for the principal.
func (e *Evaluator) approvalSatisfied(ctx context.Context, principal Principal, rule *Rule) bool {
	if !rule.Restrictions.RequireApproval {
		return true
	}
	return e.store.HasApproval(ctx, rule.ResourceType, rule.ResourceID, principal.UserID)
}

// lookupPrincipal resolves the user's role. Missing users and lookup
// failures report not-ok, which denies the evaluation.
func (e *Evaluator) lookupPrincipal(ctx context.Context, userID string) (Principal, bool) {
	if userID == "" {
		return Principal{}, false
	}

	var user models.User
	err := e.db.WithContext(ctx).
		Select("id", "role").
		Take(&user, "id = ?", userID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.log.Warn("principal lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return Principal{}, false
	}

	return Principal{UserID: user.ID, Role: user.Role}, true
}
