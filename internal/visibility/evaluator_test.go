package visibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greensiliconvalley/portal/internal/models"
)

func TestPublicRuleShortCircuitsExclusions(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	volunteer := createUser(t, db, "vol1", models.RoleVolunteer)
	presentation := createPresentation(t, db, "Solar 101")

	// The principal is excluded by both role and id, yet is_public wins
	// because it is checked first.
	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID, nil, &SetVisibilityOptions{
		IsPublic:     true,
		ExcludeRoles: []string{models.RoleVolunteer},
		ExcludeUsers: []string{volunteer.ID},
	})
	require.NoError(t, err)

	require.True(t, mgr.Evaluator().CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestExclusionPrecedesAllowListMatch(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	volunteer := createUser(t, db, "vol2", models.RoleVolunteer)
	presentation := createPresentation(t, db, "Wind Basics")

	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID,
		[]string{models.RoleVolunteer},
		&SetVisibilityOptions{ExcludeUsers: []string{volunteer.ID}},
	)
	require.NoError(t, err)

	require.False(t, mgr.Evaluator().CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, presentation.ID))

	// Another volunteer without the user-level exclusion still matches the role.
	other := createUser(t, db, "vol3", models.RoleVolunteer)
	require.True(t, mgr.Evaluator().CanUserView(ctx, other.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestExplicitRuleSuppressesTypeDefaults(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	teacher := createUser(t, db, "teach1", models.RoleTeacher)
	presentation := createPresentation(t, db, "Recycling")

	// No rule yet: presentation defaults include teachers.
	require.True(t, mgr.Evaluator().CanUserView(ctx, teacher.ID, models.ResourceTypePresentation, presentation.ID))

	// Restrict to founders: the default table is no longer consulted.
	require.NoError(t, mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID, []string{models.RoleFounder}, nil))

	require.False(t, mgr.Evaluator().CanUserView(ctx, teacher.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestTimeWindowAloneNeverGrants(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	intern := createUser(t, db, "int1", models.RoleIntern)
	presentation := createPresentation(t, db, "Composting")

	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	// A rule carrying only a time window has no affirmative path: the window
	// check can only deny, so even inside the window nobody is allowed.
	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID, nil, &SetVisibilityOptions{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	require.False(t, mgr.Evaluator().CanUserView(ctx, intern.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestAllowListMatchShortCircuitsExpiredWindow(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	intern := createUser(t, db, "int2", models.RoleIntern)
	presentation := createPresentation(t, db, "Water Cycle")

	expired := time.Now().UTC().Add(-24 * time.Hour)

	// The role match at the allow-list step stops evaluation before the
	// window check is reached: the expired window does not block it. This
	// documents the fixed predicate order, not necessarily desired policy.
	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID,
		[]string{models.RoleIntern},
		&SetVisibilityOptions{EndDate: &expired},
	)
	require.NoError(t, err)

	require.True(t, mgr.Evaluator().CanUserView(ctx, intern.ID, models.ResourceTypePresentation, presentation.ID))

	// A principal outside the allow list falls through to the window check
	// and is denied there.
	partner := createUser(t, db, "part1", models.RolePartner)
	require.False(t, mgr.Evaluator().CanUserView(ctx, partner.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestUnknownPrincipalDenied(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	presentation := createPresentation(t, db, "Orientation")
	require.NoError(t, mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID, nil, &SetVisibilityOptions{IsPublic: true}))

	require.False(t, mgr.Evaluator().CanUserView(ctx, "no-such-user", models.ResourceTypePresentation, presentation.ID))
	require.False(t, mgr.Evaluator().CanUserView(ctx, "", models.ResourceTypePresentation, presentation.ID))
}

func TestBlogPostsDefaultToEveryone(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	post := createBlogPost(t, db, "Welcome")

	for _, role := range models.KnownRoles {
		user := createUser(t, db, "blog-"+role, role)
		require.True(t, mgr.Evaluator().CanUserView(ctx, user.ID, models.ResourceTypeBlogPost, post.ID),
			"expected %s to view blog posts by default", role)
	}
}

func TestUnlistedTypeDefaultsToFounderOnly(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	founder := createUser(t, db, "fndr1", models.RoleFounder)
	volunteer := createUser(t, db, "vol4", models.RoleVolunteer)

	defaults := Defaults{}
	evaluator, err := NewEvaluator(db, mgr.store, defaults)
	require.NoError(t, err)

	require.True(t, evaluator.CanUserView(ctx, founder.ID, models.ResourceTypePresentation, "missing"))
	require.False(t, evaluator.CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, "missing"))
}

func TestInjectedDefaultsReplaceBuiltins(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	partner := createUser(t, db, "part2", models.RolePartner)
	presentation := createPresentation(t, db, "Field Trip")

	// Builtin defaults exclude partners from presentations.
	require.False(t, mgr.Evaluator().CanUserView(ctx, partner.ID, models.ResourceTypePresentation, presentation.ID))

	custom := Defaults{
		models.ResourceTypePresentation: {models.RolePartner},
	}
	evaluator, err := NewEvaluator(db, mgr.store, custom)
	require.NoError(t, err)

	require.True(t, evaluator.CanUserView(ctx, partner.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestRequireApprovalGatesAllowListMatches(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	volunteer := createUser(t, db, "vol5", models.RoleVolunteer)
	presentation := createPresentation(t, db, "Mentor Training")

	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID,
		[]string{models.RoleVolunteer},
		&SetVisibilityOptions{RequireApproval: true},
	)
	require.NoError(t, err)

	// Matching role alone is not enough until the approval record exists.
	require.False(t, mgr.Evaluator().CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, presentation.ID))

	require.NoError(t, mgr.ApproveViewer(ctx, models.ResourceTypePresentation, presentation.ID, volunteer.ID, nil))
	require.True(t, mgr.Evaluator().CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestPublicWinsOverRequireApproval(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	volunteer := createUser(t, db, "vol6", models.RoleVolunteer)
	presentation := createPresentation(t, db, "Open House")

	err := mgr.SetVisibility(ctx, models.ResourceTypePresentation, presentation.ID, nil, &SetVisibilityOptions{
		IsPublic:        true,
		RequireApproval: true,
	})
	require.NoError(t, err)

	require.True(t, mgr.Evaluator().CanUserView(ctx, volunteer.ID, models.ResourceTypePresentation, presentation.ID))
}

func TestRoundTripSetThenView(t *testing.T) {
	db, mgr := setupVisibilityTest(t)
	ctx := context.Background()

	intern := createUser(t, db, "int3", models.RoleIntern)
	teacher := createUser(t, db, "teach2", models.RoleTeacher)
	form := models.Form{Title: "Waiver"}
	require.NoError(t, db.Create(&form).Error)

	require.NoError(t, mgr.SetVisibility(ctx, models.ResourceTypeForm, form.ID, []string{models.RoleFounder, models.RoleIntern}, nil))

	require.True(t, mgr.Evaluator().CanUserView(ctx, intern.ID, models.ResourceTypeForm, form.ID))
	require.False(t, mgr.Evaluator().CanUserView(ctx, teacher.ID, models.ResourceTypeForm, form.ID))
}

func TestTimeWindowHonoursTimezone(t *testing.T) {
	window := &TimeWindow{Timezone: "America/Los_Angeles"}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	window.StartDate = &start

	require.False(t, window.Contains(start.Add(-time.Minute)))
	require.True(t, window.Contains(start.Add(time.Minute)))

	// Open-ended windows always contain the instant.
	require.True(t, (&TimeWindow{}).Contains(time.Now()))
	require.True(t, (*TimeWindow)(nil).Contains(time.Now()))
}
