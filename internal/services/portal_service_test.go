package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/testutil"
)

func labels(tabs []services.Tab) []string {
	out := make([]string, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, t.Label)
	}
	return out
}

func TestTabs(t *testing.T) {
	tabs, def := services.Tabs(models.RoleCustomer)
	assert.Equal(t, []string{"Post Work", "My Tasks", "Profile", "Messages"}, labels(tabs))
	assert.Equal(t, services.TabFind, def)

	tabs, def = services.Tabs(models.RoleWorker)
	assert.Equal(t, []string{"Search Jobs", "My Work", "Availability", "Profile", "Messages"}, labels(tabs))
	assert.Equal(t, services.TabWorker, def)

	tabs, def = services.Tabs(models.RoleBusiness)
	assert.Equal(t, []string{"Projects", "Workers", "Applications", "Messages"}, labels(tabs))
	assert.Equal(t, services.TabFind, def)
}

func TestPortalShell_RoleSelection(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewPortalService(store)
	user := newUser()

	shell := svc.Shell(ctx, user, "")
	assert.Equal(t, models.RoleCustomer, shell.Role)
	assert.Empty(t, shell.Roles)
	assert.Equal(t, services.Onboarding(models.RoleCustomer), shell.NextStep)

	setStage(t, store, user, models.RoleCustomer, models.StageBasicsDone)
	setStage(t, store, user, models.RoleWorker, models.StageProfileDone)

	shell = svc.Shell(ctx, user, "")
	assert.Equal(t, models.RoleWorker, shell.Role)
	assert.Equal(t, models.StageProfileDone, shell.Stage)
	assert.Equal(t, services.TabWorker, shell.DefaultTab)
	assert.Len(t, shell.Roles, 2)

	shell = svc.Shell(ctx, user, "customer")
	assert.Equal(t, models.RoleCustomer, shell.Role)
	assert.Equal(t, services.SetupProfile(models.RoleCustomer), shell.NextStep)

	shell = svc.Shell(ctx, user, "admin")
	assert.Equal(t, models.RoleWorker, shell.Role)
}

func TestPortalShell_FailsOpen(t *testing.T) {
	store := testutil.NewMemStore()
	store.Err = errors.New("db down")
	user := newUser()

	shell := services.NewPortalService(store).Shell(context.Background(), user, "business")
	assert.Equal(t, models.RoleBusiness, shell.Role)
	assert.Equal(t, user.Email, shell.Email)
	assert.Len(t, shell.Tabs, 4)
}

func TestPortalWorkerForm(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewPortalService(store)
	user := newUser()

	form, err := svc.WorkerForm(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, &services.WorkerForm{}, form)

	saved, err := svc.SaveWorkerForm(ctx, user, services.WorkerForm{
		Specialties:     "Tile, Grout",
		YearsExperience: intPtr(4),
		HourlyRate:      floatPtr(55),
		ServiceArea:     "Portland",
		Credentials:     "OSHA 10",
		Portfolio:       " https://tiles.example ",
		About:           "Bathrooms and kitchens",
		Availability:    "Weekdays",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tile, Grout", saved.Specialties)
	assert.Equal(t, 4, *saved.YearsExperience)
	assert.Equal(t, 55.0, *saved.HourlyRate)
	assert.Equal(t, "Portland", saved.ServiceArea)
	assert.Equal(t, "OSHA 10", saved.Credentials)
	assert.Equal(t, "https://tiles.example", saved.Portfolio)
	assert.Equal(t, "Bathrooms and kitchens", saved.About)
	assert.Equal(t, "Weekdays", saved.Availability)

	// Saving from the portal never touches the onboarding stage.
	assert.Zero(t, store.RowCount(user.ID))
}

func TestPortalSaveWorkerForm_PreservesOtherColumns(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	user := newUser()

	onboarding := services.NewOnboardingService(store, testutil.NewIdentity(), nil)
	_, err := onboarding.SubmitProfile(ctx, user, models.RoleWorker, services.ProfileInput{
		Headline:        "Master electrician",
		ServiceRadiusKm: intPtr(40),
	})
	require.NoError(t, err)

	_, err = services.NewPortalService(store).SaveWorkerForm(ctx, user, services.WorkerForm{
		HourlyRate: floatPtr(-20),
	})
	require.NoError(t, err)

	rp, err := store.GetRoleProfile(ctx, user.ID, models.RoleWorker)
	require.NoError(t, err)
	wp := rp.(*models.WorkerProfile)
	require.NotNil(t, wp.Headline)
	assert.Equal(t, "Master electrician", *wp.Headline)
	require.NotNil(t, wp.ServiceRadiusKm)
	assert.Equal(t, 40, *wp.ServiceRadiusKm)
	require.NotNil(t, wp.RateCents)
	assert.Equal(t, int64(0), *wp.RateCents)
	assert.Equal(t, models.StageProfileDone, store.Stage(user.ID, models.RoleWorker))
}

func TestResubmittedWizardKeepsPortalColumns(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	user := newUser()
	onboarding := services.NewOnboardingService(store, testutil.NewIdentity(), nil)
	portal := services.NewPortalService(store)

	_, err := portal.SaveWorkerForm(ctx, user, services.WorkerForm{
		ServiceArea:  "Portland",
		Portfolio:    "https://tiles.example",
		Availability: "Weekdays",
		Specialties:  "Tile",
	})
	require.NoError(t, err)

	_, err = onboarding.SubmitProfile(ctx, user, models.RoleWorker, services.ProfileInput{
		Headline:    "Tile setter",
		Specialties: "Tile, Stone",
	})
	require.NoError(t, err)

	form, err := portal.WorkerForm(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Portland", form.ServiceArea)
	assert.Equal(t, "https://tiles.example", form.Portfolio)
	assert.Equal(t, "Weekdays", form.Availability)
	assert.Equal(t, "Tile, Stone", form.Specialties)

	rp, err := store.GetRoleProfile(ctx, user.ID, models.RoleWorker)
	require.NoError(t, err)
	wp := rp.(*models.WorkerProfile)
	require.NotNil(t, wp.RateType)
	assert.Equal(t, models.RateHourly, *wp.RateType)
	require.NotNil(t, wp.Headline)
	assert.Equal(t, "Tile setter", *wp.Headline)
}
