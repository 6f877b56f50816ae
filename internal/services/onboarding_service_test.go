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
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
)

func basics() services.BasicsInput {
	return services.BasicsInput{FirstName: "Pat", LastName: "Lee", Email: "pat@example.com", Location: "Austin, TX"}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestOnboarding_WorkerScenario(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	identity := testutil.NewIdentity()
	events := &testutil.Publisher{}
	svc := services.NewOnboardingService(store, identity, events)

	res, err := identity.SignUp(ctx, "pat@example.com", "Abc123!@", "/onboarding?role=worker")
	require.NoError(t, err)
	user := res.User

	dest, err := svc.StartRole(ctx, user, models.RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, "/onboarding?role=worker", dest.Path())
	assert.Equal(t, models.StageEnabled, store.Stage(user.ID, models.RoleWorker))

	dest, err = svc.SubmitBasics(ctx, user, models.RoleWorker, basics())
	require.NoError(t, err)
	assert.Equal(t, "/setup-profile?role=worker", dest.Path())
	assert.Equal(t, models.StageBasicsDone, store.Stage(user.ID, models.RoleWorker))

	profile, err := store.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Lee", profile.FullName)
	require.NotNil(t, profile.City)
	assert.Equal(t, "Austin, TX", *profile.City)

	dest, err = svc.SubmitProfile(ctx, user, models.RoleWorker, services.ProfileInput{
		Headline:        "Licensed plumber",
		Specialties:     "Plumbing, HVAC,, Roofing ",
		Credentials:     "EPA 608",
		YearsExperience: intPtr(7),
		HourlyRate:      floatPtr(42.5),
		ServiceRadiusKm: intPtr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, "/portal?role=worker", dest.Path())
	assert.Equal(t, models.StageProfileDone, store.Stage(user.ID, models.RoleWorker))

	rp, err := store.GetRoleProfile(ctx, user.ID, models.RoleWorker)
	require.NoError(t, err)
	wp := rp.(*models.WorkerProfile)
	assert.Equal(t, []string{"Plumbing", "HVAC", "Roofing"}, []string(wp.Trades))
	assert.Equal(t, []string{"EPA 608"}, []string(wp.Certifications))
	require.NotNil(t, wp.RateCents)
	assert.Equal(t, int64(4250), *wp.RateCents)

	sess, err := identity.SignIn(ctx, "pat@example.com", "Abc123!@")
	require.NoError(t, err)
	final := services.NewResolver(store).Resolve(ctx, services.PasswordSignInRequest(&sess.User, "/portal?role=worker"))
	assert.Equal(t, services.Portal(models.RoleWorker), final)

	assert.Equal(t, []string{services.EventOnboardingBasicsDone, services.EventOnboardingProfileDone}, events.Keys())
}

func TestOnboarding_StageNeverMovesBack(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewOnboardingService(store, testutil.NewIdentity(), services.NoopPublisher{})
	user := newUser()

	_, err := svc.SubmitProfile(ctx, user, models.RoleCustomer, services.ProfileInput{Location: "Denver"})
	require.NoError(t, err)

	// A stale tab re-submitting step one.
	_, err = svc.SubmitBasics(ctx, user, models.RoleCustomer, basics())
	require.NoError(t, err)
	assert.Equal(t, models.StageProfileDone, store.Stage(user.ID, models.RoleCustomer))

	_, err = svc.StartRole(ctx, user, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.StageProfileDone, store.Stage(user.ID, models.RoleCustomer))
	assert.Equal(t, 1, store.RowCount(user.ID))
}

func TestOnboarding_RepeatedSubmitKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewOnboardingService(store, testutil.NewIdentity(), nil)
	user := newUser()

	for i := 0; i < 3; i++ {
		_, err := svc.SubmitBasics(ctx, user, models.RoleBusiness, basics())
		require.NoError(t, err)
	}
	_, err := svc.SubmitProfile(ctx, user, models.RoleBusiness, services.ProfileInput{CompanyName: "Lee Builders"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.RowCount(user.ID))
	assert.Equal(t, models.StageProfileDone, store.Stage(user.ID, models.RoleBusiness))
}

func TestOnboarding_BasicsRequiresFields(t *testing.T) {
	store := testutil.NewMemStore()
	svc := services.NewOnboardingService(store, testutil.NewIdentity(), nil)
	user := newUser()

	_, err := svc.SubmitBasics(context.Background(), user, models.RoleWorker, services.BasicsInput{FirstName: "Pat"})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "last_name")
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "location")
	assert.NotContains(t, fe, "first_name")
	assert.Zero(t, store.RowCount(user.ID))
}

func TestOnboarding_SubmitFailureSurfaces(t *testing.T) {
	store := testutil.NewMemStore()
	store.Err = errors.New("db down")
	svc := services.NewOnboardingService(store, testutil.NewIdentity(), nil)

	_, err := svc.SubmitBasics(context.Background(), newUser(), models.RoleWorker, basics())
	assert.Error(t, err)
}

func TestProfileInput_RoleProfile(t *testing.T) {
	user := newUser()
	in := services.ProfileInput{
		Location:    "Boise",
		CompanyName: "Acme",
		Portfolio:   "https://acme.example",
		ServiceArea: "Seattle",
	}

	rp, err := in.RoleProfile(user.ID, models.RoleCustomer)
	require.NoError(t, err)
	cp := rp.(*models.CustomerProfile)
	assert.Equal(t, "app", cp.PreferredContactMethod)
	assert.Equal(t, "Boise", *cp.DefaultCity)

	rp, err = in.RoleProfile(user.ID, models.RoleBusiness)
	require.NoError(t, err)
	bp := rp.(*models.BusinessProfile)
	assert.Equal(t, "Acme", *bp.CompanyName)
	assert.Equal(t, "https://acme.example", *bp.Website)
	assert.Equal(t, "Seattle", *bp.HQCity)

	rp, err = services.ProfileInput{}.RoleProfile(user.ID, models.RoleWorker)
	require.NoError(t, err)
	wp := rp.(*models.WorkerProfile)
	assert.Nil(t, wp.RateCents)
	assert.Nil(t, wp.Headline)
	assert.Empty(t, wp.Trades)

	_, err = in.RoleProfile(user.ID, models.Role("admin"))
	assert.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestOnboarding_Previous(t *testing.T) {
	identity := testutil.NewIdentity()
	svc := services.NewOnboardingService(testutil.NewMemStore(), identity, nil)

	assert.Equal(t, "/onboarding?role=worker", svc.PreviousFromProfile(models.RoleWorker).Path())

	dest, err := svc.PreviousFromBasics(context.Background(), "refresh-abc")
	require.NoError(t, err)
	assert.Equal(t, "/", dest.Path())
	assert.Equal(t, []string{"refresh-abc"}, identity.SignedOut)
}

func TestOnboarding_Prefill(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewOnboardingService(store, testutil.NewIdentity(), nil)
	user := &services.AuthUser{ID: newUser().ID, Email: "ada@example.com", FullName: "Ada King Lovelace"}

	pf := svc.Prefill(ctx, user, models.RoleWorker)
	assert.Equal(t, "Ada", pf.FirstName)
	assert.Equal(t, "King Lovelace", pf.LastName)
	assert.Equal(t, "ada@example.com", pf.Email)
	assert.Equal(t, services.Onboarding(models.RoleWorker), pf.NextStep)
	assert.Nil(t, pf.Profile)

	_, err := svc.SubmitBasics(ctx, user, models.RoleWorker, services.BasicsInput{
		FirstName: "Ada", LastName: "Lovelace", Email: user.Email, Location: "London",
	})
	require.NoError(t, err)

	pf = svc.Prefill(ctx, user, models.RoleWorker)
	assert.Equal(t, models.StageBasicsDone, pf.Stage)
	assert.Equal(t, services.SetupProfile(models.RoleWorker), pf.NextStep)
	assert.Equal(t, "London", pf.Location)

	store.Err = errors.New("timeout")
	pf = svc.Prefill(ctx, user, models.RoleWorker)
	assert.Equal(t, "Ada", pf.FirstName)
	assert.Empty(t, pf.Stage)
}
