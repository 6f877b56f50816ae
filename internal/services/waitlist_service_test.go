package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/testutil"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
)

func TestWaitlistJoin(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	events := &testutil.Publisher{}
	svc := services.NewWaitlistService(store, events)

	sub, err := svc.Join(ctx, services.WaitlistInput{
		Name:  " Sam ",
		Email: "Sam@Example.com",
		Phone: "+1 (555) 123-4567",
		Role:  "worker",
	}, "curl/8.0")
	require.NoError(t, err)
	assert.Equal(t, "Sam", sub.Name)
	assert.Equal(t, "sam@example.com", sub.Email)
	assert.Equal(t, "landing_page", sub.Source)
	require.NotNil(t, sub.UserAgent)
	assert.Equal(t, "curl/8.0", *sub.UserAgent)
	assert.Equal(t, []string{services.EventWaitlistJoined}, events.Keys())

	_, err = svc.Join(ctx, services.WaitlistInput{Name: "Sam", Email: "sam@example.com", Role: "worker"}, "")
	assert.ErrorIs(t, err, services.ErrAlreadyJoined)

	// Another role is a separate submission.
	_, err = svc.Join(ctx, services.WaitlistInput{Name: "Sam", Email: "sam@example.com", Role: "business", Source: "footer"}, "")
	require.NoError(t, err)

	subs, total, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, subs, 2)
	assert.Equal(t, "footer", subs[0].Source)
}

func TestWaitlistJoin_Validation(t *testing.T) {
	svc := services.NewWaitlistService(testutil.NewMemStore(), nil)

	_, err := svc.Join(context.Background(), services.WaitlistInput{
		Name: "Sam", Email: "sam@example.com", Phone: "123",
	}, "")
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"Please enter a valid phone number or leave it blank."}, fe["phone"])

	_, err = svc.Join(context.Background(), services.WaitlistInput{Email: "nope", Role: "admin"}, "")
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "name")
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "role")
}

func TestWaitlistJoin_PublishFailureIgnored(t *testing.T) {
	events := &testutil.Publisher{Err: errors.New("broker gone")}
	svc := services.NewWaitlistService(testutil.NewMemStore(), events)

	_, err := svc.Join(context.Background(), services.WaitlistInput{Name: "Sam", Email: "sam@example.com"}, "")
	assert.NoError(t, err)
}
