package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/model"
)

func TestPolicy_Can(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	user := &model.User{ID: 1}
	member := func(role string) *model.Membership {
		return &model.Membership{UserID: 1, TenantID: 1, Role: role, IsActive: true}
	}

	tests := []struct {
		name       string
		membership *model.Membership
		capability string
		want       bool
	}{
		{"receptionist manages bookings", member(model.RoleReceptionist), CapManageBookings, true},
		{"receptionist records payments", member(model.RoleReceptionist), CapRecordPayments, true},
		{"receptionist cannot manage subscription", member(model.RoleReceptionist), CapManageSubscription, false},
		{"manager inherits receptionist", member(model.RoleManager), CapManageBookings, true},
		{"manager inherits cleaner", member(model.RoleManager), CapManageHousekeeping, true},
		{"admin inherits everything", member(model.RoleAdmin), CapManageEvents, true},
		{"admin manages subscription", member(model.RoleAdmin), CapManageSubscription, true},
		{"cleaner updates rooms", member(model.RoleCleaner), CapManageHousekeeping, true},
		{"staff updates rooms", member(model.RoleStaff), CapManageHousekeeping, true},
		{"cleaner cannot check in", member(model.RoleCleaner), CapManageBookings, false},
		{"kitchen cannot update rooms", member(model.RoleKitchen), CapManageHousekeeping, false},
		{"guest has nothing", member(model.RoleGuest), CapManageBookings, false},
		{"no membership", nil, CapManageBookings, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Can(user, tt.membership, tt.capability))
		})
	}
}

func TestPolicy_InactiveMembership(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	m := &model.Membership{UserID: 1, Role: model.RoleAdmin, IsActive: false}
	assert.False(t, p.Can(&model.User{ID: 1}, m, CapManageBookings))
}

func TestPolicy_MembershipOfAnotherUser(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	m := &model.Membership{UserID: 2, Role: model.RoleAdmin, IsActive: true}
	assert.False(t, p.Can(&model.User{ID: 1}, m, CapManageBookings))
}

func TestPolicy_SuperuserBypass(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	assert.True(t, p.Can(&model.User{ID: 9, IsSuperuser: true}, nil, CapManageSubscription))
}
