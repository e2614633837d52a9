package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

func TestCan_Matriz(t *testing.T) {
	cases := []struct {
		role entity.Role
		cap  entity.Capability
		want bool
	}{
		{entity.RoleAdmin, entity.CapReviewWithdrawal, true},
		{entity.RoleAdmin, entity.CapManageCatalog, true},
		{entity.RoleDoctor, entity.CapRequestWithdrawal, true},
		{entity.RoleDoctor, entity.CapTransferBetweenLocations, false},
		{entity.RoleStaff, entity.CapTransferBetweenLocations, true},
		{entity.RoleStaff, entity.CapReviewWithdrawal, false},
		{entity.RoleReception, entity.CapViewStock, true},
		{entity.RoleReception, entity.CapRequestWithdrawal, false},
		{entity.Role("superuser"), entity.CapViewStock, false},
		{entity.Role(""), entity.CapViewStock, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, entity.Can(tc.role, tc.cap), "%s/%s", tc.role, tc.cap)
	}
}

func TestParseRole(t *testing.T) {
	r, ok := entity.ParseRole("reception")
	assert.True(t, ok)
	assert.Equal(t, entity.RoleReception, r)

	_, ok = entity.ParseRole("Admin")
	assert.False(t, ok, "los roles distinguen mayúsculas")
}
