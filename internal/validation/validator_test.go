package validation

import (
	"errors"
	"testing"

	"crowdguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_Zone(t *testing.T) {
	assert.NoError(t, ValidateStruct(&models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))

	err := ValidateStruct(&models.Zone{ZoneID: "Z01", Capacity: 0})
	require.Error(t, err)

	var verr *RequestValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "required", fields["location_name"])
	assert.Equal(t, "gt", fields["capacity"])
	assert.Contains(t, err.Error(), "capacity must be greater than 0")
}

func TestValidateStruct_RoleWithSpaces(t *testing.T) {
	req := models.NewUserRequest{UserID: "U9", Name: "Sam", Contact: "sam@example.com", Password: "pw"}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleSecurityOfficer, models.RoleEventOrganizer} {
		req.Role = role
		assert.NoError(t, ValidateStruct(&req), "role=%s", role)
	}

	req.Role = "Security"
	assert.Error(t, ValidateStruct(&req))
}

func TestValidateStruct_Patch(t *testing.T) {
	assert.NoError(t, ValidateStruct(&models.ZonePatch{}))

	zero := 0
	assert.Error(t, ValidateStruct(&models.ZonePatch{Capacity: &zero}))

	bad := models.Role("Guest")
	assert.Error(t, ValidateStruct(&models.UserPatch{Role: &bad}))
}
