package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/api/dto"
)

func TestOptionalStringAbsentNullConcrete(t *testing.T) {
	type payload struct {
		DriverID dto.OptionalString `json:"driverId"`
	}

	var absent payload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.DriverID.Set)

	var null payload
	require.NoError(t, json.Unmarshal([]byte(`{"driverId":null}`), &null))
	assert.True(t, null.DriverID.Set)
	assert.Nil(t, null.DriverID.Value)

	var concrete payload
	require.NoError(t, json.Unmarshal([]byte(`{"driverId":"d1"}`), &concrete))
	assert.True(t, concrete.DriverID.Set)
	require.NotNil(t, concrete.DriverID.Value)
	assert.Equal(t, "d1", *concrete.DriverID.Value)
}

func TestOptionalStringRejectsNonString(t *testing.T) {
	var field dto.OptionalString
	assert.Error(t, json.Unmarshal([]byte(`42`), &field))
}
