package jwtPkg

import (
	"testing"
	"time"

	"SalonAssistant/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignOperator_RoundTrip(t *testing.T) {
	t.Setenv(AccessTokenSecret, "test-secret")

	token, exp, err := SignOperator(entity.Operator{ID: "op-1", Name: "Resepsiyon", Role: "admin"}, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	parsed, err := Verify(token, AccessTokenSecret)
	require.NoError(t, err)

	op, err := OperatorFromClaims(parsed.Claims.(jwt.MapClaims))
	require.NoError(t, err)
	assert.Equal(t, "op-1", op.ID)
	assert.Equal(t, "admin", op.Role)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Setenv(AccessTokenSecret, "one")
	token, _, err := SignOperator(entity.Operator{ID: "op-1"}, time.Hour)
	require.NoError(t, err)

	t.Setenv(AccessTokenSecret, "two")
	_, err = Verify(token, AccessTokenSecret)
	assert.Error(t, err)
}

func TestOperatorFromClaims_Missing(t *testing.T) {
	_, err := OperatorFromClaims(jwt.MapClaims{"name": "x"})
	assert.Error(t, err)
}
