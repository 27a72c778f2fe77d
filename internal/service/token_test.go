package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ethiogig/ethiogig-backend/internal/models"
)

func TestParseAccessRoundTrip(t *testing.T) {
	tm := testTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleFreelancer}

	pair, err := tm.GeneratePair(user)
	assert.NoError(t, err)

	userID, role, err := tm.ParseAccess(pair.AccessToken)

	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleFreelancer, role)
}

func TestParseAccessRejectsForeignSignature(t *testing.T) {
	tm := testTokenManager()
	foreign := NewTokenManager("other-access", "other-refresh", 15*time.Minute, time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleClient}

	pair, err := foreign.GeneratePair(user)
	assert.NoError(t, err)

	_, _, err = tm.ParseAccess(pair.AccessToken)

	assert.Error(t, err)
}

func TestParseRefreshRejectsAccessToken(t *testing.T) {
	tm := testTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleClient}

	pair, err := tm.GeneratePair(user)
	assert.NoError(t, err)

	_, err = tm.ParseRefresh(pair.AccessToken)

	assert.Error(t, err)
}
