package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestMongoUserCollection_InsertAndFind(t *testing.T) {
	database := testDatabase(t)
	userCollection := &MongoUserCollection{Collection: database.Collection("users")}

	user := models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleTechnician,
	}
	require.NoError(t, userCollection.InsertUser(context.Background(), user))

	found, err := userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, user.Role, found.Role)
	assert.True(t, found.IsActive)
	assert.NotZero(t, found.CreatedAt)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	database := testDatabase(t)
	userCollection := &MongoUserCollection{Collection: database.Collection("users")}

	require.NoError(t, userCollection.InsertUser(context.Background(), models.User{Username: "testuser", Role: models.RoleViewer}))
	found, err := userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Nil(t, found.LastLogin)

	require.NoError(t, userCollection.UpdateLastLogin(context.Background(), found.ID.Hex()))
	found, err = userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.NotNil(t, found.LastLogin)

	assert.Error(t, userCollection.UpdateLastLogin(context.Background(), "invalid-id"))
}
