// db/redis_test.go
package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

var testRedis *miniredis.Miniredis

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()

	var err error
	testRedis, err = miniredis.Run()
	if err != nil {
		panic(err)
	}
	RedisClient = redis.NewClient(&redis.Options{Addr: testRedis.Addr()})
	encryptionKey = []byte("0123456789abcdef0123456789abcdef")
	viper.Set("redis.defaultCacheTTL", time.Minute)

	code := m.Run()
	testRedis.Close()
	os.Exit(code)
}

func TestInstitutionRoleCache(t *testing.T) {
	ctx := context.Background()

	role := &model.InstitutionRole{
		ID:            "inst-role::1",
		Name:          "Registrar",
		InstitutionID: "inst::1",
		PermissionIDs: []string{"perm::1"},
		Auditable:     model.Auditable{IsActive: true},
	}

	t.Run("Roundtrip", func(t *testing.T) {
		require.NoError(t, CacheInstitutionRole(ctx, role))

		cached, err := GetCachedInstitutionRole(ctx, role.ID)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, role.Name, cached.Name)
		assert.Equal(t, role.InstitutionID, cached.InstitutionID)
		assert.Equal(t, role.PermissionIDs, cached.PermissionIDs)
	})

	t.Run("StoredValueIsNotPlaintext", func(t *testing.T) {
		require.NoError(t, CacheInstitutionRole(ctx, role))

		stored, err := testRedis.Get("institution-role:" + role.ID)
		require.NoError(t, err)

		plaintext, err := json.Marshal(role)
		require.NoError(t, err)
		assert.NotContains(t, stored, string(plaintext))
		assert.NotContains(t, stored, role.Name)
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		cached, err := GetCachedInstitutionRole(ctx, "inst-role::missing")
		require.NoError(t, err)
		assert.Nil(t, cached)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, CacheInstitutionRole(ctx, role))
		require.NoError(t, DeleteCachedInstitutionRole(ctx, role.ID))

		cached, err := GetCachedInstitutionRole(ctx, role.ID)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})
}

func TestInstitutionCache(t *testing.T) {
	ctx := context.Background()

	institution := &model.Institution{
		ID:        "inst::1",
		Name:      "Crestwood College",
		Type:      model.InstitutionTypeCollege,
		Auditable: model.Auditable{IsActive: true},
	}

	t.Run("Roundtrip", func(t *testing.T) {
		require.NoError(t, CacheInstitution(ctx, institution))

		cached, err := GetCachedInstitution(ctx, institution.ID)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, institution.Name, cached.Name)
		assert.Equal(t, institution.Type, cached.Type)
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		cached, err := GetCachedInstitution(ctx, "inst::missing")
		require.NoError(t, err)
		assert.Nil(t, cached)
	})
}

func TestRateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("AllowsWithinLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := RateLimit(ctx, "client-a", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("BlocksBeyondLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := RateLimit(ctx, "client-b", 3, time.Minute)
			require.NoError(t, err)
		}
		allowed, err := RateLimit(ctx, "client-b", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
