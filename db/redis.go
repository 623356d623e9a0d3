// db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Institution roles feed authorization decisions; their cached form is
// encrypted at rest.
func CacheInstitutionRole(ctx context.Context, role *model.InstitutionRole) error {
	roleJSON, err := json.Marshal(role)
	if err != nil {
		return fmt.Errorf("failed to marshal institution role: %w", err)
	}

	encryptedRole, err := encrypt(roleJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt institution role: %w", err)
	}

	key := fmt.Sprintf("institution-role:%s", role.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encryptedRole), defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache institution role: %w", err)
	}

	logger.Debug("Institution role cached successfully", zap.String("roleID", role.ID))
	return nil
}

func GetCachedInstitutionRole(ctx context.Context, roleID string) (*model.InstitutionRole, error) {
	key := fmt.Sprintf("institution-role:%s", roleID)
	encryptedRoleStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Institution role not found in cache", zap.String("roleID", roleID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get institution role from cache: %w", err)
	}

	encryptedRole, err := base64.StdEncoding.DecodeString(encryptedRoleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode institution role: %w", err)
	}

	roleJSON, err := decrypt(encryptedRole)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt institution role: %w", err)
	}

	var role model.InstitutionRole
	err = json.Unmarshal(roleJSON, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal institution role: %w", err)
	}

	logger.Debug("Institution role retrieved from cache", zap.String("roleID", roleID))
	return &role, nil
}

func DeleteCachedInstitutionRole(ctx context.Context, roleID string) error {
	key := fmt.Sprintf("institution-role:%s", roleID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete institution role from cache: %w", err)
	}
	logger.Debug("Institution role deleted from cache", zap.String("roleID", roleID))
	return nil
}

func CacheInstitution(ctx context.Context, institution *model.Institution) error {
	institutionJSON, err := json.Marshal(institution)
	if err != nil {
		return fmt.Errorf("failed to marshal institution: %w", err)
	}

	key := fmt.Sprintf("institution:%s", institution.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, institutionJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache institution: %w", err)
	}

	logger.Debug("Institution cached successfully", zap.String("institutionID", institution.ID))
	return nil
}

func GetCachedInstitution(ctx context.Context, institutionID string) (*model.Institution, error) {
	key := fmt.Sprintf("institution:%s", institutionID)
	institutionJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Institution not found in cache", zap.String("institutionID", institutionID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get institution from cache: %w", err)
	}

	var institution model.Institution
	err = json.Unmarshal([]byte(institutionJSON), &institution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal institution: %w", err)
	}

	logger.Debug("Institution retrieved from cache", zap.String("institutionID", institutionID))
	return &institution, nil
}

func DeleteCachedInstitution(ctx context.Context, institutionID string) error {
	key := fmt.Sprintf("institution:%s", institutionID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete institution from cache: %w", err)
	}
	logger.Debug("Institution deleted from cache", zap.String("institutionID", institutionID))
	return nil
}

func CacheInstitutionUser(ctx context.Context, user *model.InstitutionUser) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal institution user: %w", err)
	}

	key := fmt.Sprintf("institution-user:%s", user.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, userJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache institution user: %w", err)
	}

	logger.Debug("Institution user cached successfully", zap.String("userID", user.ID))
	return nil
}

func GetCachedInstitutionUser(ctx context.Context, userID string) (*model.InstitutionUser, error) {
	key := fmt.Sprintf("institution-user:%s", userID)
	userJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Institution user not found in cache", zap.String("userID", userID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get institution user from cache: %w", err)
	}

	var user model.InstitutionUser
	err = json.Unmarshal([]byte(userJSON), &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal institution user: %w", err)
	}

	logger.Debug("Institution user retrieved from cache", zap.String("userID", userID))
	return &user, nil
}

func DeleteCachedInstitutionUser(ctx context.Context, userID string) error {
	key := fmt.Sprintf("institution-user:%s", userID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete institution user from cache: %w", err)
	}
	logger.Debug("Institution user deleted from cache", zap.String("userID", userID))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Bool("allowed", allowed))

	return allowed, nil
}
