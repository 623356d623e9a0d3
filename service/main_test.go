// service/main_test.go
package service_test

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/db"
	logger "github.com/campusmesh/campus/api/logging"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()

	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	db.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	code := m.Run()
	mr.Close()
	os.Exit(code)
}
