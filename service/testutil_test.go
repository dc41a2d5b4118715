package service_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sparkmatch/model"
	"sparkmatch/service"
	"sparkmatch/utils"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := utils.AutoMigrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newDispatcher(t *testing.T) *service.Dispatcher {
	t.Helper()
	return service.NewDispatcher(setupTestRedis(t))
}

type userOpt func(*model.User)

func withQuota(q int) userOpt {
	return func(u *model.User) {
		u.SwipeQuota = q
		u.UnlimitedSwipes = false
	}
}

func withCoords(lat, lon float64) userOpt {
	return func(u *model.User) {
		u.Lat = &lat
		u.Lon = &lon
	}
}

func withDOB(dob string) userOpt {
	return func(u *model.User) { u.DOB = dob }
}

func withGender(g string) userOpt {
	return func(u *model.User) { u.Gender = g }
}

func withPreference(p *model.Preference) userOpt {
	return func(u *model.User) { u.Preference = p }
}

func withInterests(interests ...string) userOpt {
	return func(u *model.User) { u.Interests = interests }
}

func createUser(t *testing.T, db *gorm.DB, name string, opts ...userOpt) *model.User {
	t.Helper()
	user := &model.User{
		Name:            name,
		Email:           name + "-" + uuid.NewString()[:8] + "@example.com",
		Gender:          "female",
		DOB:             "1998-04-12",
		SwipeQuota:      50,
		UnlimitedSwipes: true,
		PhotoURLs:       model.StringList{"https://cdn.example.com/" + name + ".jpg"},
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}
