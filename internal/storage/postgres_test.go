package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"goodfit-api/internal/database"
	"goodfit-api/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests run the repository SQL against a real database. Point
// GOODFIT_TEST_DATABASE_URL at a disposable postgres to enable them.
const testDatabaseEnv = "GOODFIT_TEST_DATABASE_URL"

func openTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	db, err := database.Initialize(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db), db
}

// createUsers inserts n throwaway users and removes everything they own when
// the test ends.
func createUsers(t *testing.T, store *Store, db *gorm.DB, n int) []uint {
	t.Helper()
	ctx := context.Background()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Email:        uuid.NewString() + "@example.com",
			PasswordHash: "x",
			DisplayName:  "test",
		}
		require.NoError(t, store.CreateUser(ctx, user))
		ids = append(ids, user.ID)
	}

	t.Cleanup(func() {
		matchIDs := db.Model(&models.Match{}).Select("id").Where("user1_id IN ? OR user2_id IN ?", ids, ids)
		db.Where("match_id IN (?)", matchIDs).Delete(&models.Conversation{})
		db.Where("user1_id IN ? OR user2_id IN ?", ids, ids).Delete(&models.Match{})
		db.Where("from_user_id IN ? OR to_user_id IN ?", ids, ids).Delete(&models.Swipe{})
		db.Where("user_id IN ?", ids).Delete(&models.LiveActivity{})
		db.Where("user_id IN ?", ids).Delete(&models.UserStats{})
		db.Where("user_id IN ?", ids).Delete(&models.UserGoals{})
		db.Where("user_id IN ?", ids).Delete(&models.DailySummary{})
		db.Where("user_id IN ?", ids).Delete(&models.Profile{})
		db.Unscoped().Where("id IN ?", ids).Delete(&models.User{})
	})
	return ids
}

func TestPostgres_CreateMatchReadsBackExisting(t *testing.T) {
	store, db := openTestStore(t)
	ids := createUsers(t, store, db, 2)
	lo, hi := models.OrderedPair(ids[0], ids[1])
	ctx := context.Background()

	var first, second models.Match
	var firstNew, secondNew bool
	err := store.MatchTx(ctx, func(tx MatchTx) error {
		require.NoError(t, tx.LockPair(lo, hi))
		first = models.Match{User1ID: lo, User2ID: hi, IsActive: true}
		var err error
		firstNew, err = tx.CreateMatch(&first)
		return err
	})
	require.NoError(t, err)

	err = store.MatchTx(ctx, func(tx MatchTx) error {
		second = models.Match{User1ID: lo, User2ID: hi, IsActive: true}
		var err error
		secondNew, err = tx.CreateMatch(&second)
		return err
	})
	require.NoError(t, err)

	assert.True(t, firstNew)
	assert.False(t, secondNew)
	assert.NotZero(t, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.MatchedAt.Unix(), second.MatchedAt.Unix())

	var count int64
	require.NoError(t, db.Model(&models.Match{}).Where("user1_id = ? AND user2_id = ?", lo, hi).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostgres_UpdateLiveActivityRejectsStaleVersion(t *testing.T) {
	store, db := openTestStore(t)
	ids := createUsers(t, store, db, 1)
	ctx := context.Background()

	session := &models.LiveActivity{
		UserID:    ids[0],
		Type:      "running",
		Title:     "Morning run",
		Status:    models.LiveStatusActive,
		StartTime: time.Now().UTC(),
	}
	require.NoError(t, store.CreateLiveActivity(ctx, session))

	a, err := store.GetLiveActivity(ctx, ids[0], session.ID)
	require.NoError(t, err)
	b, err := store.GetLiveActivity(ctx, ids[0], session.ID)
	require.NoError(t, err)

	a.CurrentDistance = 1200
	require.NoError(t, store.UpdateLiveActivity(ctx, a))
	assert.Equal(t, 1, a.Version)

	b.CurrentDistance = 50
	err = store.UpdateLiveActivity(ctx, b)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, 0, b.Version)

	stored, err := store.GetLiveActivity(ctx, ids[0], session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, stored.CurrentDistance)
	assert.Equal(t, 1, stored.Version)
}

func TestPostgres_LockUserStatsSerializesWriters(t *testing.T) {
	store, db := openTestStore(t)
	ids := createUsers(t, store, db, 1)
	ctx := context.Background()

	_, err := store.GetUserStats(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)

	const writers, rounds = 4, 5
	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				errs <- store.ActivityTx(ctx, func(tx ActivityTx) error {
					stats, err := tx.LockUserStats(ids[0])
					if err != nil {
						return err
					}
					stats.TotalWorkouts++
					return tx.SaveUserStats(stats)
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stats, err := store.GetUserStats(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, writers*rounds, stats.TotalWorkouts)

	var rows int64
	require.NoError(t, db.Model(&models.UserStats{}).Where("user_id = ?", ids[0]).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestPostgres_ListDiscoverableFiltersInSQL(t *testing.T) {
	store, db := openTestStore(t)
	ids := createUsers(t, store, db, 7)
	ctx := context.Background()

	profile := func(userID uint, age int, gender string, prefMin, prefMax int) *models.Profile {
		p := models.NewProfile(userID)
		p.Age = &age
		p.Gender = gender
		p.PreferredAgeMin = prefMin
		p.PreferredAgeMax = prefMax
		require.NoError(t, store.SaveProfile(ctx, p))
		return p
	}

	requester := profile(ids[0], 30, models.GenderMale, 25, 35)
	requester.PreferredGenders = pq.StringArray{models.GenderFemale}
	require.NoError(t, store.SaveProfile(ctx, requester))

	fits := profile(ids[1], 28, models.GenderFemale, 18, 40)
	profile(ids[2], 28, models.GenderMale, 18, 40)   // wrong gender
	profile(ids[3], 40, models.GenderFemale, 18, 60) // too old for the requester
	profile(ids[4], 29, models.GenderFemale, 31, 40) // requester too young for them
	swiped := profile(ids[5], 27, models.GenderFemale, 18, 40)
	inactive := profile(ids[6], 28, models.GenderFemale, 18, 40)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	err := store.MatchTx(ctx, func(tx MatchTx) error {
		return tx.CreateSwipe(&models.Swipe{FromUserID: ids[0], ToUserID: swiped.UserID, Action: models.SwipePass})
	})
	require.NoError(t, err)

	pool, err := store.ListDiscoverable(ctx, requester)
	require.NoError(t, err)

	ours := make(map[uint]bool, len(ids))
	for _, id := range ids {
		ours[id] = true
	}
	var got []uint
	for _, p := range pool {
		if ours[p.UserID] {
			got = append(got, p.UserID)
			assert.NotNil(t, p.User)
		}
	}
	assert.Equal(t, []uint{fits.UserID}, got)
}

func TestPostgres_GetOrCreateDailySummary(t *testing.T) {
	store, db := openTestStore(t)
	ids := createUsers(t, store, db, 1)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	first, created, err := store.GetOrCreateDailySummary(ctx, ids[0], day)
	require.NoError(t, err)
	assert.True(t, created)

	first.TotalSteps = 4200
	require.NoError(t, store.SaveDailySummary(ctx, first))

	again, created, err := store.GetOrCreateDailySummary(ctx, ids[0], day)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 4200, again.TotalSteps)
	assert.Equal(t, "2024-06-10", again.Date.Format(dateLayout))

	_, _, err = store.GetOrCreateDailySummary(ctx, ids[0], day.AddDate(0, 0, 1))
	require.NoError(t, err)
	week, err := store.ListDailySummaries(ctx, ids[0], day, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "2024-06-11", week[0].Date.Format(dateLayout))

	goals, err := store.GetOrCreateGoals(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 10000, goals.DailyStepGoal)
	goalsAgain, err := store.GetOrCreateGoals(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, goals.ID, goalsAgain.ID)
}
