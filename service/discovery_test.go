package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkmatch/apperr"
	"sparkmatch/model"
	"sparkmatch/service"
)

func TestListCandidatesExclusions(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	discoverySvc := service.NewDiscoveryService(db)
	interactionSvc := service.NewInteractionService(db, newDispatcher(t))

	alice := createUser(t, db, "alice")
	liked := createUser(t, db, "liked")
	disliked := createUser(t, db, "disliked")
	likedBy := createUser(t, db, "likedBy")
	blocked := createUser(t, db, "blocked")
	blocker := createUser(t, db, "blocker")
	favorited := createUser(t, db, "favorited")
	createUser(t, db, "fresh")

	_, err := interactionSvc.RecordLike(ctx, alice.ID, liked.ID)
	require.NoError(t, err)
	require.NoError(t, interactionSvc.RecordDislike(ctx, alice.ID, disliked.ID))
	_, err = interactionSvc.RecordLike(ctx, likedBy.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Block{UserID: alice.ID, BlockedID: blocked.ID}).Error)
	require.NoError(t, db.Create(&model.Block{UserID: blocker.ID, BlockedID: alice.ID}).Error)
	require.NoError(t, interactionSvc.RecordFavorite(ctx, alice.ID, favorited.ID))

	result, err := discoverySvc.ListCandidates(alice.ID, service.Filters{}, 1, 20)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, c := range result.Candidates {
		ids[c.Name] = true
	}

	assert.False(t, ids["alice"], "requester must not appear")
	assert.False(t, ids["liked"])
	assert.False(t, ids["disliked"])
	assert.False(t, ids["likedBy"], "reverse-direction like also excludes")
	assert.False(t, ids["blocked"])
	assert.False(t, ids["blocker"])
	// 收藏不排除
	assert.True(t, ids["favorited"])
	assert.True(t, ids["fresh"])
}

func TestListCandidatesGeoFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewDiscoveryService(db)

	// 伦敦为圆心
	alice := createUser(t, db, "alice", withCoords(51.5074, -0.1278))
	createUser(t, db, "near", withCoords(51.5155, -0.0922))   // ~3km
	createUser(t, db, "far", withCoords(48.8566, 2.3522))     // 巴黎，~340km
	createUser(t, db, "nocoords")                             // 没坐标，启用距离过滤时被排除

	maxKm := 50.0
	result, err := svc.ListCandidates(alice.ID, service.Filters{MaxDistanceKm: &maxKm}, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "near", result.Candidates[0].Name)
	require.NotNil(t, result.Candidates[0].DistanceKm)
	assert.Less(t, *result.Candidates[0].DistanceKm, 10.0)
}

func TestListCandidatesGeoFilterWithoutCoords(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewDiscoveryService(db)

	alice := createUser(t, db, "alice") // 没坐标
	createUser(t, db, "bob", withCoords(51.5, -0.1))

	maxKm := 50.0
	_, err := svc.ListCandidates(alice.ID, service.Filters{MaxDistanceKm: &maxKm}, 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))
}

func TestListCandidatesAgeAndGenderFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewDiscoveryService(db)

	alice := createUser(t, db, "alice")
	createUser(t, db, "young", withDOB("2005-06-01"))
	createUser(t, db, "mid", withDOB("1995-06-01"))
	createUser(t, db, "old", withDOB("1970-06-01"))
	createUser(t, db, "midMale", withDOB("1995-06-01"), withGender("male"))

	minAge, maxAge := 25, 40
	gender := "female"
	result, err := svc.ListCandidates(alice.ID,
		service.Filters{MinAge: &minAge, MaxAge: &maxAge, Gender: &gender}, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "mid", result.Candidates[0].Name)
	assert.GreaterOrEqual(t, result.Candidates[0].Age, 25)
}

func TestListCandidatesRankingAndPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewDiscoveryService(db)

	pref := &model.Preference{
		AgeRange:      [2]int{22, 30},
		HeightRange:   [2]string{`5'2"`, `5'10"`},
		MaxDistanceKm: 50,
		Religion:      "none",
	}
	alice := createUser(t, db, "alice", withPreference(pref), withInterests("hiking", "jazz"))
	createUser(t, db, "plain")
	createUser(t, db, "similar", withPreference(pref), withInterests("hiking", "jazz"))

	result, err := svc.ListCandidates(alice.ID, service.Filters{}, 1, 1)
	require.NoError(t, err)

	// 有相似偏好的候选排在前面
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "similar", result.Candidates[0].Name)
	assert.Greater(t, result.Candidates[0].Score, 0.0)

	assert.Equal(t, 2, result.Page.TotalItems)
	assert.Equal(t, 2, result.Page.TotalPages)
	assert.Equal(t, 1, result.Page.CurrentPage)
	assert.True(t, result.Page.HasNext)
	assert.False(t, result.Page.HasPrev)
	assert.Equal(t, 1, result.Page.ItemsInPage)

	page2, err := svc.ListCandidates(alice.ID, service.Filters{}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page2.Candidates, 1)
	assert.Equal(t, "plain", page2.Candidates[0].Name)
	assert.True(t, page2.Page.HasPrev)
	assert.False(t, page2.Page.HasNext)
}

func TestListCandidatesUnknownRequester(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewDiscoveryService(db)
	ghost := createUser(t, db, "ghost")
	require.NoError(t, db.Delete(&model.User{}, "id = ?", ghost.ID).Error)

	_, err := svc.ListCandidates(ghost.ID, service.Filters{}, 1, 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
