package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sparkmatch/model"
	"sparkmatch/service"
)

func prefProfile() *model.Preference {
	return &model.Preference{
		AgeRange:         [2]int{22, 30},
		HeightRange:      [2]string{`5'2"`, `5'10"`},
		MaxDistanceKm:    50,
		Ethnicity:        "asian",
		Religion:         "none",
		RelationshipGoal: "long-term",
		Smoking:          "never",
		Education:        "bachelor",
		Drinking:         "socially",
		Kids:             "someday",
		InterestedGender: "female",
	}
}

func TestSimilarityIdenticalProfiles(t *testing.T) {
	a := &model.User{Gender: "female", Preference: prefProfile(), Interests: model.StringList{"hiking", "jazz"}}
	b := &model.User{Gender: "female", Preference: prefProfile(), Interests: model.StringList{"hiking", "jazz"}}

	// 年龄 1 + 身高 1 + 距离 1 + 七项分类 7 + 性别取向 1 + 兴趣 1
	score := service.Similarity(a, b)
	assert.InDelta(t, 12.0, score, 1e-9)
}

func TestSimilarityMissingPreference(t *testing.T) {
	a := &model.User{Preference: prefProfile()}
	b := &model.User{}
	assert.Zero(t, service.Similarity(a, b))
	assert.Zero(t, service.Similarity(b, a))
}

func TestSimilarityDisjointRanges(t *testing.T) {
	a := &model.User{Preference: prefProfile()}
	bp := prefProfile()
	bp.AgeRange = [2]int{40, 50}
	bp.HeightRange = [2]string{`6'0"`, `6'5"`}
	b := &model.User{Preference: bp}

	ap := prefProfile()
	ap.AgeRange = [2]int{22, 30}
	a.Preference = ap

	// 区间不相交的子项记 0 分，其余子项不受影响
	scoreWithDisjoint := service.Similarity(a, b)
	bp.AgeRange = ap.AgeRange
	bp.HeightRange = ap.HeightRange
	scoreWithOverlap := service.Similarity(a, b)
	assert.InDelta(t, 2.0, scoreWithOverlap-scoreWithDisjoint, 1e-9)
}

func TestSimilarityInterestOverlap(t *testing.T) {
	a := &model.User{Preference: prefProfile(), Interests: model.StringList{"hiking", "jazz", "cooking", "film"}}
	b := &model.User{Preference: prefProfile(), Interests: model.StringList{"hiking", "jazz"}}

	base := service.Similarity(
		&model.User{Preference: prefProfile()},
		&model.User{Preference: prefProfile()},
	)
	// 交集 2，较大集合 4
	assert.InDelta(t, base+0.5, service.Similarity(a, b), 1e-9)

	// 任一方没有兴趣时记 0 分，不是 NaN
	b.Interests = nil
	assert.InDelta(t, base, service.Similarity(a, b), 1e-9)
}

func TestSimilarityDistancePreference(t *testing.T) {
	a := &model.User{Preference: prefProfile()}
	bp := prefProfile()
	bp.MaxDistanceKm = 100 // 候选方的距离偏好更宽，不得分
	b := &model.User{Preference: bp}

	narrow := prefProfile()
	narrow.MaxDistanceKm = 10
	c := &model.User{Preference: narrow}

	assert.InDelta(t, 1.0, service.Similarity(a, c)-service.Similarity(a, b), 1e-9)
}

func TestSimilarityAsymmetric(t *testing.T) {
	ap := prefProfile()
	ap.MaxDistanceKm = 10
	a := &model.User{Gender: "male", Preference: ap}

	bp := prefProfile()
	bp.InterestedGender = "male"
	b := &model.User{Gender: "female", Preference: bp}

	// 双方各用自己的偏好打分，数值可以不同，但都落在有效范围内
	ab := service.Similarity(a, b)
	ba := service.Similarity(b, a)
	assert.GreaterOrEqual(t, ab, 0.0)
	assert.GreaterOrEqual(t, ba, 0.0)
	assert.LessOrEqual(t, ab, 12.0)
	assert.LessOrEqual(t, ba, 12.0)
}
