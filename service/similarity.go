package service

import (
	"sparkmatch/model"
	"sparkmatch/utils"
)

// Similarity 计算两个用户偏好档案的相似度总分。
// 纯函数，只用于候选排序，不是概率，不做归一化。
// 任一方没有偏好档案时返回 0。
func Similarity(requester, candidate *model.User) float64 {
	if requester.Preference == nil || candidate.Preference == nil {
		return 0
	}
	rp, cp := requester.Preference, candidate.Preference

	score := rangeOverlapScore(
		float64(rp.AgeRange[0]), float64(rp.AgeRange[1]),
		float64(cp.AgeRange[0]), float64(cp.AgeRange[1]),
	)
	score += heightOverlapScore(rp.HeightRange, cp.HeightRange)

	// 候选方的最大距离偏好不超过请求方时得 1 分
	if cp.MaxDistanceKm <= rp.MaxDistanceKm {
		score++
	}

	// 六项分类偏好逐项比对
	categorical := [][2]string{
		{rp.Ethnicity, cp.Ethnicity},
		{rp.Religion, cp.Religion},
		{rp.RelationshipGoal, cp.RelationshipGoal},
		{rp.Smoking, cp.Smoking},
		{rp.Education, cp.Education},
		{rp.Drinking, cp.Drinking},
		{rp.Kids, cp.Kids},
	}
	for _, pair := range categorical {
		if pair[0] != "" && pair[0] == pair[1] {
			score++
		}
	}

	if rp.InterestedGender != "" && rp.InterestedGender == candidate.Gender {
		score++
	}

	score += interestOverlap(requester.Interests, candidate.Interests)
	return score
}

// rangeOverlapScore 计算两个区间的重叠得分：1 - gap/combinedSpan。
// 区间不相交（gap > 0）时返回 0。
func rangeOverlapScore(aLo, aHi, bLo, bHi float64) float64 {
	if aHi < aLo || bHi < bLo {
		return 0
	}
	gap := 0.0
	if bLo > aHi {
		gap = bLo - aHi
	} else if aLo > bHi {
		gap = aLo - bHi
	}
	if gap > 0 {
		return 0
	}
	combinedSpan := (aHi - aLo) + (bHi - bLo)
	if combinedSpan <= 0 {
		// 两个退化区间重合在同一点
		return 1
	}
	return 1 - gap/combinedSpan
}

// heightOverlapScore 把英尺英寸格式换算成英寸后套用区间重叠公式。
// 任一身高解析失败按 0 分处理。
func heightOverlapScore(a, b [2]string) float64 {
	aLo, err := utils.HeightToInches(a[0])
	if err != nil {
		return 0
	}
	aHi, err := utils.HeightToInches(a[1])
	if err != nil {
		return 0
	}
	bLo, err := utils.HeightToInches(b[0])
	if err != nil {
		return 0
	}
	bHi, err := utils.HeightToInches(b[1])
	if err != nil {
		return 0
	}
	return rangeOverlapScore(float64(aLo), float64(aHi), float64(bLo), float64(bHi))
}

// interestOverlap 兴趣交集占较大集合的比例，任一集合为空返回 0
func interestOverlap(a, b model.StringList) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	common := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			common++
			delete(set, v)
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(common) / float64(larger)
}
