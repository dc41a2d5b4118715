package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sparkmatch/apperr"
	"sparkmatch/model"
	"sparkmatch/utils"
)

// DiscoveryService 候选推荐：排除已互动和拉黑的用户，
// 按地理、年龄、性别过滤后用相似度排序。
type DiscoveryService struct {
	db *gorm.DB
}

func NewDiscoveryService(db *gorm.DB) *DiscoveryService {
	return &DiscoveryService{db: db}
}

// Filters 可选的过滤条件，为 nil 表示不启用
type Filters struct {
	MaxDistanceKm *float64
	MinAge        *int
	MaxAge        *int
	Gender        *string
}

// CandidateProfile 返回给客户端的候选资料
type CandidateProfile struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Gender     string           `json:"gender"`
	Bio        string           `json:"bio"`
	Location   string           `json:"location"`
	Age        int              `json:"age"`
	Interests  model.StringList `json:"interests"`
	PhotoURLs  model.StringList `json:"photo_urls"`
	DistanceKm *float64         `json:"distance_km,omitempty"`
	Score      float64          `json:"score"`
}

// CandidatesPage 分页结果
type CandidatesPage struct {
	Candidates []CandidateProfile `json:"candidates"`
	Page       utils.PageInfo     `json:"page"`
}

// ListCandidates 返回一页候选用户
func (s *DiscoveryService) ListCandidates(requesterID uuid.UUID, filters Filters, page, pageSize int) (*CandidatesPage, error) {
	var requester model.User
	if err := s.db.First(&requester, "id = ?", requesterID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	// 启用距离过滤时请求方必须有坐标
	if filters.MaxDistanceKm != nil && !requester.HasCoords() {
		return nil, apperr.PreconditionFailed("requester has no coordinates, cannot apply distance filter")
	}

	// SQL 层排除：自己、双向 like/dislike、双向拉黑。收藏不排除。
	var candidates []model.User
	err := s.db.
		Where("id != ?", requesterID).
		Where(`NOT EXISTS (
			SELECT 1 FROM swipes
			WHERE (sender_id = ? AND receiver_id = users.id)
			   OR (sender_id = users.id AND receiver_id = ?))`, requesterID, requesterID).
		Where(`NOT EXISTS (
			SELECT 1 FROM user_blocks
			WHERE (user_id = ? AND blocked_id = users.id)
			   OR (user_id = users.id AND blocked_id = ?))`, requesterID, requesterID).
		Find(&candidates).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to query candidates: %w", err))
	}

	now := time.Now()
	profiles := make([]CandidateProfile, 0, len(candidates))
	for i := range candidates {
		cand := &candidates[i]

		var distanceKm *float64
		if filters.MaxDistanceKm != nil {
			if !cand.HasCoords() {
				continue
			}
			d := utils.HaversineKm(*requester.Lat, *requester.Lon, *cand.Lat, *cand.Lon)
			if d > *filters.MaxDistanceKm {
				continue
			}
			distanceKm = &d
		}

		age, err := utils.CalculateAge(cand.DOB, now)
		if err != nil {
			// 出生日期脏数据，跳过该候选
			continue
		}
		if filters.MinAge != nil && age < *filters.MinAge {
			continue
		}
		if filters.MaxAge != nil && age > *filters.MaxAge {
			continue
		}

		if filters.Gender != nil && cand.Gender != *filters.Gender {
			continue
		}

		profiles = append(profiles, CandidateProfile{
			ID:         cand.ID,
			Name:       cand.Name,
			Gender:     cand.Gender,
			Bio:        cand.Bio,
			Location:   cand.Location,
			Age:        age,
			Interests:  cand.Interests,
			PhotoURLs:  cand.PhotoURLs,
			DistanceKm: distanceKm,
			Score:      Similarity(&requester, cand),
		})
	}

	// 分数降序，同分时新注册的账号优先
	createdAt := make(map[uuid.UUID]time.Time, len(candidates))
	for i := range candidates {
		createdAt[candidates[i].ID] = candidates[i].CreatedAt
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Score != profiles[j].Score {
			return profiles[i].Score > profiles[j].Score
		}
		return createdAt[profiles[i].ID].After(createdAt[profiles[j].ID])
	})

	pageItems, info := utils.Paginate(profiles, page, pageSize)
	return &CandidatesPage{Candidates: pageItems, Page: info}, nil
}
