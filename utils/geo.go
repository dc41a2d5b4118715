package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const earthRadiusKm = 6371.0

// HaversineKm 计算两个经纬度坐标之间的球面距离（公里）
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// CalculateAge 根据出生日期（YYYY-MM-DD）计算周岁，按 365.25 天一年向下取整
func CalculateAge(dob string, now time.Time) (int, error) {
	birth, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, fmt.Errorf("invalid date of birth %q: %w", dob, err)
	}
	if birth.After(now) {
		return 0, fmt.Errorf("date of birth %q is in the future", dob)
	}
	days := now.Sub(birth).Hours() / 24
	return int(days / 365.25), nil
}

// HeightToInches 解析英尺英寸格式的身高（如 5'10"）为总英寸数
func HeightToInches(height string) (int, error) {
	s := strings.TrimSpace(height)
	s = strings.TrimSuffix(s, `"`)
	parts := strings.SplitN(s, "'", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid height %q", height)
	}
	feet, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", height, err)
	}
	inches, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", height, err)
	}
	if feet < 0 || inches < 0 || inches >= 12 {
		return 0, fmt.Errorf("invalid height %q", height)
	}
	return feet*12 + inches, nil
}
