package services

import (
	"math"
	"sort"

	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/entities"
)

// categoryNames carries the display names the frontend renders next to the
// category keys. Unknown categories fall back to the key itself.
var categoryNames = map[string]string{
	"moral":           "思想道德",
	"intellectual":    "学业科研",
	"physical_mental": "身心素质",
}

type CategoryBucket struct {
	Category      string
	CategoryName  string
	Count         int
	Approved      int
	Pending       int
	Rejected      int
	CategoryScore float64
}

type Summary struct {
	Term       string
	Categories []CategoryBucket
	TotalScore float64
}

// Summarize groups a caller-scoped, non-deleted application sequence by
// category. Pending means any non-terminal status; scores contribute only
// when present.
func Summarize(items []entities.Application, term string) Summary {
	buckets := make(map[string]*CategoryBucket)
	total := 0.0
	for _, item := range items {
		bucket, ok := buckets[item.Category]
		if !ok {
			bucket = &CategoryBucket{
				Category:     item.Category,
				CategoryName: CategoryName(item.Category),
			}
			buckets[item.Category] = bucket
		}
		bucket.Count++

		switch {
		case item.Status == entities.StatusApproved:
			bucket.Approved++
		case item.Status == entities.StatusRejected:
			bucket.Rejected++
		case !item.Status.Terminal():
			bucket.Pending++
		}
		if item.TotalScore != nil {
			bucket.CategoryScore = round2(bucket.CategoryScore + *item.TotalScore)
			total += *item.TotalScore
		}
	}

	categories := make([]CategoryBucket, 0, len(buckets))
	for _, bucket := range buckets {
		categories = append(categories, *bucket)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	return Summary{
		Term:       term,
		Categories: categories,
		TotalScore: round2(total),
	}
}

func CategoryName(category string) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return category
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
