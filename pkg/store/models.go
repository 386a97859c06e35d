package store

import (
	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	Username string `gorm:"primaryKey"`
	Password string `gorm:"not null"`
}

type BookModel struct {
	ISBN    string `gorm:"primaryKey;column:isbn"`
	Author  string `gorm:"not null;index"`
	Title   string `gorm:"not null;index"`
	Reviews datatypes.JSONMap
}

func reviewsFromModel(m datatypes.JSONMap) map[string]string {
	out := make(map[string]string, len(m))
	for user, text := range m {
		if s, ok := text.(string); ok {
			out[user] = s
		}
	}
	return out
}

func reviewsToModel(reviews map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(reviews))
	for user, text := range reviews {
		out[user] = text
	}
	return out
}
