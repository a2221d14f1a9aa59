package seed

import (
	"context"
	"fmt"

	"studybud/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInTopics are created on startup so the sidebar is never empty.
var BuiltInTopics = []string{
	"Python",
	"JavaScript",
	"Go",
	"Databases",
	"Algorithms",
	"Machine Learning",
	"Web Design",
	"DevOps",
}

// Topics creates the built-in topics. Existing topics are left untouched.
func Topics(ctx context.Context, db *gorm.DB) error {
	return ensureTopics(ctx, db, BuiltInTopics)
}

func ensureTopics(ctx context.Context, db *gorm.DB, names []string) error {
	for _, name := range names {
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&models.Topic{Name: name}).Error
		if err != nil {
			return fmt.Errorf("seed topic %q: %w", name, err)
		}
	}
	return nil
}

func topicsByName(ctx context.Context, db *gorm.DB, names []string) (map[string]*models.Topic, error) {
	var topics []models.Topic
	if err := db.WithContext(ctx).Where("name IN ?", names).Find(&topics).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*models.Topic, len(topics))
	for i := range topics {
		out[topics[i].Name] = &topics[i]
	}
	return out, nil
}
