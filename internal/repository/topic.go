package repository

import (
	"context"

	"studybud/internal/models"
	"studybud/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TopicRepository defines persistence operations for topics.
type TopicRepository interface {
	List(ctx context.Context, q string, limit int) ([]models.Topic, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	GetOrCreate(ctx context.Context, name string) (*models.Topic, bool, error)
	Delete(ctx context.Context, id uint) error
}

type topicRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTopicRepository returns a new TopicRepository implementation.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db, log: observability.NewRepoLogger("topics")}
}

// List returns topics whose name contains q (case-insensitive) in creation order.
// An empty q matches every topic; limit <= 0 means no limit.
func (r *topicRepository) List(ctx context.Context, q string, limit int) ([]models.Topic, error) {
	var topics []models.Topic
	tx := r.db.WithContext(ctx).Order("id ASC")
	if q != "" {
		tx = tx.Where(containsClause("name"), likePattern(q))
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Topic{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return nil, translateError(err, "Topic", id)
	}
	return &topic, nil
}

// GetOrCreate returns the topic named exactly name, inserting it if absent.
// The insert ignores unique-name conflicts and the row is always re-read, so
// concurrent callers converge on one record. created reports whether this call inserted it.
func (r *topicRepository) GetOrCreate(ctx context.Context, name string) (*models.Topic, bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Topic{Name: name})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "get_or_create")
		return nil, false, models.NewInternalError(res.Error)
	}

	var topic models.Topic
	if err := db.Where("name = ?", name).First(&topic).Error; err != nil {
		return nil, false, translateError(err, "Topic", name)
	}

	created := res.RowsAffected > 0
	if created {
		r.log.LogCreate(ctx, map[string]any{"topic_id": topic.ID, "name": topic.Name})
	}
	return &topic, created, nil
}

// Delete removes the topic; rooms tagged with it keep existing with no topic.
func (r *topicRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Room{}).Where("topic_id = ?", id).
			UpdateColumn("topic_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Topic{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Topic", id)
		}
		return nil
	})
	if err != nil {
		return translateError(err, "Topic", id)
	}
	r.log.LogDelete(ctx, map[string]any{"topic_id": id})
	return nil
}
