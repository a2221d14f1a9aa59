package repository

import (
	"context"

	"studybud/internal/models"
	"studybud/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines persistence operations for room messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context, limit int) ([]models.Message, error)
	ListByRoom(ctx context.Context, roomID uint) ([]models.Message, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Message, error)
	ListByTopicQuery(ctx context.Context, q string, limit int) ([]models.Message, error)
}

type messageRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, log: observability.NewRepoLogger("messages")}
}

// feed is the shared query for message lists: author, room and topic loaded, default order.
func (r *messageRepository) feed(ctx context.Context, limit int) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		Preload("Room.Topic").
		Order(models.DefaultOrder("messages"))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return tx
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, "Message", msg.ID)
	}
	r.log.LogCreate(ctx, map[string]any{"message_id": msg.ID, "room_id": msg.RoomID, "user_id": msg.UserID})
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		First(&msg, id).Error
	if err != nil {
		return nil, translateError(err, "Message", id)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	r.log.LogDelete(ctx, map[string]any{"message_id": id})
	return nil
}

// ListAll returns messages across every room; limit <= 0 means no limit.
func (r *messageRepository) ListAll(ctx context.Context, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.feed(ctx, limit).Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order(models.DefaultOrder("messages")).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.feed(ctx, 0).Where("user_id = ?", userID).Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// ListByTopicQuery returns messages in rooms whose topic name contains q.
// An empty q returns every message.
func (r *messageRepository) ListByTopicQuery(ctx context.Context, q string, limit int) ([]models.Message, error) {
	tx := r.feed(ctx, limit)
	if q != "" {
		rooms := r.db.WithContext(ctx).Model(&models.Room{}).
			Select("rooms.id").
			Joins("JOIN topics ON topics.id = rooms.topic_id").
			Where(containsClause("topics.name"), likePattern(q))
		tx = tx.Where("messages.room_id IN (?)", rooms)
	}

	var msgs []models.Message
	if err := tx.Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
