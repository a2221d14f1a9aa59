package repository

import (
	"context"
	"time"

	"studybud/internal/models"
	"studybud/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository defines persistence operations for rooms and their participants.
type RoomRepository interface {
	Search(ctx context.Context, q string) ([]models.Room, error)
	Count(ctx context.Context, q string) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	ListByHost(ctx context.Context, hostID uint) ([]models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error
	AddParticipant(ctx context.Context, roomID, userID uint) error
	Touch(ctx context.Context, roomID uint) error
}

type roomRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRoomRepository returns a new RoomRepository implementation.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db, log: observability.NewRepoLogger("rooms")}
}

// searchScope filters rooms whose topic name, name or description contains q.
func searchScope(q string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db
		}
		p := likePattern(q)
		return db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where("rooms.topic_id IN (?)",
					db.Session(&gorm.Session{NewDB: true}).Model(&models.Topic{}).
						Select("id").Where(containsClause("name"), p)).
				Or(containsClause("rooms.name"), p).
				Or(containsClause("COALESCE(rooms.description, '')"), p),
		)
	}
}

// Search returns rooms matching q in default order with host and topic loaded.
func (r *roomRepository) Search(ctx context.Context, q string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Scopes(searchScope(q)).
		Preload("Host").
		Preload("Topic").
		Order(models.DefaultOrder("rooms")).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) Count(ctx context.Context, q string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).Scopes(searchScope(q)).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("users.username ASC")
		}).
		First(&room, id).Error
	if err != nil {
		return nil, translateError(err, "Room", id)
	}
	return &room, nil
}

func (r *roomRepository) ListByHost(ctx context.Context, hostID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		Where("host_id = ?", hostID).
		Order(models.DefaultOrder("rooms")).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, "Room", room.Name)
	}
	r.log.LogCreate(ctx, map[string]any{"room_id": room.ID, "host_id": room.HostID})
	return nil
}

func (r *roomRepository) Update(ctx context.Context, room *models.Room) error {
	err := r.db.WithContext(ctx).Model(room).Omit(clause.Associations).
		Select("name", "topic_id", "description", "updated_at").
		Updates(map[string]any{
			"name":        room.Name,
			"topic_id":    room.TopicID,
			"description": room.Description,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return translateError(err, "Room", room.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"room_id": room.ID})
	return nil
}

// Delete removes the room along with its messages and participant rows.
func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&models.RoomParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Room{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Room", id)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return translateError(err, "Room", id)
	}
	r.log.LogDelete(ctx, map[string]any{"room_id": id})
	return nil
}

// AddParticipant records userID as a participant of roomID. Repeating it is a no-op.
func (r *roomRepository) AddParticipant(ctx context.Context, roomID, userID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoomParticipant{RoomID: roomID, UserID: userID}).Error
	if err != nil {
		return translateError(err, "Room", roomID)
	}
	return nil
}

// Touch bumps updated_at so the room sorts as recently active.
func (r *roomRepository) Touch(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).
		UpdateColumn("updated_at", time.Now()).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
