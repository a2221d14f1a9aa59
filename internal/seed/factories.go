package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studybud/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password every generated account can log in with.
const DemoPassword = "StudyBud-demo-1!"

// Factory builds domain entities with fake content and persists them.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	hash  string
}

// NewFactory creates a Factory bound to db. A zero opts.Seed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.Seed),
		hash:  string(hash),
	}, nil
}

// backdate returns a random moment within the configured history window.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	minutes := f.faker.Number(0, maxDays*24*60)
	return time.Now().Add(-time.Duration(minutes) * time.Minute)
}

// usernameSafe lower-cases s and drops characters usernames may not contain.
func usernameSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
}

// CreateUser constructs and persists a user with a unique fake username.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	name := usernameSafe(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 99999))
	user := &models.User{
		Username: name,
		Email:    name + "@" + f.faker.DomainName(),
		Password: f.hash,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateRoom constructs and persists a room. host and topic may be nil.
func (f *Factory) CreateRoom(ctx context.Context, host *models.User, topic *models.Topic, overrides ...func(*models.Room)) (*models.Room, error) {
	description := f.faker.Sentence(12)
	room := &models.Room{
		Name:        strings.TrimSuffix(f.faker.HipsterSentence(3), "."),
		Description: &description,
	}
	if host != nil {
		room.HostID = &host.ID
	}
	if topic != nil {
		room.TopicID = &topic.ID
	}
	created := f.backdate()
	room.CreatedAt = created
	room.UpdatedAt = created

	for _, override := range overrides {
		override(room)
	}

	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error; err != nil {
		return nil, fmt.Errorf("create room %q: %w", room.Name, err)
	}
	return room, nil
}

// CreateMessage persists a message by author in room, records author as a
// participant and bumps the room's activity time.
func (f *Factory) CreateMessage(ctx context.Context, author *models.User, room *models.Room, overrides ...func(*models.Message)) (*models.Message, error) {
	msg := &models.Message{
		UserID: author.ID,
		RoomID: room.ID,
		Body:   f.faker.Sentence(f.faker.Number(4, 20)),
	}
	at := f.backdate()
	if at.Before(room.CreatedAt) {
		at = room.CreatedAt
	}
	msg.CreatedAt = at
	msg.UpdatedAt = at

	for _, override := range overrides {
		override(msg)
	}

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RoomParticipant{RoomID: room.ID, UserID: author.ID}).Error; err != nil {
			return err
		}
		if msg.UpdatedAt.After(room.UpdatedAt) {
			room.UpdatedAt = msg.UpdatedAt
			return tx.Model(&models.Room{}).Where("id = ?", room.ID).
				UpdateColumn("updated_at", room.UpdatedAt).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create message in room %d: %w", room.ID, err)
	}
	return msg, nil
}
