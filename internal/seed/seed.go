// Package seed creates built-in topics and demo data for development and testing.
package seed

import (
	"context"
	"fmt"

	"studybud/internal/middleware"
	"studybud/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users           int
	Rooms           int
	MessagesPerRoom int
	// MaxDays bounds how far back generated timestamps go.
	MaxDays int
	Clean   bool
	// SkipBcrypt hashes the demo password at the minimum cost.
	SkipBcrypt bool
	// Fixture is an optional YAML file applied before random data.
	Fixture string
	Seed    int64
}

// Summary counts what a run created. Topics is the total number of topics afterwards.
type Summary struct {
	Users    int
	Topics   int
	Rooms    int
	Messages int
}

func (s *Summary) add(o *Summary) {
	s.Users += o.Users
	s.Topics += o.Topics
	s.Rooms += o.Rooms
	s.Messages += o.Messages
}

// Run seeds built-in topics, then the optional fixture, then random users,
// rooms and conversations.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	if opts.Clean {
		if err := ClearAll(ctx, db); err != nil {
			return nil, err
		}
	}
	if err := Topics(ctx, db); err != nil {
		return nil, err
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	if opts.Fixture != "" {
		fx, err := LoadFixture(opts.Fixture)
		if err != nil {
			return nil, err
		}
		fxSum, err := f.ApplyFixture(ctx, fx)
		if err != nil {
			return nil, fmt.Errorf("apply fixture %s: %w", opts.Fixture, err)
		}
		sum.add(fxSum)
		middleware.Logger.InfoContext(ctx, "fixture applied", "path", opts.Fixture,
			"users", fxSum.Users, "rooms", fxSum.Rooms, "messages", fxSum.Messages)
	}

	rnd, err := f.random(ctx)
	if err != nil {
		return nil, err
	}
	sum.add(rnd)

	var topicCount int64
	if err := db.WithContext(ctx).Model(&models.Topic{}).Count(&topicCount).Error; err != nil {
		return nil, err
	}
	sum.Topics = int(topicCount)

	middleware.Logger.InfoContext(ctx, "seeding complete",
		"users", sum.Users, "topics", sum.Topics, "rooms", sum.Rooms, "messages", sum.Messages)
	return sum, nil
}

func (f *Factory) random(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	users := make([]*models.User, 0, f.opts.Users)
	for i := 0; i < f.opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 || f.opts.Rooms <= 0 {
		return sum, nil
	}

	var topics []models.Topic
	if err := f.db.WithContext(ctx).Find(&topics).Error; err != nil {
		return nil, err
	}
	topicPtrs := lo.Map(topics, func(t models.Topic, i int) *models.Topic { return &topics[i] })

	for i := 0; i < f.opts.Rooms; i++ {
		var topic *models.Topic
		if len(topicPtrs) > 0 {
			topic = lo.Sample(topicPtrs)
		}
		room, err := f.CreateRoom(ctx, lo.Sample(users), topic)
		if err != nil {
			return nil, err
		}
		sum.Rooms++

		for j := 0; j < f.opts.MessagesPerRoom; j++ {
			if _, err := f.CreateMessage(ctx, lo.Sample(users), room); err != nil {
				return nil, err
			}
			sum.Messages++
		}
	}
	return sum, nil
}

// ClearAll removes every message, participant, room, topic and user.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Message{},
		&models.RoomParticipant{},
		&models.Room{},
		&models.Topic{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}
