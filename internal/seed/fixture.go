package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"studybud/internal/models"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set loaded from YAML.
type Fixture struct {
	Topics []string      `yaml:"topics"`
	Users  []FixtureUser `yaml:"users"`
	Rooms  []FixtureRoom `yaml:"rooms"`
}

// FixtureUser is an account to create. Its password is DemoPassword.
type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

// FixtureRoom is a room with an optional scripted conversation.
// Host and message authors refer to fixture usernames.
type FixtureRoom struct {
	Name        string           `yaml:"name"`
	Topic       string           `yaml:"topic"`
	Description string           `yaml:"description"`
	Host        string           `yaml:"host"`
	Messages    []FixtureMessage `yaml:"messages"`
}

// FixtureMessage is one post in a fixture room.
type FixtureMessage struct {
	Author string `yaml:"author"`
	Body   string `yaml:"body"`
}

// LoadFixture reads and parses the YAML fixture at path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture, rejecting unknown fields and dangling references.
func ParseFixture(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	known := lo.SliceToMap(fx.Users, func(u FixtureUser) (string, bool) {
		return models.NormalizeUsername(u.Username), true
	})

	var errs []error
	for _, r := range fx.Rooms {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, errors.New("fixture room without a name"))
		}
		if r.Host != "" && !known[models.NormalizeUsername(r.Host)] {
			errs = append(errs, fmt.Errorf("room %q: unknown host %q", r.Name, r.Host))
		}
		for _, m := range r.Messages {
			if !known[models.NormalizeUsername(m.Author)] {
				errs = append(errs, fmt.Errorf("room %q: unknown author %q", r.Name, m.Author))
			}
		}
	}
	return errors.Join(errs...)
}

// TopicNames returns every topic the fixture mentions, including room topics, without duplicates.
func (fx *Fixture) TopicNames() []string {
	names := append([]string{}, fx.Topics...)
	names = append(names, lo.FilterMap(fx.Rooms, func(r FixtureRoom, _ int) (string, bool) {
		return r.Topic, r.Topic != ""
	})...)
	return lo.Uniq(names)
}

// ApplyFixture creates the fixture's topics, users, rooms and messages.
// Users that already exist are reused.
func (f *Factory) ApplyFixture(ctx context.Context, fx *Fixture) (*Summary, error) {
	sum := &Summary{}

	topicNames := fx.TopicNames()
	if err := ensureTopics(ctx, f.db, topicNames); err != nil {
		return nil, err
	}
	topics, err := topicsByName(ctx, f.db, topicNames)
	if err != nil {
		return nil, err
	}
	sum.Topics = len(topics)

	users := make(map[string]*models.User, len(fx.Users))
	for _, fu := range fx.Users {
		u, err := f.fixtureUser(ctx, fu)
		if err != nil {
			return nil, err
		}
		users[u.Username] = u
		sum.Users++
	}

	for _, fr := range fx.Rooms {
		host := users[models.NormalizeUsername(fr.Host)]
		room, err := f.CreateRoom(ctx, host, topics[fr.Topic], func(r *models.Room) {
			r.Name = strings.TrimSpace(fr.Name)
			r.Description = nil
			if d := strings.TrimSpace(fr.Description); d != "" {
				r.Description = &d
			}
		})
		if err != nil {
			return nil, err
		}
		sum.Rooms++

		for i, fm := range fr.Messages {
			body := fm.Body
			at := room.CreatedAt.Add(time.Duration(i+1) * time.Minute)
			if _, err := f.CreateMessage(ctx, users[models.NormalizeUsername(fm.Author)], room, func(m *models.Message) {
				m.Body = body
				m.CreatedAt = at
				m.UpdatedAt = at
			}); err != nil {
				return nil, err
			}
			sum.Messages++
		}
	}
	return sum, nil
}

func (f *Factory) fixtureUser(ctx context.Context, fu FixtureUser) (*models.User, error) {
	username := models.NormalizeUsername(fu.Username)
	var existing models.User
	err := f.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return f.CreateUser(ctx, func(u *models.User) {
		u.Username = username
		if fu.Email != "" {
			u.Email = fu.Email
		} else {
			u.Email = username + "@studybud.local"
		}
	})
}
