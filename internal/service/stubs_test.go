package service

import (
	"context"
	"sync"

	"studybud/internal/cache"
	"studybud/internal/models"
)

// roomRepoStub is a stub for repository.RoomRepository.
type roomRepoStub struct {
	searchFn         func(context.Context, string) ([]models.Room, error)
	countFn          func(context.Context, string) (int64, error)
	getByIDFn        func(context.Context, uint) (*models.Room, error)
	listByHostFn     func(context.Context, uint) ([]models.Room, error)
	createFn         func(context.Context, *models.Room) error
	updateFn         func(context.Context, *models.Room) error
	deleteFn         func(context.Context, uint) error
	addParticipantFn func(context.Context, uint, uint) error
	touchFn          func(context.Context, uint) error
}

func (s *roomRepoStub) Search(ctx context.Context, q string) ([]models.Room, error) {
	return s.searchFn(ctx, q)
}
func (s *roomRepoStub) Count(ctx context.Context, q string) (int64, error) {
	return s.countFn(ctx, q)
}
func (s *roomRepoStub) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	return s.getByIDFn(ctx, id)
}
func (s *roomRepoStub) ListByHost(ctx context.Context, hostID uint) ([]models.Room, error) {
	return s.listByHostFn(ctx, hostID)
}
func (s *roomRepoStub) Create(ctx context.Context, room *models.Room) error {
	return s.createFn(ctx, room)
}
func (s *roomRepoStub) Update(ctx context.Context, room *models.Room) error {
	return s.updateFn(ctx, room)
}
func (s *roomRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *roomRepoStub) AddParticipant(ctx context.Context, roomID, userID uint) error {
	return s.addParticipantFn(ctx, roomID, userID)
}
func (s *roomRepoStub) Touch(ctx context.Context, roomID uint) error {
	return s.touchFn(ctx, roomID)
}

func noopRoomRepo() *roomRepoStub {
	return &roomRepoStub{
		searchFn:         func(_ context.Context, _ string) ([]models.Room, error) { return nil, nil },
		countFn:          func(_ context.Context, _ string) (int64, error) { return 0, nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Room, error) { return &models.Room{ID: id}, nil },
		listByHostFn:     func(_ context.Context, _ uint) ([]models.Room, error) { return nil, nil },
		createFn:         func(_ context.Context, r *models.Room) error { r.ID = 1; return nil },
		updateFn:         func(_ context.Context, _ *models.Room) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		addParticipantFn: func(_ context.Context, _, _ uint) error { return nil },
		touchFn:          func(_ context.Context, _ uint) error { return nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn           func(context.Context, *models.Message) error
	getByIDFn          func(context.Context, uint) (*models.Message, error)
	deleteFn           func(context.Context, uint) error
	listAllFn          func(context.Context, int) ([]models.Message, error)
	listByRoomFn       func(context.Context, uint) ([]models.Message, error)
	listByUserFn       func(context.Context, uint) ([]models.Message, error)
	listByTopicQueryFn func(context.Context, string, int) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.Message) error {
	return s.createFn(ctx, msg)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) ListAll(ctx context.Context, limit int) ([]models.Message, error) {
	return s.listAllFn(ctx, limit)
}
func (s *messageRepoStub) ListByRoom(ctx context.Context, roomID uint) ([]models.Message, error) {
	return s.listByRoomFn(ctx, roomID)
}
func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *messageRepoStub) ListByTopicQuery(ctx context.Context, q string, limit int) ([]models.Message, error) {
	return s.listByTopicQueryFn(ctx, q, limit)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:           func(_ context.Context, m *models.Message) error { m.ID = 1; return nil },
		getByIDFn:          func(_ context.Context, id uint) (*models.Message, error) { return &models.Message{ID: id}, nil },
		deleteFn:           func(_ context.Context, _ uint) error { return nil },
		listAllFn:          func(_ context.Context, _ int) ([]models.Message, error) { return nil, nil },
		listByRoomFn:       func(_ context.Context, _ uint) ([]models.Message, error) { return nil, nil },
		listByUserFn:       func(_ context.Context, _ uint) ([]models.Message, error) { return nil, nil },
		listByTopicQueryFn: func(_ context.Context, _ string, _ int) ([]models.Message, error) { return nil, nil },
	}
}

// topicRepoStub is a stub for repository.TopicRepository.
type topicRepoStub struct {
	listFn        func(context.Context, string, int) ([]models.Topic, error)
	countFn       func(context.Context) (int64, error)
	getByIDFn     func(context.Context, uint) (*models.Topic, error)
	getOrCreateFn func(context.Context, string) (*models.Topic, bool, error)
	deleteFn      func(context.Context, uint) error
}

func (s *topicRepoStub) List(ctx context.Context, q string, limit int) ([]models.Topic, error) {
	return s.listFn(ctx, q, limit)
}
func (s *topicRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *topicRepoStub) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	return s.getByIDFn(ctx, id)
}
func (s *topicRepoStub) GetOrCreate(ctx context.Context, name string) (*models.Topic, bool, error) {
	return s.getOrCreateFn(ctx, name)
}
func (s *topicRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopTopicRepo() *topicRepoStub {
	return &topicRepoStub{
		listFn:    func(_ context.Context, _ string, _ int) ([]models.Topic, error) { return nil, nil },
		countFn:   func(_ context.Context) (int64, error) { return 0, nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Topic, error) { return &models.Topic{ID: id}, nil },
		getOrCreateFn: func(_ context.Context, name string) (*models.Topic, bool, error) {
			return &models.Topic{ID: 7, Name: name}, false, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

type publishedEvent struct {
	RoomID  uint
	Type    string
	Payload any
}

// publisherStub records published room events.
type publisherStub struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *publisherStub) PublishRoomEvent(_ context.Context, roomID uint, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoomID: roomID, Type: eventType, Payload: payload})
}

func (p *publisherStub) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

func newTopicService(repo *topicRepoStub) *TopicService {
	return NewTopicService(repo, cache.NewStore(nil))
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
