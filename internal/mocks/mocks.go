package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"course-chat-service/internal/auth"
	"course-chat-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindByIDs(ctx context.Context, userIDs []int) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) TouchLastActive(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type CourseRepositoryMock struct {
	mock.Mock
}

func (m *CourseRepositoryMock) InstructorIDsOf(ctx context.Context, studentID int) ([]int, error) {
	args := m.Called(ctx, studentID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *CourseRepositoryMock) StudentIDsOf(ctx context.Context, instructorID int) ([]int, error) {
	args := m.Called(ctx, instructorID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *CourseRepositoryMock) IsEnrolledWith(ctx context.Context, instructorID, studentID int) (bool, error) {
	args := m.Called(ctx, instructorID, studentID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, senderID, receiverID int, text, imageURL string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, text, imageURL)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error) {
	args := m.Called(ctx, userA, userB)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ExistsFrom(ctx context.Context, senderID, receiverID int) (bool, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) PartnerIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(token string) (auth.Identity, error) {
	args := m.Called(token)
	var identity auth.Identity
	if val := args.Get(0); val != nil {
		identity = val.(auth.Identity)
	}
	return identity, args.Error(1)
}

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Send(ctx context.Context, sender models.User, receiverID int, text, imageURL string) (models.Message, error) {
	args := m.Called(ctx, sender, receiverID, text, imageURL)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ServiceMock) History(ctx context.Context, actor models.User, otherID int) ([]models.Message, error) {
	args := m.Called(ctx, actor, otherID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ServiceMock) Contacts(ctx context.Context, actor models.User) ([]models.User, error) {
	args := m.Called(ctx, actor)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *ServiceMock) ChatPartners(ctx context.Context, actor models.User) ([]models.User, error) {
	args := m.Called(ctx, actor)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type PusherMock struct {
	mock.Mock
}

func (m *PusherMock) Push(userID int, event models.Event) bool {
	args := m.Called(userID, event)
	return args.Bool(0)
}
