package messaging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"course-chat-service/internal/messaging"
	"course-chat-service/internal/mocks"
	"course-chat-service/internal/models"
	"course-chat-service/internal/repositories"
)

var (
	student    = models.User{ID: 1, UserName: "s1", Role: models.RoleStudent}
	instructor = models.User{ID: 2, UserName: "t1", Role: models.RoleInstructor}
	admin      = models.User{ID: 9, UserName: "a1", Role: models.RoleAdmin}
)

type serviceMocks struct {
	users    *mocks.UserRepositoryMock
	courses  *mocks.CourseRepositoryMock
	messages *mocks.MessageRepositoryMock
	pusher   *mocks.PusherMock
}

func newService(t *testing.T) (*messaging.ChatService, serviceMocks) {
	t.Helper()
	m := serviceMocks{
		users:    new(mocks.UserRepositoryMock),
		courses:  new(mocks.CourseRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		pusher:   new(mocks.PusherMock),
	}
	return messaging.NewChatService(m.users, m.courses, m.messages, m.pusher), m
}

func TestSendStudentToEnrolledInstructor(t *testing.T) {
	svc, m := newService(t)

	stored := models.Message{ID: 7, SenderID: student.ID, ReceiverID: instructor.ID, Text: "question"}
	m.users.On("FindByID", mock.Anything, instructor.ID).Return(instructor, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, student.ID).Return(true, nil).Once()
	m.messages.On("Append", mock.Anything, student.ID, instructor.ID, "question", "").Return(stored, nil).Once()
	m.pusher.On("Push", instructor.ID, models.Event{Type: models.EventNewMessage, Message: &stored}).Return(true).Once()

	msg, err := svc.Send(context.Background(), student, instructor.ID, "question", "")
	require.NoError(t, err)
	assert.Equal(t, stored, msg)
	m.courses.AssertExpectations(t)
	m.messages.AssertExpectations(t)
	m.pusher.AssertExpectations(t)
}

func TestSendStudentToUnrelatedUserForbidden(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, 5).Return(models.User{ID: 5, Role: models.RoleInstructor}, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, 5, student.ID).Return(false, nil).Once()

	_, err := svc.Send(context.Background(), student, 5, "hi", "")
	require.ErrorIs(t, err, messaging.ErrForbidden)
	m.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestSendInstructorToEnrolledStudent(t *testing.T) {
	svc, m := newService(t)

	stored := models.Message{ID: 8, SenderID: instructor.ID, ReceiverID: student.ID, Text: "answer"}
	m.users.On("FindByID", mock.Anything, student.ID).Return(student, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, student.ID).Return(true, nil).Once()
	m.messages.On("Append", mock.Anything, instructor.ID, student.ID, "answer", "").Return(stored, nil).Once()
	m.pusher.On("Push", student.ID, mock.Anything).Return(false).Once()

	msg, err := svc.Send(context.Background(), instructor, student.ID, "answer", "")
	require.NoError(t, err)
	assert.Equal(t, stored, msg)
}

// An instructor may reply to someone who messaged them first even when that
// user is no longer enrolled in any of their courses.
func TestSendInstructorReplyExceptionAfterUnenroll(t *testing.T) {
	svc, m := newService(t)

	stored := models.Message{ID: 9, SenderID: instructor.ID, ReceiverID: student.ID, Text: "still here"}
	m.users.On("FindByID", mock.Anything, student.ID).Return(student, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, student.ID).Return(false, nil).Once()
	m.messages.On("ExistsFrom", mock.Anything, student.ID, instructor.ID).Return(true, nil).Once()
	m.messages.On("Append", mock.Anything, instructor.ID, student.ID, "still here", "").Return(stored, nil).Once()
	m.pusher.On("Push", student.ID, mock.Anything).Return(false).Once()

	_, err := svc.Send(context.Background(), instructor, student.ID, "still here", "")
	require.NoError(t, err)
	m.messages.AssertExpectations(t)
}

func TestSendInstructorColdMessageForbidden(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, 6).Return(models.User{ID: 6, Role: models.RoleStudent}, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, 6).Return(false, nil).Once()
	m.messages.On("ExistsFrom", mock.Anything, 6, instructor.ID).Return(false, nil).Once()

	_, err := svc.Send(context.Background(), instructor, 6, "hello", "")
	require.ErrorIs(t, err, messaging.ErrForbidden)
	m.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A message from the counterpart to the instructor is required; the
// instructor's own outbound messages do not open the exception.
func TestSendInstructorOwnPriorMessageDoesNotOpenException(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, 6).Return(models.User{ID: 6, Role: models.RoleStudent}, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, 6).Return(false, nil).Once()
	m.messages.On("ExistsFrom", mock.Anything, 6, instructor.ID).Return(false, nil).Once()

	_, err := svc.Send(context.Background(), instructor, 6, "hello again", "")
	require.ErrorIs(t, err, messaging.ErrForbidden)
}

func TestSendAdminForbidden(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, student.ID).Return(student, nil).Once()

	_, err := svc.Send(context.Background(), admin, student.ID, "hi", "")
	require.ErrorIs(t, err, messaging.ErrForbidden)
}

func TestSendToSelfRejected(t *testing.T) {
	for _, actor := range []models.User{student, instructor, admin} {
		svc, m := newService(t)
		_, err := svc.Send(context.Background(), actor, actor.ID, "hi", "")
		require.ErrorIs(t, err, messaging.ErrSelfChat)
		m.users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		m.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestSendWithoutContentRejected(t *testing.T) {
	svc, m := newService(t)
	_, err := svc.Send(context.Background(), student, instructor.ID, "", "")
	require.ErrorIs(t, err, repositories.ErrEmptyMessage)
	m.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendImageOnlyAllowed(t *testing.T) {
	svc, m := newService(t)

	stored := models.Message{ID: 11, SenderID: student.ID, ReceiverID: instructor.ID, ImageURL: "https://cdn.example/img.png"}
	m.users.On("FindByID", mock.Anything, instructor.ID).Return(instructor, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, student.ID).Return(true, nil).Once()
	m.messages.On("Append", mock.Anything, student.ID, instructor.ID, "", "https://cdn.example/img.png").Return(stored, nil).Once()
	m.pusher.On("Push", instructor.ID, mock.Anything).Return(false).Once()

	msg, err := svc.Send(context.Background(), student, instructor.ID, "", "https://cdn.example/img.png")
	require.NoError(t, err)
	assert.Equal(t, stored, msg)
}

func TestSendUnknownReceiver(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, 404).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := svc.Send(context.Background(), student, 404, "hi", "")
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestSendTimeoutSurfaced(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, instructor.ID).Return(models.User{}, context.DeadlineExceeded).Once()

	_, err := svc.Send(context.Background(), student, instructor.ID, "hi", "")
	require.ErrorIs(t, err, messaging.ErrTimeout)
}

func TestHistoryAppliesSamePolicy(t *testing.T) {
	svc, m := newService(t)

	m.users.On("FindByID", mock.Anything, 5).Return(models.User{ID: 5}, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, 5, student.ID).Return(false, nil).Once()

	_, err := svc.History(context.Background(), student, 5)
	require.ErrorIs(t, err, messaging.ErrForbidden)
	m.messages.AssertNotCalled(t, "ListBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestHistoryOrderedPassThrough(t *testing.T) {
	svc, m := newService(t)

	msgs := []models.Message{
		{ID: 1, SenderID: student.ID, ReceiverID: instructor.ID, Text: "q"},
		{ID: 2, SenderID: instructor.ID, ReceiverID: student.ID, Text: "a"},
	}
	m.users.On("FindByID", mock.Anything, instructor.ID).Return(instructor, nil).Once()
	m.courses.On("IsEnrolledWith", mock.Anything, instructor.ID, student.ID).Return(true, nil).Once()
	m.messages.On("ListBetween", mock.Anything, student.ID, instructor.ID).Return(msgs, nil).Once()

	got, err := svc.History(context.Background(), student, instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
}

func TestHistoryWithSelfRejected(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.History(context.Background(), student, student.ID)
	require.ErrorIs(t, err, messaging.ErrSelfChat)
}

func TestContactsStudentSeesInstructors(t *testing.T) {
	svc, m := newService(t)

	m.courses.On("InstructorIDsOf", mock.Anything, student.ID).Return([]int{2, 3}, nil).Once()
	m.users.On("FindByIDs", mock.Anything, []int{2, 3}).Return([]models.User{instructor, {ID: 3}}, nil).Once()

	users, err := svc.Contacts(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestContactsInstructorSeesEnrolledStudents(t *testing.T) {
	svc, m := newService(t)

	m.courses.On("StudentIDsOf", mock.Anything, instructor.ID).Return([]int{1}, nil).Once()
	m.users.On("FindByIDs", mock.Anything, []int{1}).Return([]models.User{student}, nil).Once()

	users, err := svc.Contacts(context.Background(), instructor)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestContactsAdminEmpty(t *testing.T) {
	svc, m := newService(t)

	users, err := svc.Contacts(context.Background(), admin)
	require.NoError(t, err)
	assert.Empty(t, users)
	m.courses.AssertNotCalled(t, "StudentIDsOf", mock.Anything, mock.Anything)
}

func TestChatPartnersInstructorUnionDeduplicates(t *testing.T) {
	svc, m := newService(t)

	m.courses.On("StudentIDsOf", mock.Anything, instructor.ID).Return([]int{1, 4}, nil).Once()
	m.messages.On("PartnerIDs", mock.Anything, instructor.ID).Return([]int{4, 6}, nil).Once()
	m.users.On("FindByIDs", mock.Anything, []int{1, 4, 6}).Return([]models.User{student, {ID: 4}, {ID: 6}}, nil).Once()

	users, err := svc.ChatPartners(context.Background(), instructor)
	require.NoError(t, err)
	assert.Len(t, users, 3)
	m.users.AssertExpectations(t)
}

func TestChatPartnersAdminSeesMessagePartnersOnly(t *testing.T) {
	svc, m := newService(t)

	m.messages.On("PartnerIDs", mock.Anything, admin.ID).Return([]int{1}, nil).Once()
	m.users.On("FindByIDs", mock.Anything, []int{1}).Return([]models.User{student}, nil).Once()

	users, err := svc.ChatPartners(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
