package messaging

import (
	"context"
	"errors"
	"log"
	"time"

	"course-chat-service/internal/models"
	"course-chat-service/internal/observability"
	"course-chat-service/internal/repositories"
)

const defaultOpTimeout = 5 * time.Second

// Pusher delivers an event to a user's live connection, if any. Implemented
// by the websocket registry.
type Pusher interface {
	Push(userID int, event models.Event) bool
}

// Service is the chat core shared by the HTTP handlers and the websocket
// gateway, so the access policy is applied identically on both surfaces.
type Service interface {
	Send(ctx context.Context, sender models.User, receiverID int, text, imageURL string) (models.Message, error)
	History(ctx context.Context, actor models.User, otherID int) ([]models.Message, error)
	Contacts(ctx context.Context, actor models.User) ([]models.User, error)
	ChatPartners(ctx context.Context, actor models.User) ([]models.User, error)
}

// ChatService implements Service over the user, course and message stores.
type ChatService struct {
	users     repositories.UserRepository
	courses   repositories.CourseRepository
	messages  repositories.MessageRepository
	pusher    Pusher
	opTimeout time.Duration
}

// NewChatService builds a ChatService. pusher may be nil, in which case sent
// messages are only persisted and returned, never pushed.
func NewChatService(users repositories.UserRepository, courses repositories.CourseRepository, messages repositories.MessageRepository, pusher Pusher) *ChatService {
	return &ChatService{
		users:     users,
		courses:   courses,
		messages:  messages,
		pusher:    pusher,
		opTimeout: defaultOpTimeout,
	}
}

// Send validates, authorizes, persists and delivers a message. The returned
// message carries its stable id and creation timestamp so clients can
// reconcile optimistically inserted copies.
func (s *ChatService) Send(ctx context.Context, sender models.User, receiverID int, text, imageURL string) (models.Message, error) {
	if sender.ID == receiverID {
		return models.Message{}, ErrSelfChat
	}
	if text == "" && imageURL == "" {
		return models.Message{}, repositories.ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		return models.Message{}, mapErr(err)
	}
	if err := s.authorize(ctx, sender, receiverID); err != nil {
		if errors.Is(err, ErrForbidden) {
			observability.IncPolicyDenial(sender.Role)
		}
		return models.Message{}, mapErr(err)
	}

	msg, err := s.messages.Append(ctx, sender.ID, receiverID, text, imageURL)
	if err != nil {
		return models.Message{}, mapErr(err)
	}
	observability.IncMessageSent()

	if s.pusher != nil {
		if s.pusher.Push(receiverID, models.Event{Type: models.EventNewMessage, Message: &msg}) {
			observability.IncMessagePushed()
		} else {
			log.Printf("receiver %d not online, message %d stored only", receiverID, msg.ID)
		}
	}
	return msg, nil
}

// History returns the ordered message history with a counterpart, applying
// the same policy as Send.
func (s *ChatService) History(ctx context.Context, actor models.User, otherID int) ([]models.Message, error) {
	if actor.ID == otherID {
		return nil, ErrSelfChat
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.users.FindByID(ctx, otherID); err != nil {
		return nil, mapErr(err)
	}
	if err := s.authorize(ctx, actor, otherID); err != nil {
		return nil, mapErr(err)
	}
	msgs, err := s.messages.ListBetween(ctx, actor.ID, otherID)
	if err != nil {
		return nil, mapErr(err)
	}
	return msgs, nil
}

// Contacts lists the counterparts the actor is currently eligible to message.
func (s *ChatService) Contacts(ctx context.Context, actor models.User) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var (
		ids []int
		err error
	)
	switch actor.Role {
	case models.RoleStudent:
		ids, err = s.courses.InstructorIDsOf(ctx, actor.ID)
	case models.RoleInstructor:
		ids, err = s.courses.StudentIDsOf(ctx, actor.ID)
	default:
		// Admins have no messaging rights, so no contacts.
		return []models.User{}, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// ChatPartners lists counterparts with an existing or eligible conversation.
// For instructors this includes everyone who ever messaged them, so a
// conversation started under the reply exception stays visible after the
// student is unenrolled.
func (s *ChatService) ChatPartners(ctx context.Context, actor models.User) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var ids []int
	switch actor.Role {
	case models.RoleStudent:
		instructorIDs, err := s.courses.InstructorIDsOf(ctx, actor.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		ids = instructorIDs
	case models.RoleInstructor:
		studentIDs, err := s.courses.StudentIDsOf(ctx, actor.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		partnerIDs, err := s.messages.PartnerIDs(ctx, actor.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		ids = union(studentIDs, partnerIDs)
	default:
		partnerIDs, err := s.messages.PartnerIDs(ctx, actor.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		ids = partnerIDs
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// authorize applies the role-derived pair rule for (actor, other).
func (s *ChatService) authorize(ctx context.Context, actor models.User, otherID int) error {
	switch actor.Role {
	case models.RoleStudent:
		// Students may only message instructors of courses they are
		// enrolled in.
		allowed, err := s.courses.IsEnrolledWith(ctx, otherID, actor.ID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbidden
		}
		return nil
	case models.RoleInstructor:
		enrolled, err := s.courses.IsEnrolledWith(ctx, actor.ID, otherID)
		if err != nil {
			return err
		}
		if enrolled {
			return nil
		}
		// Reply exception: an instructor may answer someone who messaged
		// them first, but may not cold-message a non-enrolled user.
		prior, err := s.messages.ExistsFrom(ctx, otherID, actor.ID)
		if err != nil {
			return err
		}
		if prior {
			return nil
		}
		return ErrForbidden
	default:
		// Admins and unknown roles are denied pairwise messaging.
		return ErrForbidden
	}
}

func mapErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

func union(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
