package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"agro-service/internal/client"
	"agro-service/internal/config"
	"agro-service/internal/model"
)

type ChatService struct {
	completer    client.Completer
	store        ChatStore
	defaultModel string
	now          func() time.Time
}

func NewChatService(cfg *config.Config, completer client.Completer, store ChatStore) *ChatService {
	return &ChatService{
		completer:    completer,
		store:        store,
		defaultModel: cfg.ExternalServices.GeminiModel,
		now:          time.Now,
	}
}

type SendChatInput struct {
	ThreadID string
	Model    string
	Messages []model.ChatMessage
}

type ChatReply struct {
	FarmID   string            `json:"farmId"`
	ThreadID string            `json:"threadId"`
	Reply    string            `json:"reply"`
	Thread   *model.ChatThread `json:"thread"`
}

// Send asks the assistant for the next reply and stores the whole conversation under
// the thread. A store failure returns the reply with an error wrapping ErrPersistenceFailure.
func (s *ChatService) Send(ctx context.Context, farmID string, input SendChatInput) (*ChatReply, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	if len(input.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages required", ErrInvalidInput)
	}
	for i, m := range input.Messages {
		if m.Role != model.ChatRoleUser && m.Role != model.ChatRoleAssistant {
			return nil, fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidInput, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("%w: message %d is empty", ErrInvalidInput, i)
		}
	}

	modelName := strings.TrimSpace(input.Model)
	if modelName == "" {
		modelName = s.defaultModel
	}
	if err := checkLength("model", modelName, maxModelNameLength); err != nil {
		return nil, err
	}

	threadID := strings.TrimSpace(input.ThreadID)
	if err := checkLength("thread id", threadID, maxThreadIDLength); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	createdAt := now
	if threadID == "" {
		threadID = uuid.NewString()
	} else {
		existing, err := s.store.Get(ctx, farmID, threadID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			createdAt = existing.CreatedAt
		}
	}

	reply, err := s.completer.Complete(ctx, modelName, input.Messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	last := model.ChatMessage{Role: model.ChatRoleAssistant, Content: reply}
	messages := make([]model.ChatMessage, 0, len(input.Messages)+1)
	messages = append(messages, input.Messages...)
	messages = append(messages, last)

	thread := &model.ChatThread{
		FarmID:    farmID,
		ThreadID:  threadID,
		Model:     modelName,
		Messages:  datatypes.JSONSlice[model.ChatMessage](messages),
		Last:      datatypes.NewJSONType(last),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	result := &ChatReply{FarmID: farmID, ThreadID: threadID, Reply: reply, Thread: thread}
	if err := s.store.Upsert(ctx, thread); err != nil {
		return result, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return result, nil
}

func (s *ChatService) List(ctx context.Context, farmID string) ([]model.ChatThread, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	threads, err := s.store.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if threads == nil {
		threads = []model.ChatThread{}
	}
	return threads, nil
}

func (s *ChatService) Get(ctx context.Context, farmID, threadID string) (*model.ChatThread, error) {
	farmID = strings.TrimSpace(farmID)
	threadID = strings.TrimSpace(threadID)
	if farmID == "" || threadID == "" {
		return nil, fmt.Errorf("%w: farm id and thread id are required", ErrInvalidInput)
	}
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	if err := checkLength("thread id", threadID, maxThreadIDLength); err != nil {
		return nil, err
	}
	thread, err := s.store.Get(ctx, farmID, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrNotFound
	}
	return thread, nil
}
