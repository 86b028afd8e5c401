package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"fabric-agent/internal/models"
)

var (
	ErrRunFailed  = errors.New("run failed")
	ErrRunTimeout = errors.New("request timeout")
	ErrNoResponse = errors.New("no response from assistant")
)

// RunFailedError is returned when a run ends in a failure status.
type RunFailedError struct {
	Status models.RunStatus
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("Run %s", e.Status)
}

func (e *RunFailedError) Is(target error) bool {
	return target == ErrRunFailed
}

// AssistantClient is the slice of the hosted assistants API the relay needs.
type AssistantClient interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID, assistantID string) (string, error)
	GetRun(ctx context.Context, threadID, runID string) (models.RunStatus, error)
	// ListMessages returns the thread's messages newest first.
	ListMessages(ctx context.Context, threadID string) ([]models.ThreadMessage, error)
}

type AssistantService struct {
	client       AssistantClient
	assistantID  string
	pollInterval time.Duration
	maxAttempts  int
}

func NewAssistantService(client AssistantClient, assistantID string, pollInterval time.Duration, maxAttempts int) *AssistantService {
	return &AssistantService{
		client:       client,
		assistantID:  assistantID,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

func (s *AssistantService) AssistantID() string {
	return s.assistantID
}

// Ask runs the assistant on a fresh thread holding message and returns the
// assistant's reply text.
func (s *AssistantService) Ask(ctx context.Context, message string) (string, error) {
	threadID, err := s.client.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	if err := s.client.AddUserMessage(ctx, threadID, message); err != nil {
		return "", fmt.Errorf("add message to thread %s: %w", threadID, err)
	}

	runID, err := s.client.StartRun(ctx, threadID, s.assistantID)
	if err != nil {
		return "", fmt.Errorf("start run on thread %s: %w", threadID, err)
	}

	logger := log.Ctx(ctx).With().Str("thread_id", threadID).Str("run_id", runID).Logger()
	logger.Debug().Msg("run started")

	if err := s.waitForRun(ctx, threadID, runID); err != nil {
		logger.Warn().Err(err).Msg("run did not complete")
		return "", err
	}

	messages, err := s.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("list messages on thread %s: %w", threadID, err)
	}

	reply, ok := LatestAssistantText(messages)
	if !ok {
		return "", ErrNoResponse
	}

	logger.Debug().Int("reply_len", len(reply)).Msg("run completed")
	return reply, nil
}

// waitForRun polls the run until it completes, fails, or the attempt budget
// runs out. The upstream run is left alone on every exit path.
func (s *AssistantService) waitForRun(ctx context.Context, threadID, runID string) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		status, err := s.client.GetRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("retrieve run %s: %w", runID, err)
		}

		if status == models.RunStatusCompleted {
			return nil
		}
		if status.IsFailure() {
			return &RunFailedError{Status: status}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return ErrRunTimeout
}

// LatestAssistantText returns the text of the newest assistant message whose
// first block is text. A blank text there means no reply; older messages are
// not consulted.
func LatestAssistantText(messages []models.ThreadMessage) (string, bool) {
	for _, msg := range messages {
		if msg.Role != models.RoleAssistant || len(msg.Content) == 0 {
			continue
		}
		first := msg.Content[0]
		if first.Type != models.ContentTypeText {
			continue
		}
		if strings.TrimSpace(first.Text) == "" {
			return "", false
		}
		return first.Text, true
	}
	return "", false
}
