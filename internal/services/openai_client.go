package services

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"

	"fabric-agent/internal/config"
	"fabric-agent/internal/models"
)

// OpenAIAssistantClient talks to the Assistants API (OpenAI or Azure OpenAI).
type OpenAIAssistantClient struct {
	client openai.Client
}

func NewOpenAIAssistantClient(cfg *config.Config) (*OpenAIAssistantClient, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}

	// One attempt per call; the run poll is the only retry loop.
	opts = append(opts, option.WithMaxRetries(0))
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	return &OpenAIAssistantClient{client: openai.NewClient(opts...)}, nil
}

func requestOptions(cfg *config.Config) ([]option.RequestOption, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return opts, nil

	case config.ProviderAzure:
		opts := []option.RequestOption{azure.WithEndpoint(cfg.AzureEndpoint, cfg.AzureAPIVersion)}
		if cfg.AzureAPIKey != "" {
			return append(opts, azure.WithAPIKey(cfg.AzureAPIKey)), nil
		}

		// No key: fall back to Entra ID (managed identity, az login, env creds).
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		return append(opts, azure.WithTokenCredential(cred)), nil
	}

	return nil, fmt.Errorf("unsupported assistant provider %q", cfg.Provider)
}

func (c *OpenAIAssistantClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (c *OpenAIAssistantClient) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := c.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	return err
}

func (c *OpenAIAssistantClient) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	run, err := c.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (c *OpenAIAssistantClient) GetRun(ctx context.Context, threadID, runID string) (models.RunStatus, error) {
	run, err := c.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return "", err
	}
	return models.RunStatus(run.Status), nil
}

func (c *OpenAIAssistantClient) ListMessages(ctx context.Context, threadID string) ([]models.ThreadMessage, error) {
	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{},
		option.WithQuery("order", "desc"),
	)
	if err != nil {
		return nil, err
	}

	messages := make([]models.ThreadMessage, 0, len(page.Data))
	for _, msg := range page.Data {
		tm := models.ThreadMessage{ID: msg.ID, Role: string(msg.Role)}
		for _, block := range msg.Content {
			cb := models.ContentBlock{Type: string(block.Type)}
			if cb.Type == models.ContentTypeText {
				cb.Text = block.Text.Value
			}
			tm.Content = append(tm.Content, cb)
		}
		messages = append(messages, tm)
	}
	return messages, nil
}
