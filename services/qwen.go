package services

import (
	"context"
	"encoding/base64"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

const describePrompt = "Describe this diagram in detail. Name every labeled shape " +
	"(quote each label exactly as written), say what kind of shape it is " +
	"(box, circle, diamond), note colors, and describe the connections " +
	"between shapes, including their direction."

var (
	qwenClient *openai.Client
	qwenModel  string
	qwenOnce   sync.Once
)

// DefaultQwenClient returns a singleton client for the narrative VLM
// service, which speaks the OpenAI-compatible chat API.
func DefaultQwenClient() *openai.Client {
	qwenOnce.Do(func() {
		apiKey := os.Getenv("QWEN_VLM_API_KEY")
		if apiKey == "" {
			apiKey = "not-needed"
		}

		config := openai.DefaultConfig(apiKey)

		baseURL := os.Getenv("QWEN_VLM_URL")
		if baseURL == "" {
			baseURL = "http://localhost:8001/v1"
		}
		config.BaseURL = baseURL

		qwenModel = os.Getenv("QWEN_VLM_MODEL")
		if qwenModel == "" {
			qwenModel = "Qwen/Qwen2-VL-7B-Instruct"
		}

		qwenClient = openai.NewClientWithConfig(config)
	})
	return qwenClient
}

// DescribeDiagram asks the VLM for a free-text description of the
// diagram image.
func DescribeDiagram(ctx context.Context, client *openai.Client, image []byte) (string, error) {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: qwenModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataURI,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: describePrompt,
					},
				},
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", errors.Wrap(err, "VLM describe request failed")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from VLM service")
	}
	return resp.Choices[0].Message.Content, nil
}
