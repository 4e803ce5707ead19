package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docchat/internal/core/domain"
	"docchat/internal/infrastructure/resilience"
)

const generationTemperature = 0.1

type Client struct {
	baseURL     string
	chatModel   string
	embedModel  string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, chatModel, embedModel, visionModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatModel:   chatModel,
		embedModel:  embedModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
	}
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Embedder adapts the Ollama embeddings API to ports.Embedder. The default
// model is multilingual so documents are not limited to English.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.execute(ctx, "embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator adapts the Ollama chat API to ports.ChatGenerator.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(
	ctx context.Context,
	system string,
	history []domain.Turn,
	contextPassages []domain.RetrievedChunk,
	userQuery string,
) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: withContextBlock(system, contextPassages),
	})
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userQuery})

	return g.client.chat(ctx, g.client.chatModel, messages, "generate")
}

// Vision adapts an Ollama multimodal model to ports.ImageOCR.
type Vision struct {
	client *Client
}

func NewVision(client *Client) *Vision {
	return &Vision{client: client}
}

func (v *Vision) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	messages := []chatMessage{{
		Role:    "user",
		Content: ocrPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
	}}
	return v.client.chat(ctx, v.client.visionModel, messages, "ocr")
}

func (c *Client) chat(ctx context.Context, model string, messages []chatMessage, operation string) (string, error) {
	request := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
		"options": map[string]any{
			"temperature": generationTemperature,
		},
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	err := c.execute(ctx, operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/chat", request, &response, operation)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, call(ctx))
	}
	err := c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}
