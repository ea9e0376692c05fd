package gemini

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrNoFunctionCall = errors.New("gemini returned no function call")
	ErrEmptyResponse  = errors.New("no response from Gemini API")
)

type IGemini interface {
	CallFunction(ctx context.Context, req FunctionRequest) (map[string]any, error)
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	Close() error
}

// FunctionRequest forces the model to answer by calling Function.
type FunctionRequest struct {
	System      string
	Prompt      string
	Function    *genai.FunctionDeclaration
	Temperature float32
}

type TextRequest struct {
	System          string
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
}

type geminiClient struct {
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) CallFunction(ctx context.Context, req FunctionRequest) (map[string]any, error) {
	if req.Function == nil {
		return nil, errors.New("function declaration is required")
	}

	model := g.model(req.System, req.Temperature)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{req.Function},
	}}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{req.Function.Name},
		},
	}

	res, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, err
	}

	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch call := part.(type) {
			case genai.FunctionCall:
				if call.Name == req.Function.Name {
					return call.Args, nil
				}
			case *genai.FunctionCall:
				if call != nil && call.Name == req.Function.Name {
					return call.Args, nil
				}
			}
		}
	}

	return nil, ErrNoFunctionCall
}

func (g *geminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := g.model(req.System, req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}

	res, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format from Gemini API")
	}

	return sb.String(), nil
}

func (g *geminiClient) model(system string, temperature float32) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	return model
}

func (g *geminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
