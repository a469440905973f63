// Package assistant answers water-safety questions and produces an example
// test-kit image through the Gemini generateContent REST API.
package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable is wrapped by every failure of the assistant. Callers surface it
// as-is; there is no retry.
var ErrUnavailable = errors.New("assistant service unavailable")

const systemInstruction = "You are a helpful assistant specializing in water safety, sanitation, and E. coli testing, " +
	"specifically for community initiatives in rural India like Uppalapadu. Provide clear, concise, and practical advice. " +
	"Do not mention that you are an AI model."

const examplePrompt = "A high-quality, clear photograph of two E. coli water test kit vials side-by-side against a neutral, " +
	"well-lit background. The vial on the left should contain a clear, pale yellow liquid, indicating a NEGATIVE result for " +
	"E. coli. The vial on the right should contain a vibrant, fluorescent yellow-green liquid, indicating a POSITIVE result " +
	"for E. coli. Both vials should be clearly labeled."

// Image is a generated picture and its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// Assistant is the generative collaborator consumed by the guide endpoints.
type Assistant interface {
	AnswerQuestion(ctx context.Context, question string) (string, error)
	GenerateExampleImage(ctx context.Context) (Image, error)
}

// Config holds Gemini client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
}

// Gemini calls the Gemini REST API.
type Gemini struct {
	cfg Config
}

// New returns a Gemini client, or a Disabled assistant when no API key is configured.
func New(cfg Config) Assistant {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gemini{cfg: cfg}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	TopP               *float64 `json:"topP,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func ptr(v float64) *float64 { return &v }

// AnswerQuestion returns a free-text answer to question.
func (g *Gemini) AnswerQuestion(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrUnavailable)
	}
	resp, err := g.generate(ctx, g.cfg.TextModel, generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: "Question: " + question}}}},
		GenerationConfig:  generationConfig{Temperature: ptr(0.7), TopP: ptr(0.95)},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", fmt.Errorf("%w: response missing text", ErrUnavailable)
	}
	return answer, nil
}

// GenerateExampleImage returns a picture of a negative and a positive E. coli test vial.
func (g *Gemini) GenerateExampleImage(ctx context.Context) (Image, error) {
	resp, err := g.generate(ctx, g.cfg.ImageModel, generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: examplePrompt}}}},
		GenerationConfig: generationConfig{ResponseModalities: []string{"IMAGE"}},
	})
	if err != nil {
		return Image{}, err
	}
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return Image{}, fmt.Errorf("%w: decode image: %v", ErrUnavailable, err)
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return Image{MIMEType: mime, Data: data}, nil
		}
	}
	return Image{}, fmt.Errorf("%w: no image data in response", ErrUnavailable)
}

func (g *Gemini) generate(ctx context.Context, model string, body generateRequest) (generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return generateResponse{}, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return generateResponse{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only in this header and never appears in errors.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return generateResponse{}, fmt.Errorf("%w: request failed: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return generateResponse{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return generateResponse{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return out, nil
}

// Disabled is used when no API key is configured; every call fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) AnswerQuestion(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: not configured", ErrUnavailable)
}

func (Disabled) GenerateExampleImage(context.Context) (Image, error) {
	return Image{}, fmt.Errorf("%w: not configured", ErrUnavailable)
}
