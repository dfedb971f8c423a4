package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: config})
	if len(f.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()

	var delays []time.Duration
	original := wait
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })

	return &delays
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	delays := stubWait(t)

	models := &fakeModels{responses: []fakeResponse{
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		{resp: textResponse("retry ok")},
	}}
	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}

	if len(*delays) != 1 || (*delays)[0] != baseBackoff {
		t.Fatalf("unexpected backoff delays: %v", *delays)
	}

	for _, call := range models.calls {
		if call.model != "gemini-pro" {
			t.Fatalf("unexpected model: %q", call.model)
		}
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if got := call.contents[0].Parts[0].Text; got != "message" {
			t.Fatalf("unexpected prompt: %q", got)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models := &fakeModels{responses: []fakeResponse{{err: tempErr}, {err: tempErr}}}
	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	stubWait(t)

	models := &fakeModels{responses: []fakeResponse{{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}}}}
	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorHonorsShortQuotaDelay(t *testing.T) {
	delays := stubWait(t)

	models := &fakeModels{responses: []fakeResponse{
		{err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 2.5s."}},
		{resp: textResponse("ok")},
	}}
	g := newGenerator(models, "", 3, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "", "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*delays) != 1 || (*delays)[0] != 2500*time.Millisecond {
		t.Fatalf("unexpected delays: %v", *delays)
	}

	if models.calls[0].model != defaultModel {
		t.Fatalf("expected default model, got %q", models.calls[0].model)
	}

	if models.calls[0].config != nil {
		t.Fatalf("did not expect config without system instruction")
	}
}

func TestGeneratorDoesNotRetryPermanentErrors(t *testing.T) {
	stubWait(t)

	models := &fakeModels{responses: []fakeResponse{{err: genai.APIError{Code: http.StatusBadRequest}}}}
	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorRejectsEmptyResponses(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{{resp: &genai.GenerateContentResponse{}}}}
	g := newGenerator(models, "gemini-pro", 1, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}

	if _, err := g.GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
