package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"docsync-agent/packages/config"
	"docsync-agent/packages/logging"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type scriptedBackend struct {
	responses []string
	errs      []error
	calls     int
	closed    bool
}

func (s *scriptedBackend) complete(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", nil
}

func (s *scriptedBackend) Close() error {
	s.closed = true
	return nil
}

func testClient(b backend, retries int) *Client {
	cfg := config.AIConfig{MaxRetries: retries}
	c := newClient(b, cfg, time.Second, logging.NewNop())
	c.initialBackoff = time.Millisecond
	return c
}

func TestClient_Generate_Success(t *testing.T) {
	b := &scriptedBackend{responses: []string{"  indented first line\n"}}
	c := testClient(b, 2)

	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "  indented first line\n", out)
	assert.Equal(t, 1, b.calls)
}

func TestClient_Generate_RetriesTransientErrors(t *testing.T) {
	b := &scriptedBackend{
		errs:      []error{&googleapi.Error{Code: 503}, errors.New("connection reset by peer")},
		responses: []string{"", "", "ok"},
	}
	c := testClient(b, 3)

	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, b.calls)
}

func TestClient_Generate_PermanentErrorStopsImmediately(t *testing.T) {
	b := &scriptedBackend{errs: []error{&googleapi.Error{Code: 400, Message: "bad request"}}}
	c := testClient(b, 3)

	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, b.calls)

	var apiErr *googleapi.Error
	assert.True(t, errors.As(err, &apiErr))
}

func TestClient_Generate_EmptyResponseExhaustsRetries(t *testing.T) {
	b := &scriptedBackend{responses: []string{"", " ", "\n"}}
	c := testClient(b, 2)

	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 3, b.calls)
}

func TestClient_Generate_CancelledContext(t *testing.T) {
	b := &scriptedBackend{responses: []string{"ok"}}
	c := testClient(b, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.Equal(t, 0, b.calls)
}

func TestClient_Close(t *testing.T) {
	b := &scriptedBackend{}
	require.NoError(t, testClient(b, 0).Close())
	assert.True(t, b.closed)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(ErrEmptyResponse))
	assert.True(t, IsRetryable(&googleapi.Error{Code: 429}))
	assert.False(t, IsRetryable(&googleapi.Error{Code: 403}))
	assert.True(t, IsRetryable(errors.New("dial tcp: i/o timeout")))
	assert.False(t, IsRetryable(errors.New("invalid argument")))
}

func TestResponseText(t *testing.T) {
	_, err := responseText(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("# Guide"), genai.Text("\nmore")}},
		}},
	}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "# Guide\nmore", text)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.AIConfig{Provider: "gemini"}, time.Second, logging.NewNop())
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.AIConfig{Provider: "other", APIKey: "k"}, time.Second, logging.NewNop())
	assert.Error(t, err)
}
