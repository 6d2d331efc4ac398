package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, body string, status int) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	c, err := New("test-key", server.URL, "gpt-4o-mini", 256, 5*time.Second)
	require.NoError(t, err)
	return c
}

func chatResponse(content string) string {
	return `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1,
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + jsonQuote(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20}
	}`
}

func jsonQuote(s string) string {
	quoted := ""
	for _, r := range s {
		switch r {
		case '"':
			quoted += `\"`
		case '\n':
			quoted += `\n`
		case '\\':
			quoted += `\\`
		default:
			quoted += string(r)
		}
	}
	return `"` + quoted + `"`
}

func TestClassify_ParsesWellFormedReply(t *testing.T) {
	reply := `{"verdict": "defacement", "confidence": 0.92, "reasoning": "hacked-by banner detected"}`
	c := newTestClient(t, chatResponse(reply), http.StatusOK)

	result := c.Classify(context.Background(), Request{SiteURL: "https://acme.test"})
	assert.Equal(t, models.TagLLM, result.Tag)
	assert.Equal(t, models.VerdictDefacement, result.Verdict)
	assert.InDelta(t, 0.92, result.Confidence, 1e-6)
}

func TestClassify_MalformedJSONAbstains(t *testing.T) {
	c := newTestClient(t, chatResponse("not json at all"), http.StatusOK)

	result := c.Classify(context.Background(), Request{SiteURL: "https://acme.test"})
	assert.True(t, result.Abstained())
}

func TestClassify_UnknownVerdictAbstains(t *testing.T) {
	reply := `{"verdict": "catastrophic", "confidence": 0.5, "reasoning": "n/a"}`
	c := newTestClient(t, chatResponse(reply), http.StatusOK)

	result := c.Classify(context.Background(), Request{SiteURL: "https://acme.test"})
	assert.True(t, result.Abstained())
}

func TestClassify_UpstreamErrorAbstains(t *testing.T) {
	c := newTestClient(t, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)

	result := c.Classify(context.Background(), Request{SiteURL: "https://acme.test"})
	assert.True(t, result.Abstained())
}

func TestClassify_ConfidenceIsClamped(t *testing.T) {
	reply := `{"verdict": "benign", "confidence": 1.5, "reasoning": "fine"}`
	c := newTestClient(t, chatResponse(reply), http.StatusOK)

	result := c.Classify(context.Background(), Request{SiteURL: "https://acme.test"})
	assert.Equal(t, 1.0, result.Confidence)
}

func TestNew_RejectsEmptyAPIKey(t *testing.T) {
	_, err := New("", "", "", 0, 0)
	assert.Error(t, err)
}
