package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullet-ai/domain/ports"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantShape Shape
		wantText  string
	}{
		{
			name:      "openai chat string content",
			body:      `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`,
			wantShape: ShapeOpenAIChat,
			wantText:  "hello",
		},
		{
			name:      "openai chat content parts",
			body:      `{"choices":[{"message":{"content":[{"type":"text","text":"he"},{"type":"image_url"},{"type":"text","text":"llo"}]}}]}`,
			wantShape: ShapeOpenAIChat,
			wantText:  "hello",
		},
		{
			name:      "null message content falls back to text",
			body:      `{"choices":[{"message":{"content":null},"text":"fallback"}]}`,
			wantShape: ShapeCompletion,
			wantText:  "fallback",
		},
		{
			name:      "legacy completion",
			body:      `{"choices":[{"text":"plain"}]}`,
			wantShape: ShapeCompletion,
			wantText:  "plain",
		},
		{
			name:      "responses output_text",
			body:      `{"output_text":"summary"}`,
			wantShape: ShapeResponses,
			wantText:  "summary",
		},
		{
			name:      "responses output blocks",
			body:      `{"output":[{"content":[{"type":"output_text","text":"a"}]},{"content":[{"type":"output_text","text":"b"}]}]}`,
			wantShape: ShapeResponses,
			wantText:  "ab",
		},
		{
			name:      "anthropic content blocks",
			body:      `{"content":[{"type":"text","text":"claude says"},{"type":"tool_use","id":"x"}]}`,
			wantShape: ShapeAnthropic,
			wantText:  "claude says",
		},
		{
			name:      "bare content",
			body:      `{"content":"just text"}`,
			wantShape: ShapeBareContent,
			wantText:  "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, env.Shape)
			assert.Equal(t, tt.wantText, env.Text)
		})
	}
}

func TestDecodeEnvelopeUnrecognized(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{}`,
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":null}}]}`,
		`{"choices":[{"message":{"role":"assistant"}}]}`,
		`{"data":{"text":"x"}}`,
		`{"content":42}`,
		`[1,2,3]`,
	} {
		_, err := DecodeEnvelope([]byte(body))
		assert.ErrorIs(t, err, ports.ErrUnrecognizedResponse, "body %s", body)
	}
}
