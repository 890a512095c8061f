package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"bullet-ai/domain/ports"
)

// Shape - envelope ที่ถอดได้ (tagged union ของ response ที่รู้จัก)
type Shape string

const (
	ShapeOpenAIChat   Shape = "openai.chat"       // choices[0].message.content
	ShapeCompletion   Shape = "openai.completion" // choices[0].text
	ShapeResponses    Shape = "openai.responses"  // output_text / output[].content[].text
	ShapeAnthropic    Shape = "anthropic.content" // content[] text blocks
	ShapeBareContent  Shape = "bare.content"      // {"content": "..."}
	shapeUnrecognized Shape = ""
)

// Envelope - ผลการถอด body ของ upstream
type Envelope struct {
	Shape Shape
	Text  string
}

type rawEnvelope struct {
	Choices []struct {
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text *string `json:"text"`
	} `json:"choices"`
	OutputText *string `json:"output_text"`
	Output     []struct {
		Content []textBlock `json:"content"`
	} `json:"output"`
	Content json.RawMessage `json:"content"`
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DecodeEnvelope ลองทีละ shape ตามลำดับ ถ้าไม่ตรงเลยคืน ports.ErrUnrecognizedResponse
func DecodeEnvelope(body []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, ports.ErrUnrecognizedResponse
	}

	if len(raw.Choices) > 0 {
		first := raw.Choices[0]
		if first.Message != nil {
			if text, ok := contentText(first.Message.Content); ok {
				return Envelope{Shape: ShapeOpenAIChat, Text: text}, nil
			}
		}
		if first.Text != nil {
			return Envelope{Shape: ShapeCompletion, Text: *first.Text}, nil
		}
	}

	if raw.OutputText != nil {
		return Envelope{Shape: ShapeResponses, Text: *raw.OutputText}, nil
	}
	if len(raw.Output) > 0 {
		var sb strings.Builder
		found := false
		for _, item := range raw.Output {
			for _, block := range item.Content {
				if block.Text == "" && block.Type != "output_text" && block.Type != "text" {
					continue
				}
				sb.WriteString(block.Text)
				found = true
			}
		}
		if found {
			return Envelope{Shape: ShapeResponses, Text: sb.String()}, nil
		}
	}

	if len(raw.Content) > 0 {
		trimmed := bytes.TrimSpace(raw.Content)
		switch {
		case len(trimmed) > 0 && trimmed[0] == '[':
			if text, ok := blocksText(trimmed); ok {
				return Envelope{Shape: ShapeAnthropic, Text: text}, nil
			}
		case len(trimmed) > 0 && trimmed[0] == '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				return Envelope{Shape: ShapeBareContent, Text: s}, nil
			}
		}
	}

	return Envelope{Shape: shapeUnrecognized}, ports.ErrUnrecognizedResponse
}

// contentText - content ของ chat message เป็น string หรือ array ของ part
// ไม่มี content หรือเป็น null ถือว่าไม่ใช่ shape นี้ (ให้ลอง choices[0].text ต่อ)
func contentText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '[':
		return blocksText(trimmed)
	}
	return "", false
}

// blocksText ต่อ text ของทุก block ที่เป็น text
func blocksText(raw []byte) (string, bool) {
	var blocks []textBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", false
	}
	var sb strings.Builder
	found := false
	for _, b := range blocks {
		if b.Type != "" && b.Type != "text" && b.Type != "output_text" {
			continue
		}
		sb.WriteString(b.Text)
		found = true
	}
	return sb.String(), found
}
