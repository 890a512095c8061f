package utils

import (
	"context"
	"unicode/utf8"
)

// MutationIDHeader - client แนบ correlation id ของ write มากับ header นี้
const MutationIDHeader = "X-Mutation-ID"

type mutationIDKey struct{}

func WithMutationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, mutationIDKey{}, id)
}

func MutationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(mutationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// TruncateRunes ตัด string ให้ไม่เกิน max ตัวอักษร (นับ rune)
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
