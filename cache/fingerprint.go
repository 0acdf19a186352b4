package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/trustgate-ai/trustgate/llm"
)

// Fingerprint returns a deterministic digest of the normalized message
// sequence, used as the exact-match cache key. Content is whitespace-trimmed
// before hashing so formatting-only variations of the same conversation
// collapse onto one key.
func Fingerprint(messages []llm.Message) string {
	normalized := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		normalized = append(normalized, llm.Message{
			Role:    m.Role,
			Content: strings.TrimSpace(m.Content),
		})
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		// Marshal of plain role/content pairs cannot fail; guard anyway.
		data = []byte(strings.Join(flatten(normalized), "\x1e"))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func flatten(messages []llm.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, string(m.Role)+"\x00"+m.Content)
	}
	return out
}
