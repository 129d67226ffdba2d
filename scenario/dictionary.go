package scenario

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// fallback words for hosts without /usr/share/dict/words (windows, containers)
var fallbackWords = []string{
	"mataki", "request", "response", "header", "body", "status", "error",
	"client", "service", "endpoint", "query", "cookie", "token", "value",
	"name", "type", "content", "message", "result", "json", "xml", "form",
	"upload", "image", "charset", "boundary", "session", "timestamp",
	"duration", "length", "version", "format", "encoding", "transport",
}

// DefaultDictionaryPath is read when present, the built-in list is used otherwise
const DefaultDictionaryPath = "/usr/share/dict/words"

// Dictionary is a word list used to fill generated payloads
type Dictionary struct {
	words []string
}

// LoadDictionary reads alphabetic words of 3 to 15 letters from path,
// falling back to the built-in list when the file does not exist.
func LoadDictionary(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Dictionary{words: fallbackWords}, nil
		}
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if len(word) >= 3 && len(word) <= 15 && isAlpha(word) {
			words = append(words, strings.ToLower(word))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no valid words found in %s", path)
	}
	return &Dictionary{words: words}, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func (d *Dictionary) RandomWord(rng *rand.Rand) string {
	if len(d.words) == 0 {
		return "word"
	}
	return d.words[rng.Intn(len(d.words))]
}

func (d *Dictionary) Size() int {
	return len(d.words)
}
