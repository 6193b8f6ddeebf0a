package moderation

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"

	"tonebot/errors"
)

//go:embed wordlists/*.txt
var wordlistsFS embed.FS

// DefaultMask replaces censored characters.
const DefaultMask = '*'

// LoadWordlists reads every embedded list, one word per line.
// Blank lines and '#' comments are skipped; duplicates collapse.
func LoadWordlists() ([]string, error) {
	return loadFrom(wordlistsFS, "wordlists")
}

func loadFrom(fsys fs.FS, dir string) ([]string, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var words []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		f, err := fsys.Open(dir + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			word = strings.ToLower(word)
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		closeErr := f.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}

// NewDefaultCensor builds a censor over the embedded lists.
func NewDefaultCensor() (*Censor, error) {
	words, err := LoadWordlists()
	if err != nil {
		return nil, err
	}
	return NewCensor(words, DefaultMask)
}
