package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"
)

//go:embed banned/*
var bannedFolder embed.FS

// BannedData carries the result of the loading process including metadata for logging.
type BannedData struct {
	Words      []string
	Categories []string
}

// LoadBannedWords scans the embedded banned/ directory, treating each .txt
// file as a category dictionary (profanity, off-platform contact, ...) and
// parsing its contents into a unique list of words.
func LoadBannedWords() (*BannedData, error) {
	entries, err := fs.ReadDir(bannedFolder, "banned")
	if err != nil {
		return nil, err
	}

	var categories []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		categories = append(categories, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := bannedFolder.ReadFile("banned/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// Use a scanner to handle different line endings (\n vs \r\n) correctly
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			uniqueWords[strings.ToLower(line)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &BannedData{Words: words, Categories: categories}, nil
}
