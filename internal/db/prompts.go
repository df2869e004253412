package db

import (
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
)

// LoadPromptLibrary reads prompts from a CSV and upserts them into the
// prompt_library table. The CSV has a header row and one prompt per line.
func LoadPromptLibrary(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	prompts, err := readPromptCSV(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, text := range prompts {
		entry := PromptLibrary{Text: text}
		if err := conn.FirstOrCreate(&entry, PromptLibrary{Text: text}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// AllPrompts returns every prompt in the library.
func AllPrompts(conn *gorm.DB) ([]string, error) {
	if conn == nil {
		return nil, nil
	}
	var prompts []string
	err := conn.Model(&PromptLibrary{}).Order("id").Pluck("text", &prompts).Error
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

func readPromptCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var prompts []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[0])
		if text == "" {
			continue
		}
		prompts = append(prompts, text)
	}
	return prompts, nil
}
