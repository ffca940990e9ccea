package library

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ReadExercisesCSV reads catalog entries from a semicolon separated CSV:
// NAME;BODY_PART;MEDIA_URL (media url may be empty). A header line
// starting with "name;" is skipped.
func ReadExercisesCSV(reader *csv.Reader) ([]Exercise, error) {
	reader.Comma = ';'
	reader.FieldsPerRecord = 3

	var exercises []Exercise
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimSpace(record[0])
		bodyPart := strings.TrimSpace(record[1])
		mediaURL := strings.TrimSpace(record[2])

		if strings.EqualFold(name, "name") && len(exercises) == 0 {
			continue
		}
		if name == "" || bodyPart == "" {
			return nil, fmt.Errorf("record [%s] has an empty name or body part", record)
		}

		exercises = append(exercises, Exercise{
			Name:     name,
			BodyPart: strings.ToLower(bodyPart),
			MediaURL: mediaURL,
		})
	}

	log.Printf("exercises CSV read %d entries", len(exercises))

	return exercises, nil
}
