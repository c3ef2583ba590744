package stopcatalog

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

func parseYAML(r io.Reader, add func(string, *stopRecord) error) error {
	var document yaml.Node
	if err := yaml.NewDecoder(r).Decode(&document); err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return errors.New("empty YAML dataset")
	}
	root := document.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		for index, node := range root.Content {
			var record stopRecord
			if err := node.Decode(&record); err != nil {
				return &CatalogLoadError{Record: strconv.Itoa(index), Err: err}
			}

			recordID := record.Code
			if recordID == "" {
				recordID = strconv.Itoa(index)
			}
			if err := add(recordID, &record); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i].Value

			var record stopRecord
			if err := root.Content[i+1].Decode(&record); err != nil {
				return &CatalogLoadError{Record: key, Err: err}
			}

			if record.Code == "" {
				record.Code = key
			} else if record.Code != key {
				return &CatalogLoadError{Record: key, Err: errKeyMismatch}
			}

			if err := add(key, &record); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("dataset must be a YAML sequence or mapping (line %d)", root.Line)
	}

	return nil
}
