package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// WriteURLList overwrites path with urls as an indented JSON array.
func WriteURLList(path string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.MarshalIndent(urls, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding url list: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}

// ReadURLList loads a JSON array of URL strings.
func ReadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("decoding url list %s: %w", path, err)
	}
	return urls, nil
}

// EnsureURLList creates path holding an empty array if it does not exist.
func EnsureURLList(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}

// AppendURLList extends the array stored at path with urls. Duplicates are
// kept. Callers must serialise calls for the same path.
func AppendURLList(path string, urls []string) error {
	if err := EnsureURLList(path); err != nil {
		return err
	}
	existing, err := ReadURLList(path)
	if err != nil {
		return err
	}
	return WriteURLList(path, append(existing, urls...))
}
