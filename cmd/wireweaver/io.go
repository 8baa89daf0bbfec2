package main

import (
	"fmt"
	"io/ioutil"
	"os"
)

// readInput returns the raw bytes at path, or reads stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return ioutil.ReadAll(os.Stdin)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or stdout when path is "-", followed by a
// trailing newline so terminal output stays readable.
func writeOutput(path string, data []byte) error {
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := ioutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
