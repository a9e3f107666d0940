package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceDir is returned when the directory of daily files is missing.
	ErrSourceDir = errors.New("source directory not found")

	// ErrNoFiles is returned when no file matches the daily naming pattern.
	ErrNoFiles = errors.New("no daily files found")

	// ErrEmptyResult is returned when every file was skipped or yielded no
	// readings.
	ErrEmptyResult = errors.New("no readings collected")

	// ErrFormat is returned when a column label cannot be read as a timestamp.
	ErrFormat = errors.New("column label is not a timestamp")
)

// FileError reports a daily file that could not be parsed. Builds skip such
// files and carry on.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
