package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// errBinaryToTerminal is returned instead of dumping a PDF into a terminal
var errBinaryToTerminal = errors.New("refusing to write a PDF to the terminal; use -o FILE or redirect stdout")

// readInput reads path, or in when path is "-"
func readInput(in io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", describeInput(path), err)
	}
	return string(data), nil
}

// writeText writes a text document to path, or to w when path is empty or "-"
func writeText(w io.Writer, path, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(w, text)
		return err
	}
	return writeFile(path, []byte(text))
}

// writeBinary is writeText for PDFs; it will not write binary data to a terminal
func writeBinary(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		if isTerminal(w) {
			return errBinaryToTerminal
		}
		_, err := w.Write(data)
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func describeInput(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
