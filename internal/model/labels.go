package model

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// LabelList maps class indices of the model output to names.
type LabelList []string

// Name returns the label for class i, or "unknown" when i is out of range.
func (l LabelList) Name(i int) string {
	if i < 0 || i >= len(l) {
		return unknownLabel
	}
	return l[i]
}

// LoadLabels reads one label per non-empty line, in order.
func LoadLabels(r io.Reader) (LabelList, error) {
	var labels LabelList
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, ResourceError("read labels", err)
	}
	if len(labels) == 0 {
		return nil, ResourceError("read labels", errors.New("no labels found"))
	}
	return labels, nil
}

func LoadLabelFile(path string) (LabelList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ResourceError("open labels", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadLabels(file)
}
