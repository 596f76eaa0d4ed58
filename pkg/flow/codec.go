package flow

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ThatOrJohn/flowturi/pkg/errors"
)

// ReadJSON decodes a frame sequence from r. The input must be either a JSON
// array of frame objects or a single object with a "frames" array:
//
//	[{"timestamp": "...", "nodes": [...], "links": [...]}, ...]
//	{"frames": [...]}
//
// Every decoded frame is normalized (see [Frame.Normalize]) so node names
// are authoritative. ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read frames")
	}

	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var frames []Frame
	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Frames []Frame `json:"frames"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode frames object")
		}
		frames = wrapper.Frames
	} else {
		if err := json.Unmarshal(data, &frames); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode frames array")
		}
	}

	for i := range frames {
		frames[i].Normalize()
	}
	return frames, nil
}

// ReadNDJSON decodes newline-delimited JSON, one frame object per line.
// Blank lines are skipped. This is the on-disk form of a recorded
// real-time stream.
func ReadNDJSON(r io.Reader) ([]Frame, error) {
	var frames []Frame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var f Frame
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode frame at line %d", line)
		}
		f.Normalize()
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read frames")
	}
	return frames, nil
}

// ReadYAML decodes a frame sequence from YAML. The input must be a list of
// frames or a mapping with a "frames" list.
func ReadYAML(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read frames")
	}

	var frames []Frame
	if err := yaml.Unmarshal(data, &frames); err != nil {
		var wrapper struct {
			Frames []Frame `yaml:"frames"`
		}
		if werr := yaml.Unmarshal(data, &wrapper); werr != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode frames")
		}
		frames = wrapper.Frames
	}

	for i := range frames {
		frames[i].Normalize()
	}
	return frames, nil
}

// ImportFile reads a frame sequence from path, selecting the codec by file
// extension: .json (array or object), .ndjson/.jsonl (one frame per line),
// .yaml/.yml.
func ImportFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".ndjson", ".jsonl":
		return ReadNDJSON(f)
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported frame file extension: %s", filepath.Ext(path))
	}
}

// WriteLayoutsJSON encodes a layout sequence to w as indented JSON.
func WriteLayoutsJSON(w io.Writer, layouts []LayoutState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(layouts); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layouts")
	}
	return nil
}
