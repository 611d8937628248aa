package file

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ruimo/klavier-core-sub000/midi"
	"github.com/ruimo/klavier-core-sub000/model"
)

var ErrUnknownExtension = errors.New("unknown score file extension")

var extensions = []string{".json", ".yaml", ".yml", ".mid", ".midi"}

func IsScorePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadScore reads a JSON, YAML or SMF score. The score is named after the
// file unless it carries a name, and it is normalized before it is returned.
func LoadScore(path string) (model.Score, error) {
	var score model.Score
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mid", ".midi":
		s, err := midi.ReadScore(path)
		if err != nil {
			return score, err
		}
		score = s
	case ".json", ".yaml", ".yml":
		dat, err := os.ReadFile(path)
		if err != nil {
			return score, errors.Wrap(err, "Error reading score file")
		}
		if ext == ".json" {
			dec := json.NewDecoder(bytes.NewReader(dat))
			dec.DisallowUnknownFields()
			err = dec.Decode(&score)
		} else {
			err = yaml.Unmarshal(dat, &score)
		}
		if err != nil {
			return score, errors.Wrapf(err, "Error parsing %s", path)
		}
	default:
		return score, errors.Wrapf(ErrUnknownExtension, "%q", path)
	}

	if score.Name == "" {
		score.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := score.Normalize(); err != nil {
		return score, errors.Wrapf(err, "%s", path)
	}
	return score, nil
}

// GatherScorePaths walks dir for score files. A maxNum of zero means no
// limit.
func GatherScorePaths(dir string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsScorePath(s) {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, errors.Wrapf(err, "Error walking %s", dir)
	}
	return res, nil
}

func CreateFileNumMap(paths []string) model.FileNumToScorePath {
	res := make(model.FileNumToScorePath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}
