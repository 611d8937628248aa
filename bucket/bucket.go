package bucket

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/model"
	"github.com/ruimo/klavier-core-sub000/util"
)

var ErrNotFound = errors.New("performance not found")

var datFile = regexp.MustCompile("^[0-9a-fA-F]{8}-([0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}.dat$")

// header follows the chunk index in a performance file.
type header struct {
	Name     string
	Warnings []string
}

// Bucket keeps rendered performances as <id>.dat files in one directory.
type Bucket struct {
	dir string
}

func New(dir string) *Bucket {
	return &Bucket{dir: dir}
}

func (b *Bucket) Dir() string {
	return b.dir
}

func (b *Bucket) path(id string) string {
	return filepath.Join(b.dir, fmt.Sprintf("%v.dat", id))
}

// Put stores p under a fresh id unless it already has one and returns the
// stored performance.
func (b *Bucket) Put(p model.Performance) (model.Performance, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	} else if _, err := uuid.Parse(p.ID); err != nil {
		return p, errors.Wrapf(err, "invalid performance id %q", p.ID)
	}
	if err := util.EnsureDir(b.dir); err != nil {
		return p, err
	}

	filename := b.path(p.ID)
	err := writeFile(filename, func(w io.Writer) error {
		if err := chunk.WriteIndex(w, p.Index()); err != nil {
			return err
		}
		return gob.NewEncoder(w).Encode(header{Name: p.Name, Warnings: p.Warnings})
	})
	if err != nil {
		return p, err
	}
	log.Info("stored performance", "id", p.ID, "name", p.Name, "chunks", len(p.Chunks))
	return p, nil
}

// writeFile leaves no file behind when write or close fails.
func writeFile(filename string, write func(io.Writer) error) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "Could not create performance file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %s", filename)
		}
		if err != nil {
			if rerr := os.Remove(filename); rerr != nil {
				log.Warn("Could not remove partial performance file", "path", filename, "err", rerr)
			}
		}
	}()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return errors.Wrapf(err, "%s", filename)
	}
	return errors.Wrapf(w.Flush(), "%s", filename)
}

func (b *Bucket) Get(id string) (model.Performance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Performance{}, errors.Wrapf(ErrNotFound, "%q", id)
	}
	p, _, err := ReadPerformance(b.path(id))
	return p, err
}

// ReadPerformance reads one performance file and also returns the encoded
// size of its chunk index.
func ReadPerformance(path string) (model.Performance, uint32, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Performance{}, 0, errors.Wrapf(ErrNotFound, "%s", path)
	}
	if err != nil {
		return model.Performance{}, 0, errors.Wrap(err, "Could not open performance file")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	idx, indexLength, err := chunk.ReadIndex(r)
	if err != nil {
		return model.Performance{}, 0, errors.Wrapf(err, "%s", path)
	}
	var h header
	if err := gob.NewDecoder(r).Decode(&h); err != nil {
		return model.Performance{}, 0, errors.Wrapf(err, "%s", path)
	}

	id := filepath.Base(path)
	id = id[:len(id)-len(filepath.Ext(id))]
	return model.Performance{ID: id, Name: h.Name, Chunks: idx.Chunks(), Warnings: h.Warnings}, indexLength, nil
}

// Files lists the performance files in the bucket.
func (b *Bucket) Files() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, errors.Wrap(err, "Could not read dir")
	}
	var res []string
	for _, e := range entries {
		if !e.IsDir() && datFile.MatchString(e.Name()) {
			res = append(res, filepath.Join(b.dir, e.Name()))
		}
	}
	return res, nil
}

// List reads every stored performance. Unreadable files are skipped.
func (b *Bucket) List() ([]model.PerformanceOverview, error) {
	files, err := b.Files()
	if err != nil {
		return nil, err
	}
	res := make([]model.PerformanceOverview, 0, len(files))
	for _, path := range files {
		p, _, err := ReadPerformance(path)
		if err != nil {
			log.Warn("Skipping performance", "path", path, "err", err)
			continue
		}
		o := p.Overview()
		o.Filename = filepath.Base(path)
		res = append(res, o)
	}
	return res, nil
}

// WriteOverview snapshots List into the overview file.
func (b *Bucket) WriteOverview() ([]model.PerformanceOverview, error) {
	overviews, err := b.List()
	if err != nil {
		return nil, err
	}
	return overviews, util.CreateBinary(filepath.Join(b.dir, constants.OverviewFile), overviews)
}

func (b *Bucket) ReadOverview() ([]model.PerformanceOverview, error) {
	return util.ReadBinary[[]model.PerformanceOverview](filepath.Join(b.dir, constants.OverviewFile))
}

func (b *Bucket) DeleteAll() error {
	files, err := b.Files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return errors.Wrap(err, "Could not delete performance")
		}
	}
	return nil
}
