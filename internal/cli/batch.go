package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BatchFile is the YAML document accepted by -batch.
type BatchFile struct {
	Payments []dto.FormFields `yaml:"payments"`
}

// LoadBatch decodes a batch document. Unknown keys are rejected so typos
// in field names do not silently produce empty fields.
func LoadBatch(r io.Reader) ([]dto.FormFields, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc BatchFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	return doc.Payments, nil
}

// BatchResult is the outcome for one entry of a batch.
type BatchResult struct {
	Index  int
	Fields dto.FormFields
	File   string
	Err    error
}

// Batch renders many payment cards concurrently.
type Batch struct {
	Service Service
	OutDir  string
	Limit   int
	Log     *logrus.Logger
}

// Run exports every entry into OutDir. Entries that fail are reported in
// their result and skipped; only a canceled ctx stops the batch.
func (b *Batch) Run(ctx context.Context, entries []dto.FormFields) ([]BatchResult, error) {
	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]BatchResult, len(entries))
	names := newNameSet()

	g, gctx := errgroup.WithContext(ctx)
	if b.Limit > 0 {
		g.SetLimit(b.Limit)
	}

	for i, fields := range entries {
		i, fields := i, fields
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.runOne(gctx, i, fields, names)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *Batch) runOne(ctx context.Context, i int, fields dto.FormFields, names *nameSet) BatchResult {
	res := BatchResult{Index: i, Fields: fields}
	log := b.Log.WithFields(logrus.Fields{"entry": i, "payee": fields.PayeeID})

	exported, err := b.Service.Export(ctx, fields)
	if err != nil {
		log.WithError(err).Warn("batch entry skipped")
		res.Err = err
		return res
	}

	path := filepath.Join(b.OutDir, names.claim(exported.Filename))
	if err := os.WriteFile(path, exported.PNG, 0o644); err != nil {
		res.Err = fmt.Errorf("write card: %w", err)
		return res
	}

	log.WithField("file", path).Info("card written")
	res.File = path
	return res
}

// nameSet hands out unique file names; a repeated name gets a numeric
// suffix before its extension.
type nameSet struct {
	mu   sync.Mutex
	seen map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{seen: map[string]int{}}
}

func (n *nameSet) claim(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seen[name]++
	count := n.seen[name]
	if count == 1 {
		return name
	}

	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), count, ext)
}
