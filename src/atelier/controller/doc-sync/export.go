package docsync

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (c *controller) Export(ctx context.Context, req entity.ExportRequest) (*entity.ExportSummary, error) {
	if req.ConnectionKey == "" {
		return nil, errors.NoConnectionKeyError
	}
	if req.Root == "" {
		return nil, errors.New("export root is required")
	}

	client, err := c.connections.Client(ctx, req.ConnectionKey)
	if err != nil {
		return nil, err
	}

	names, err := client.GetDocNames(ctx, entity.DocNamesQuery{
		Category:  req.Category,
		Generated: req.Generated,
		Filter:    req.Filter,
	})
	if err != nil {
		return nil, err
	}

	noStorage := c.settings.NoStorage
	if req.NoStorage != nil {
		noStorage = *req.NoStorage
	}
	addCategory := c.settings.AddCategory
	if req.AddCategory != nil {
		addCategory = *req.AddCategory
	}
	limit := c.settings.ExportConcurrency
	if req.Concurrency > 0 {
		limit = req.Concurrency
	}

	var (
		mu      sync.Mutex
		summary = &entity.ExportSummary{Root: req.Root, Exported: []string{}, Failed: []entity.ExportFailure{}, AddCategory: addCategory}
		errs    error
	)

	g := errgroup.Group{}
	g.SetLimit(limit)
	for _, doc := range names {
		if !req.IncludeSystem && entity.IsSystem(doc.Name) {
			continue
		}
		name := doc.Name
		g.Go(func() error {
			err := c.exportOne(ctx, client, req.Root, name, noStorage, addCategory)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed = append(summary.Failed, entity.ExportFailure{Name: name, Error: err.Error()})
				errs = multierr.Append(errs, &errors.ExportError{Name: name, Err: err})
				return nil
			}
			summary.Exported = append(summary.Exported, name)
			return nil
		})
	}
	// Workers never return errors, so that one bad document doesn't stop the batch.
	_ = g.Wait()

	sort.Strings(summary.Exported)
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Name < summary.Failed[j].Name })
	c.stats.Counter("exported").Inc(int64(len(summary.Exported)))
	c.stats.Counter("export_failures").Inc(int64(len(summary.Failed)))

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	c.writeExportOutput(ctx, summary)
	if errs != nil {
		c.notify(ctx, fmt.Sprintf("Export to %s failed for %d of %d documents, see the output channel for details.", req.Root, len(summary.Failed), len(summary.Failed)+len(summary.Exported)))
		c.logger.Warnw("export finished with failures", "root", req.Root, "exported", len(summary.Exported), "failed", len(summary.Failed), zap.Error(errs))
	} else {
		c.logger.Infow("export finished", "root", req.Root, "exported", len(summary.Exported))
	}
	return summary, errs
}

func (c *controller) exportOne(ctx context.Context, client atelier.Client, root, name string, noStorage, addCategory bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := client.GetDoc(ctx, name, entity.GetDocOptions{})
	if err != nil {
		return err
	}
	data, err := c.documentBytes(ctx, client, doc, noStorage)
	if err != nil {
		return err
	}
	return c.write(mapper.DocumentPath(root, name, addCategory), data)
}

func (c *controller) writeExportOutput(ctx context.Context, summary *entity.ExportSummary) {
	w := c.outputWriter(ctx, "export")
	lines := []string{fmt.Sprintf("exported %d documents to %s", len(summary.Exported), summary.Root)}
	for _, f := range summary.Failed {
		lines = append(lines, fmt.Sprintf("failed to export %s: %s", f.Name, f.Error))
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			c.logger.Warnw("writing export output", zap.Error(err))
			return
		}
	}
}
