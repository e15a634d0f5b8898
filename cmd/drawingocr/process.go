package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/KunalKalawant/Engineering-Drawing/annotate"
	"github.com/KunalKalawant/Engineering-Drawing/observability/prom"
	"github.com/KunalKalawant/Engineering-Drawing/observability/zlog"
	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/ocr/tesseract"
	"github.com/KunalKalawant/Engineering-Drawing/pagecache"
	"github.com/KunalKalawant/Engineering-Drawing/pipeline"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// runDocument processes the selected pages of a PDF and returns the
// recognized fields as annotation records, ballooned sequentially across
// pages. Pages that fail are logged and skipped.
func runDocument(ctx context.Context, cfg settings, path, pagesSpec string) ([]annotate.Record, error) {
	doc, err := raster.OpenDocument(path)
	if err != nil {
		return nil, err
	}
	pages, err := parsePages(pagesSpec, doc.PageCount())
	if err != nil {
		return nil, err
	}
	log.Info().Str("document", doc.Path()).Int("pages", len(pages)).Float64("dpi", cfg.DPI).Msg("processing document")

	logger := zlog.New(log.Logger)

	renderOpts := []raster.PdftoppmOption{raster.WithRenderLogger(logger)}
	if cfg.PdftoppmPath != "" {
		renderOpts = append(renderOpts, raster.WithBinary(cfg.PdftoppmPath))
	}
	if cfg.Preprocess {
		renderOpts = append(renderOpts, raster.WithPreprocess())
	}
	renderer := raster.NewPdftoppmRenderer(renderOpts...)

	engine := tesseract.New(ocr.Config{
		EnginePath:          cfg.EnginePath,
		Languages:           cfg.Languages,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Timeout:             cfg.Timeout,
	})

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, pipeline.WithMetrics(prom.New(prometheus.DefaultRegisterer)))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	proc := pipeline.New(renderer, engine, pagecache.New(cfg.CacheCapacity), opts...)
	defer proc.Close()

	go func() {
		for n := range proc.Notifications() {
			log.Debug().Int("page", n.Key.Page).Str("state", n.State.String()).Msg("page transition")
		}
	}()

	handles := make([]*pipeline.Handle, 0, len(pages))
	for _, page := range pages {
		h, err := proc.Request(ctx, doc, raster.PageKey{Page: page, DPI: cfg.DPI})
		if err != nil {
			return nil, fmt.Errorf("requesting page %d: %w", page, err)
		}
		handles = append(handles, h)
	}

	mapper := annotate.NewMapper()
	var records []annotate.Record
	for _, h := range handles {
		res, err := h.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Error().Err(err).Int("page", h.Key().Page).Msg("page failed")
			continue
		}
		records = append(records, mapper.Project(res, len(records)+1)...)
	}
	return records, nil
}

// parsePages expands a page selection like "all", "0,2", or "1-3" into
// zero-based page indices, validated against the document.
func parsePages(spec string, pageCount int) ([]int, error) {
	if spec == "" || spec == "all" {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i
		}
		return pages, nil
	}

	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			to, err := strconv.Atoi(hi)
			if err != nil || to < from {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := from; p <= to; p++ {
				pages = append(pages, p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		pages = append(pages, p)
	}

	for _, p := range pages {
		if p < 0 || p >= pageCount {
			return nil, fmt.Errorf("page %d out of range, document has %d pages", p, pageCount)
		}
	}
	return pages, nil
}
