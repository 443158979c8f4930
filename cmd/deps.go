package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/analysis"
	"github.com/sells-group/coverage-cli/internal/columns"
	"github.com/sells-group/coverage-cli/internal/config"
	"github.com/sells-group/coverage-cli/internal/dataset"
	"github.com/sells-group/coverage-cli/internal/fetcher"
	"github.com/sells-group/coverage-cli/internal/objstore"
)

// env bundles what the analysis commands share.
type env struct {
	Loader *dataset.Loader
	Holder *dataset.Holder
	Engine *analysis.Engine
	S3     *objstore.Client
}

// initObjstore returns an S3 client, or nil when s3 is not configured.
func initObjstore(c *config.Config) (*objstore.Client, error) {
	if !c.S3.Enabled() {
		return nil, nil
	}
	return objstore.New(objstore.Options{
		Endpoint:  c.S3.Endpoint,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
		UseSSL:    c.S3.UseSSL,
		Region:    c.S3.Region,
	})
}

func initResolver(c *config.Config, s3 *objstore.Client) *fetcher.Resolver {
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
		RatePerSec: c.Fetch.RatePerSec,
	})
	ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
		Timeout: time.Duration(c.Fetch.TimeoutSecs) * time.Second,
	})
	breaker := fetcher.BreakerOptions{
		FailureThreshold: c.Fetch.BreakerThreshold,
		ResetTimeout:     time.Duration(c.Fetch.BreakerResetSecs) * time.Second,
	}
	guardedHTTP := fetcher.Guard(httpFetcher, breaker)
	fetchers := map[string]fetcher.Fetcher{
		"http":  guardedHTTP,
		"https": guardedHTTP,
		"ftp":   fetcher.Guard(ftpFetcher, breaker),
	}
	if s3 != nil {
		fetchers["s3"] = fetcher.Guard(s3, breaker)
	}
	return fetcher.NewResolver(c.Data.TempDir, fetchers)
}

func initLoader(c *config.Config, s3 *objstore.Client) (*dataset.Loader, error) {
	aliases, err := columns.LoadAliases(c.Columns.AliasesFile)
	if err != nil {
		return nil, err
	}
	return dataset.NewLoader(initResolver(c, s3), dataset.LoaderOptions{
		Workshops: dataset.Input{URI: c.Data.Workshops, Sheet: c.Data.WorkshopsSheet},
		Demand:    dataset.Input{URI: c.Data.Demand, Sheet: c.Data.DemandSheet},
		Delimiter: c.Data.DelimiterRune(),
		Index:     c.Coverage.Index,
		Aliases:   aliases,
	}), nil
}

// initEnv validates config for mode, loads the first snapshot and builds the
// engine. rec may be nil.
func initEnv(ctx context.Context, mode string, rec analysis.Recorder) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	s3, err := initObjstore(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "init object store")
	}
	loader, err := initLoader(cfg, s3)
	if err != nil {
		return nil, err
	}

	snap, err := loader.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load datasets")
	}
	zap.L().Info("datasets loaded",
		zap.String("version", snap.Version.String()),
		zap.Int("workshops", len(snap.Locations)),
		zap.Int("demand_points", len(snap.Demand)),
		zap.Int64("total_demand", snap.TotalDemand()),
	)

	holder := dataset.NewHolder(snap)
	engine := analysis.NewEngine(holder,
		analysis.NewResultCache(cfg.Coverage.CacheEntries, cfg.Coverage.CacheTTL()),
		analysis.Options{
			MaxRadiusKM:  cfg.Coverage.MaxRadiusKM,
			BubbleMinM:   cfg.Coverage.BubbleMinM,
			BubbleExtraM: cfg.Coverage.BubbleExtraM,
		}, rec)

	return &env{Loader: loader, Holder: holder, Engine: engine, S3: s3}, nil
}

// radiusFlag returns --radius when set, otherwise the configured default.
func radiusFlag(changed bool, v float64) float64 {
	if changed {
		return v
	}
	return cfg.Coverage.DefaultRadiusKM
}
