// Package gateway exposes upload, URL, existence, removal and listing
// operations over a single configured bucket and key prefix.
package gateway

import (
	"context"
	"errors"
	"iter"
	"os"
	"strings"
	"time"

	"bucketgate/internal/config"
	"bucketgate/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

const defaultContentType = "application/octet-stream"

var (
	ErrBlankName              = errors.New("object name is blank")
	ErrPublicEndpointRequired = errors.New("public_endpoint is not configured")
)

type UploadOptions struct {
	Public  bool
	Replace bool
}

// UploadResult describes a finished upload. Skipped is set when the key
// already existed and Replace was false; URL is then empty and nothing was
// written.
type UploadResult struct {
	Key     string
	URL     string
	Public  bool
	Skipped bool
}

type Gateway struct {
	backend        storage.Backend
	prefix         string
	publicEndpoint string
	presignExpiry  time.Duration
	listScope      string
	listMaxKeys    int32
	log            zerolog.Logger
	contentType    func(path string) string
}

// Open builds the backend named by cfg.Driver and wraps it in a Gateway.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (*Gateway, error) {
	backend, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, backend, log)
}

func New(cfg config.StoreConfig, backend storage.Backend, log zerolog.Logger) (*Gateway, error) {
	if backend == nil {
		return nil, errors.New("storage backend is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Gateway{
		backend:        backend,
		prefix:         cfg.Prefix,
		publicEndpoint: cfg.PublicEndpoint,
		presignExpiry:  cfg.PresignExpiry,
		listScope:      cfg.ListScope,
		listMaxKeys:    cfg.ListMaxKeys,
		log:            log.With().Str("component", "gateway").Logger(),
		contentType:    detectContentType,
	}, nil
}

// Key returns the storage key for name. No validation is applied.
func (g *Gateway) Key(name string) string {
	return g.prefix + name
}

func (g *Gateway) Upload(ctx context.Context, name, path string, opts UploadOptions) (UploadResult, error) {
	key := g.Key(name)
	log := g.log.With().
		Str("op", "upload").
		Str("name", name).
		Str("path", path).
		Bool("public", opts.Public).
		Logger()
	result := UploadResult{Key: key, Public: opts.Public}

	if opts.Public && g.publicEndpoint == "" {
		err := &storage.Error{Op: "upload", Key: key, Kind: storage.KindInvalid, Err: ErrPublicEndpointRequired}
		log.Error().Err(err).Msg("upload rejected")
		return result, err
	}

	exists, err := g.backend.Exists(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("kind", storage.KindOf(err).String()).Msg("existence check failed")
		return result, err
	}
	if exists && !opts.Replace {
		log.Info().Msg("object exists, upload skipped")
		result.Skipped = true
		return result, nil
	}

	f, err := os.Open(path)
	if err != nil {
		err = &storage.Error{Op: "open file", Key: path, Kind: storage.KindInvalid, Err: err}
		log.Error().Err(err).Msg("upload failed")
		return result, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		err = &storage.Error{Op: "stat file", Key: path, Kind: storage.KindInvalid, Err: err}
		log.Error().Err(err).Msg("upload failed")
		return result, err
	}

	acl := storage.ACLPrivate
	if opts.Public {
		acl = storage.ACLPublicRead
	}
	err = g.backend.Put(ctx, storage.PutInput{
		Key:           key,
		Body:          f,
		ContentLength: info.Size(),
		ContentType:   g.contentType(path),
		ACL:           acl,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", storage.KindOf(err).String()).Msg("upload failed")
		return result, err
	}
	log.Info().Int64("size", info.Size()).Msg("uploaded")

	if opts.Public {
		result.URL = g.publicEndpoint + key
		return result, nil
	}

	url, err := g.URL(ctx, name)
	if err != nil {
		return result, err
	}
	result.URL = url
	return result, nil
}

// URL returns a presigned GET URL for name, valid for the configured
// presign expiry.
func (g *Gateway) URL(ctx context.Context, name string) (string, error) {
	key := g.Key(name)
	url, err := g.backend.PresignGet(ctx, key, g.presignExpiry)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("op", "url").
			Str("name", name).
			Str("kind", storage.KindOf(err).String()).
			Msg("presign failed")
		return "", err
	}
	g.log.Info().Str("op", "url").Str("name", name).Dur("expires", g.presignExpiry).Msg("presigned")
	return url, nil
}

func (g *Gateway) Exists(ctx context.Context, name string) (bool, error) {
	g.log.Debug().Str("op", "exists").Str("name", name).Msg("checking object")
	exists, err := g.backend.Exists(ctx, g.Key(name))
	if err != nil {
		g.log.Error().
			Err(err).
			Str("op", "exists").
			Str("name", name).
			Str("kind", storage.KindOf(err).String()).
			Msg("existence check failed")
		return false, err
	}
	return exists, nil
}

// Remove deletes name after confirming it exists. It reports false with a
// nil error when there was nothing to delete.
func (g *Gateway) Remove(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, &storage.Error{Op: "remove", Kind: storage.KindInvalid, Err: ErrBlankName}
	}
	log := g.log.With().Str("op", "remove").Str("name", name).Logger()

	exists, err := g.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if !exists {
		log.Info().Msg("object not found, nothing removed")
		return false, nil
	}

	if err := g.backend.Delete(ctx, g.Key(name)); err != nil {
		log.Error().Err(err).Str("kind", storage.KindOf(err).String()).Msg("remove failed")
		return false, err
	}
	log.Info().Msg("removed")
	return true, nil
}

// List returns a single page of keys. With list_scope "bucket" the whole
// bucket is listed regardless of the configured prefix.
func (g *Gateway) List(ctx context.Context) ([]string, error) {
	page, err := g.backend.List(ctx, storage.ListInput{
		Prefix:  g.listPrefix(),
		MaxKeys: g.listMaxKeys,
	})
	if err != nil {
		g.log.Error().Err(err).Str("op", "list").Str("kind", storage.KindOf(err).String()).Msg("list failed")
		return nil, err
	}
	g.log.Info().Str("op", "list").Int("count", len(page.Keys)).Bool("truncated", page.Truncated).Msg("listed")
	return page.Keys, nil
}

// Objects yields every key in scope, fetching pages lazily. Each range over
// the returned sequence starts again from the first page. A failed page
// yields its error once and ends the sequence.
func (g *Gateway) Objects(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		token := ""
		for {
			page, err := g.backend.List(ctx, storage.ListInput{
				Prefix:            g.listPrefix(),
				ContinuationToken: token,
				MaxKeys:           g.listMaxKeys,
			})
			if err != nil {
				g.log.Error().Err(err).Str("op", "objects").Str("kind", storage.KindOf(err).String()).Msg("list page failed")
				yield("", err)
				return
			}
			for _, key := range page.Keys {
				if !yield(key, nil) {
					return
				}
			}
			if !page.Truncated || page.NextToken == "" {
				return
			}
			token = page.NextToken
		}
	}
}

func (g *Gateway) listPrefix() string {
	if g.listScope == config.ListScopePrefix {
		return g.prefix
	}
	return ""
}

func detectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return defaultContentType
	}
	return mt.String()
}
