// Package fastembed embeds questions and passages with a local ONNX model,
// keeping retrieval available without any remote service.
package fastembed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	fastembedgo "github.com/anush008/fastembed-go"
)

const DefaultModel = "all-MiniLM-L6-v2"

type Options struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}

// Provider runs the embedding model in process. Questions and passages go
// through the same model so their vectors live in one similarity space.
type Provider struct {
	model     *fastembedgo.FlagEmbedding
	name      string
	dimension int
	batchSize int

	mu sync.RWMutex
}

var models = map[string]fastembedgo.EmbeddingModel{
	"all-MiniLM-L6-v2":                       fastembedgo.AllMiniLML6V2,
	"sentence-transformers/all-MiniLM-L6-v2": fastembedgo.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembedgo.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembedgo.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembedgo.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembedgo.BGEBaseEN,
}

var dimensions = map[fastembedgo.EmbeddingModel]int{
	fastembedgo.AllMiniLML6V2: 384,
	fastembedgo.BGESmallENV15: 384,
	fastembedgo.BGESmallEN:    384,
	fastembedgo.BGEBaseENV15:  768,
	fastembedgo.BGEBaseEN:     768,
}

func New(opts Options) (*Provider, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.CacheDir == "" {
		opts.CacheDir = "local_cache"
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 512
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 256
	}

	model, dimension, err := resolveModel(opts.Model)
	if err != nil {
		return nil, err
	}

	showProgress := false
	flagEmbed, err := fastembedgo.NewFlagEmbedding(&fastembedgo.InitOptions{
		Model:                model,
		CacheDir:             opts.CacheDir,
		MaxLength:            opts.MaxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding model %s: %w", opts.Model, err)
	}

	return &Provider{
		model:     flagEmbed,
		name:      opts.Model,
		dimension: dimension,
		batchSize: opts.BatchSize,
	}, nil
}

func resolveModel(name string) (fastembedgo.EmbeddingModel, int, error) {
	if model, ok := models[name]; ok {
		return model, dimensions[model], nil
	}
	// Accept native fastembed model names too.
	model := fastembedgo.EmbeddingModel(name)
	if dimension, known := dimensions[model]; known {
		return model, dimension, nil
	}
	supported := make([]string, 0, len(models))
	for alias := range models {
		supported = append(supported, alias)
	}
	return "", 0, fmt.Errorf("unsupported embedding model %q (supported: %s)", name, strings.Join(supported, ", "))
}

// EmbedQuery embeds one question. The model prefixes "query: " itself.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed query: empty text")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return nil, fmt.Errorf("embed query: provider closed")
	}

	vector, err := p.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}

// EmbedPassages embeds corpus passages in batches. The model prefixes
// "passage: " itself.
func (p *Provider) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return nil, fmt.Errorf("embed passages: provider closed")
	}

	vectors, err := p.model.PassageEmbed(texts, p.batchSize)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed passages: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (p *Provider) ModelName() string { return p.name }

// Dimension reports the vector size of the loaded model.
func (p *Provider) Dimension() int { return p.dimension }

// Close releases the ONNX session. The provider is unusable afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Destroy()
	p.model = nil
	return err
}
