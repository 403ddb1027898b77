// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package slidevault

import (
	"context"
	"log/slog"

	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/ai/openai"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/gate"
	"github.com/poiesic/slidevault/index"
	"github.com/poiesic/slidevault/ingestion"
	"github.com/poiesic/slidevault/redaction"
	"github.com/poiesic/slidevault/search"
	"github.com/poiesic/slidevault/storage"
	"github.com/poiesic/slidevault/storage/badger"
)

// Vault owns the storage backend, the in-memory index, and the governance
// components, wired together over one badger database. The index is rebuilt
// from the store on open, so a Vault is searchable as soon as Open returns.
type Vault struct {
	backend    *badger.Backend
	slideRepo  storage.SlideRepository
	grantRepo  storage.GrantRepository
	auditLog   storage.AuditLog
	idx        *index.Index
	accessGate *gate.Gate
	engine     *redaction.Engine
	provider   ai.AIProvider
	logger     *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) VaultOption {
	return func(o *vaultOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithAIProvider injects a ready-made provider instead of constructing the
// OpenAI-compatible one. Used in tests with the mock provider.
func WithAIProvider(provider ai.AIProvider) VaultOption {
	return func(o *vaultOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory. Used in tests.
func WithInMemoryStorage() VaultOption {
	return func(o *vaultOptions) {
		o.inMemory = true
	}
}

// WithVaultLogger sets a custom logger.
// Default is slog.Default().
func WithVaultLogger(logger *slog.Logger) VaultOption {
	return func(o *vaultOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens or creates a vault at filePath and rebuilds the search index
// from the stored records.
func Open(filePath string, opts ...VaultOption) (*Vault, error) {
	options := &vaultOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	slideRepo := badger.NewSlideRepository(backend)
	grantRepo := badger.NewGrantRepository(backend)

	auditLog, err := badger.NewAuditLog(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	idx := index.New(index.WithLogger(options.logger))

	accessGate, err := gate.NewGate(grantRepo, auditLog, gate.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	engine, err := redaction.NewEngine(slideRepo, accessGate, auditLog, redaction.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	v := &Vault{
		backend:    backend,
		slideRepo:  slideRepo,
		grantRepo:  grantRepo,
		auditLog:   auditLog,
		idx:        idx,
		accessGate: accessGate,
		engine:     engine,
		provider:   provider,
		logger:     options.logger,
	}

	if err := v.rebuildIndex(context.Background()); err != nil {
		v.Close()
		return nil, err
	}

	return v, nil
}

// rebuildIndex loads every indexable stored record into the in-memory index.
// Records without a summary or embedding are skipped, matching ingestion's
// fail-closed rule.
func (v *Vault) rebuildIndex(ctx context.Context) error {
	count := 0
	err := v.slideRepo.ForEachSlideRecord(ctx, func(record *core.SlideRecord) error {
		if !record.Indexable() {
			return nil
		}
		if err := v.idx.Upsert(record); err != nil {
			v.logger.Warn("stored record not indexable", "slideId", record.Id, "err", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Info("search index rebuilt", "records", count)
	return nil
}

// Close releases the vault's resources.
func (v *Vault) Close() error {
	if err := v.provider.Close(); err != nil {
		v.logger.Error("error closing AI provider", "err", err)
	}

	if err := v.auditLog.Close(); err != nil {
		v.logger.Error("error closing audit log", "err", err)
		return err
	}
	if err := v.grantRepo.Close(); err != nil {
		v.logger.Error("error closing grant repository", "err", err)
		return err
	}
	if err := v.slideRepo.Close(); err != nil {
		v.logger.Error("error closing slide repository", "err", err)
		return err
	}

	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// SlideRepository exposes the slide store.
func (v *Vault) SlideRepository() storage.SlideRepository {
	return v.slideRepo
}

// GrantRepository exposes the grant and request store.
func (v *Vault) GrantRepository() storage.GrantRepository {
	return v.grantRepo
}

// AuditLog exposes the append-only audit log.
func (v *Vault) AuditLog() storage.AuditLog {
	return v.auditLog
}

// Index exposes the in-memory search index.
func (v *Vault) Index() *index.Index {
	return v.idx
}

// Gate exposes the access gate.
func (v *Vault) Gate() *gate.Gate {
	return v.accessGate
}

// NewIngestionPipeline builds a pipeline writing into this vault's store and
// index.
func (v *Vault) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(v.slideRepo, v.idx, v.provider, opts...)
}

// NewSearcher builds a searcher over this vault's index and store.
func (v *Vault) NewSearcher(weight float64, opts ...search.Option) (*search.Searcher, error) {
	ranker, err := search.NewRanker(v.idx, search.WithWeight(weight))
	if err != nil {
		return nil, err
	}
	return search.NewSearcher(v.slideRepo, ranker, v.provider, v.engine, v.auditLog, opts...)
}
