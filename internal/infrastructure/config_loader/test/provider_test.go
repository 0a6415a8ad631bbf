package loader_test

import (
	"testing"
	"time"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
)

// TestProviders 验证各 Provide 函数从 Bundle 中取出对应片段。
func TestProviders(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), sampleConfig)
	bundle, err := loader.Build(loader.Params{ConfPath: path})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	bc := loader.ProvideBootstrap(bundle)
	if bc != bundle.Bootstrap {
		t.Fatal("ProvideBootstrap should return the bundle bootstrap")
	}
	if got := loader.ProvideServerConfig(bc).HTTP.Addr; got != "0.0.0.0:9000" {
		t.Errorf("server addr: %s", got)
	}
	if got := loader.ProvidePostgresConfig(loader.ProvideDataConfig(bc)).Schema; got != "feed" {
		t.Errorf("postgres schema: %s", got)
	}
	if got := loader.ProvideCatalogConfig(bc).GCS.Object; got != "catalog.json" {
		t.Errorf("catalog object: %s", got)
	}
	if got := loader.ProvideMessagingConfig(bc).Engagement.TopicID; got != "engagement" {
		t.Errorf("topic: %s", got)
	}

	reg := loader.ProvideRegistryConfig(bc)
	if reg.Seed != 42 || reg.ShuffleWindow != 5 || reg.PersistTimeout != 3*time.Second {
		t.Errorf("unexpected registry config %+v", reg)
	}

	meta := loader.ProvideServiceMetadata(bundle)
	if loader.ProvideObservabilityInfo(meta).Name != meta.Name {
		t.Error("observability info should carry the service name")
	}
	if loader.ProvideObservabilityConfig(bundle).Tracing == nil {
		t.Error("tracing config should be populated")
	}
	if loader.ProvideTxConfig(bundle).MaxRetries != 2 {
		t.Error("tx config should carry max retries")
	}
}

// TestProvidersNilBundle 验证 nil Bundle 时返回零值而非 panic。
func TestProvidersNilBundle(t *testing.T) {
	if bc := loader.ProvideBootstrap(nil); bc == nil {
		t.Fatal("expected empty bootstrap")
	}
	if meta := loader.ProvideServiceMetadata(nil); meta.Name != "" {
		t.Errorf("expected empty metadata, got %+v", meta)
	}
	if cfg := loader.ProvideTxConfig(nil); cfg.MaxRetries != 0 {
		t.Errorf("expected zero tx config, got %+v", cfg)
	}
}
