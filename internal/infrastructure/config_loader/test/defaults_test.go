// Package loader_test 提供 config_loader 包 defaults 逻辑的黑盒测试。
package loader_test

import (
	"testing"
	"time"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
)

// TestBuild_AppliesDefaults 验证最小配置下的默认值填充。
func TestBuild_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "feed:\n  seed: 1\n")

	bundle, err := loader.Build(loader.Params{ConfPath: path})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	bc := bundle.Bootstrap

	if bc.Server.HTTP.Addr != "0.0.0.0:8000" {
		t.Errorf("expected default addr, got %s", bc.Server.HTTP.Addr)
	}
	if bc.Server.Handlers.Command.Std() != 5*time.Second || bc.Server.Handlers.Query.Std() != 3*time.Second {
		t.Errorf("unexpected handler timeouts %+v", bc.Server.Handlers)
	}
	if bc.Catalog.Source != "file" || bc.Catalog.FilePath != "configs/catalog.json" {
		t.Errorf("unexpected catalog defaults %+v", bc.Catalog)
	}
	if bc.Catalog.RefreshInterval.Std() != time.Minute {
		t.Errorf("unexpected refresh interval %v", bc.Catalog.RefreshInterval.Std())
	}
	if bc.Catalog.GCS.Breaker.ConsecutiveFailures != 3 {
		t.Errorf("unexpected breaker failures %d", bc.Catalog.GCS.Breaker.ConsecutiveFailures)
	}
	if bc.Feed.ShuffleWindow != 10 || bc.Feed.PersistTimeout.Std() != 3*time.Second {
		t.Errorf("unexpected feed defaults %+v", bc.Feed)
	}
	if bc.Messaging.Engagement.Enabled {
		t.Error("engagement publishing should default to disabled")
	}
	if bc.Messaging.Engagement.TopicID != "feed-engagement-events" || bc.Messaging.Engagement.BufferSize != 256 {
		t.Errorf("unexpected messaging defaults %+v", bc.Messaging.Engagement)
	}
	if bundle.TxConfig.DefaultIsolation != "read_committed" || bundle.TxConfig.DefaultTimeout != 3*time.Second {
		t.Errorf("unexpected tx defaults %+v", bundle.TxConfig)
	}
}

// TestServiceMetadataDefaults 验证未设置环境变量时的服务元信息。
func TestServiceMetadataDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "feed:\n  seed: 1\n")

	bundle, err := loader.Build(loader.Params{ConfPath: path})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	meta := bundle.Service
	if meta.Name != "lingo-services-feed" || meta.Version != "dev" || meta.Environment != "development" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.InstanceID == "" {
		t.Error("instance id should never be empty")
	}
	info := meta.ObservabilityInfo()
	if info.Name != meta.Name || info.Environment != meta.Environment {
		t.Errorf("unexpected observability info %+v", info)
	}
}

// TestDurationUnmarshal 验证字符串与整数形式的时长解析。
func TestDurationUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{`"1m30s"`, 90 * time.Second},
		{`1000000`, time.Millisecond},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tc := range cases {
		var d loader.Duration
		if err := d.UnmarshalJSON([]byte(tc.raw)); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if d.Std() != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.raw, tc.want, d.Std())
		}
	}
	var d loader.Duration
	if err := d.UnmarshalJSON([]byte(`"later"`)); err == nil {
		t.Error("expected error for invalid duration")
	}
}
