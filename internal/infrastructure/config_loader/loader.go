// Package loader 负责加载服务配置：读取 YAML、应用默认值与环境变量覆盖、执行校验，
// 并派生服务元信息、可观测性与事务配置供 Wire 注入。
package loader

import (
	"flag"
	"fmt"
	"maps"
	"net"
	"os"
	"path/filepath"
	"strings"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	envConfPath       = "CONF_PATH"
	envServiceName    = "SERVICE_NAME"
	envServiceVersion = "SERVICE_VERSION"
	envAppEnv         = "APP_ENV"
	envDatabaseURL    = "DATABASE_URL"
	envPort           = "PORT"
	envCatalogBucket  = "CATALOG_GCS_BUCKET"
	envPubSubProject  = "PUBSUB_PROJECT_ID"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
}

// ServiceMetadata 保存服务标识信息，供日志和可观测性组件使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Bootstrap *Bootstrap
	ObsConfig obswire.ObservabilityConfig
	Service   ServiceMetadata
	TxConfig  txmanager.Config
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// ObservabilityInfo 将服务元信息转换为 observability.ServiceInfo。
func (m ServiceMetadata) ObservabilityInfo() obswire.ServiceInfo {
	return obswire.ServiceInfo{
		Name:        m.Name,
		Version:     m.Version,
		Environment: m.Environment,
	}
}

// ParseConfPath 解析命令行中的 -conf 参数。
func ParseConfPath(fs *flag.FlagSet, args []string) (string, error) {
	var confPath string
	fs.StringVar(&confPath, "conf", "", "config path, eg: -conf configs/config.yaml")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return confPath, nil
}

// Build 从配置文件构建 Bundle。
//
// 流程：
// 1. 解析配置路径并加载 .env 文件
// 2. 读取 YAML，填充默认值，应用环境变量覆盖
// 3. 使用 validator 校验
// 4. 推导服务元信息、可观测性与事务配置
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	bootstrap, err := loadBootstrap(confPath)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Bootstrap: bootstrap,
		ObsConfig: toObservabilityConfig(bootstrap.Observability),
		Service:   buildServiceMetadata(),
		TxConfig:  toTxManagerConfig(bootstrap.Data.Postgres.Transaction),
	}, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// loadBootstrap 从指定路径加载并校验 Bootstrap 配置。
//
// 错误阶段：
//   - "load": 文件读取失败
//   - "scan": YAML/JSON 解析失败
//   - "validate": 字段约束不满足
func loadBootstrap(confPath string) (*Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	applyDefaults(&bc)
	applyEnvOverrides(&bc)

	if err := validator.New().Struct(&bc); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return &bc, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的特定字段，环境变量为空时保留原值。
//
// 支持的环境变量：
//   - DATABASE_URL: 覆盖 data.postgres.dsn
//   - PORT: 覆盖 server.http.addr 的端口部分（保留 host），用于 Cloud Run
//   - CATALOG_GCS_BUCKET: 覆盖 catalog.gcs.bucket
//   - PUBSUB_PROJECT_ID: 覆盖 messaging.engagement.project_id
func applyEnvOverrides(bc *Bootstrap) {
	if bc == nil {
		return
	}
	if dsn := os.Getenv(envDatabaseURL); dsn != "" {
		bc.Data.Postgres.DSN = dsn
	}
	if port := os.Getenv(envPort); port != "" {
		bc.Server.HTTP.Addr = replacePort(bc.Server.HTTP.Addr, port)
	}
	if bucket := os.Getenv(envCatalogBucket); bucket != "" {
		bc.Catalog.GCS.Bucket = bucket
	}
	if project := os.Getenv(envPubSubProject); project != "" {
		bc.Messaging.Engagement.ProjectID = project
	}
}

// buildServiceMetadata 构建服务元信息。
// 数据来源：环境变量 SERVICE_NAME、SERVICE_VERSION、APP_ENV，缺省时使用默认值。
func buildServiceMetadata() ServiceMetadata {
	host, _ := os.Hostname()
	return ServiceMetadata{
		Name:        firstNonEmpty(os.Getenv(envServiceName), defaultServiceName),
		Version:     firstNonEmpty(os.Getenv(envServiceVersion), defaultServiceVersion),
		Environment: firstNonEmpty(os.Getenv(envAppEnv), defaultEnvironment),
		InstanceID:  firstNonEmpty(host, "unknown"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略以保持幂等。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 按目录优先级返回存在的 .env 文件。
// .env.local 优先于 .env；godotenv 不会覆盖已设置的变量，因此先出现者生效。
func envFileCandidates(confPath string) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, dir := range orderedDirs(confPath) {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			files = append(files, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return files
}

// orderedDirs 返回搜索 .env 的目录：confPath 所在目录优先，其次当前工作目录。
func orderedDirs(confPath string) []string {
	var dirs []string
	appendUnique := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		for _, existing := range dirs {
			if existing == clean {
				return
			}
		}
		dirs = append(dirs, clean)
	}

	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			if info.IsDir() {
				appendUnique(confPath)
			} else {
				appendUnique(filepath.Dir(confPath))
			}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		appendUnique(cwd)
	}
	return dirs
}

// toObservabilityConfig 将配置转换为 observability 包的规范化结构。
// 本服务只暴露 HTTP，gRPC 指标始终关闭。
func toObservabilityConfig(src Observability) obswire.ObservabilityConfig {
	cfg := obswire.ObservabilityConfig{
		GlobalAttributes: cloneStringMap(src.GlobalAttributes),
	}
	if tr := src.Tracing; tr != nil {
		cfg.Tracing = &obswire.TracingConfig{
			Enabled:            tr.Enabled,
			Exporter:           tr.Exporter,
			Endpoint:           tr.Endpoint,
			Headers:            cloneStringMap(tr.Headers),
			Insecure:           tr.Insecure,
			SamplingRatio:      tr.SamplingRatio,
			BatchTimeout:       tr.BatchTimeout.Std(),
			ExportTimeout:      tr.ExportTimeout.Std(),
			MaxQueueSize:       tr.MaxQueueSize,
			MaxExportBatchSize: tr.MaxExportBatchSize,
			Required:           tr.Required,
		}
	}
	if mt := src.Metrics; mt != nil {
		cfg.Metrics = &obswire.MetricsConfig{
			Enabled:             mt.Enabled,
			Exporter:            mt.Exporter,
			Endpoint:            mt.Endpoint,
			Headers:             cloneStringMap(mt.Headers),
			Insecure:            mt.Insecure,
			Interval:            mt.Interval.Std(),
			DisableRuntimeStats: mt.DisableRuntimeStats,
			Required:            mt.Required,
			GRPCEnabled:         false,
			GRPCIncludeHealth:   false,
		}
	}
	return cfg
}

// cloneStringMap 深拷贝字符串映射，源为空时返回 nil。
func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

// replacePort 替换地址中的端口部分，保留 host。
//   - "0.0.0.0:8000" -> "0.0.0.0:8080"
//   - "[::1]:8000" -> "[::1]:8080"
func replacePort(addr, newPort string) string {
	if addr == "" {
		return "0.0.0.0:" + newPort
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0:" + newPort
	}
	return net.JoinHostPort(host, newPort)
}

func toTxManagerConfig(tx Transaction) txmanager.Config {
	cfg := txmanager.Config{
		DefaultIsolation: tx.DefaultIsolation,
		DefaultTimeout:   tx.DefaultTimeout.Std(),
		LockTimeout:      tx.LockTimeout.Std(),
		MaxRetries:       tx.MaxRetries,
	}
	if tx.MetricsEnabled != nil {
		v := *tx.MetricsEnabled
		cfg.MetricsEnabled = &v
	}
	return cfg
}
