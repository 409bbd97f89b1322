// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（configs/{env}.yaml，如 dev.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	JWT_SECRET、MINIO_ROOT_USER/MINIO_ROOT_PASSWORD、
//	ADMIN_EMAIL/ADMIN_PASSWORD 均只从环境变量读取。
//
// 环境：
//   - 开发: APP_ENV=dev (默认) → configs/dev.yaml
//   - 生产: APP_ENV=prod → configs/prod.yaml
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig MongoDB 配置
type DatabaseConfig struct {
	URI  string `yaml:"uri"`  // 连接 URI，如 mongodb://localhost:27017
	Name string `yaml:"name"` // 数据库名称
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// AuthConfig 认证配置
// JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret        string `yaml:"-"`                  // 只从 JWT_SECRET 环境变量读取
	TokenTTL         string `yaml:"token_ttl"`          // 令牌有效期，例如 "720h"
	CookieExpireDays int    `yaml:"cookie_expire_days"` // token cookie 有效天数
	AdminEmail       string `yaml:"-"`                  // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword    string `yaml:"-"`                  // 只从 ADMIN_PASSWORD 环境变量读取
}

// Config 应用配置（启动时构建一次，之后不再修改）
type Config struct {
	Env              Environment
	APIPort          string
	MongoURI         string
	MongoDatabase    string
	MinIO            MinIOConfig
	JWTSecret        string
	TokenTTL         time.Duration
	CookieExpireDays int
	AdminEmail       string
	AdminPassword    string
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖，构建最终配置
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:              env,
		APIPort:          getEnv("PORT", defaultStr(yamlCfg.Server.Port, "5000")),
		MongoURI:         getEnv("MONGO_URI", defaultStr(yamlCfg.Database.URI, "mongodb://localhost:27017")),
		MongoDatabase:    getEnv("MONGO_DB", defaultStr(yamlCfg.Database.Name, "activities_admin")),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenTTL:         parseTTL(yamlCfg.Auth.TokenTTL, 30*24*time.Hour),
		CookieExpireDays: yamlCfg.Auth.CookieExpireDays,
		AdminEmail:       getEnv("ADMIN_EMAIL", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.CookieExpireDays <= 0 {
		cfg.CookieExpireDays = parseIntEnv("JWT_COOKIE_EXPIRE", 30)
	}

	cfg.MinIO = MinIOConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", defaultStr(yamlCfg.MinIO.Endpoint, "localhost:9000")),
		AccessKey: getEnv("MINIO_ROOT_USER", ""),
		SecretKey: getEnv("MINIO_ROOT_PASSWORD", ""),
		UseSSL:    yamlCfg.MinIO.UseSSL,
		Bucket:    defaultStr(yamlCfg.MinIO.Bucket, "activities-admin"),
	}

	return cfg
}

// String 打印配置摘要（不含任何凭据）
func (c *Config) String() string {
	return fmt.Sprintf("env=%s port=%s mongo=%s/%s minio=%s bucket=%s token_ttl=%s cookie_days=%d",
		c.Env, c.APIPort, c.MongoURI, c.MongoDatabase,
		c.MinIO.Endpoint, c.MinIO.Bucket, c.TokenTTL, c.CookieExpireDays)
}

func parseEnv(s string) Environment {
	switch s {
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// loadYAMLConfig 按环境加载 YAML 配置，找不到文件时返回零值（使用默认值）
func loadYAMLConfig(env Environment) YAMLConfig {
	var cfg YAMLConfig
	name := string(env) + ".yaml"

	for _, dir := range configPaths {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("WARNING: config: parse %s failed: %v", p, err)
			return YAMLConfig{}
		}
		return cfg
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
