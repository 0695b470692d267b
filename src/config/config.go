// Package config reads service settings from flags, an optional config file,
// the environment and a .env file. Flags set on the command line win over the
// environment, which wins over the config file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"WhereToEat/src/cursor"
	"WhereToEat/src/kakao"
	"WhereToEat/src/sampler"
	"WhereToEat/src/types"
)

const envPrefix = "WHERETOEAT"

const (
	SourceKakao   = "kakao"
	SourceElastic = "elastic"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	Source      string
	ElasticURL  string
	Index       string
	SchemaPath  string
	DataPath    string
	TemplateDir string

	KakaoRESTKey     string
	KakaoJSKey       string
	KakaoBaseURL     string
	KakaoRPS         float64
	KakaoTimeout     time.Duration
	AddressCacheSize int

	SampleSize      int
	SearchRadius    int
	PageSize        int
	ExhaustedPolicy cursor.Policy

	SigningKey string
	Users      []string
}

func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("wheretoeat", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "Path to a config file (json, yaml or toml)")
	fs.String(EnvFileKey, ".env", "Path to a .env file with API keys, ignored when missing")
	fs.String(HTTPAddrKey, ":8888", "Address the HTTP server listens on")
	fs.String(LogLevelKey, "info", "Log level (debug, info, warn, error)")
	fs.String(SourceKey, SourceKakao, "Place source: kakao or elastic")
	fs.String(ElasticURLKey, "http://localhost:9200", "Elasticsearch URL")
	fs.String(IndexKey, "places", "Elasticsearch index holding places")
	fs.String(SchemaPathKey, "./src/templates/schema.json", "Index mapping used when creating the index")
	fs.String(DataPathKey, "", "Tab separated place dump loaded into the index on start")
	fs.String(TemplateDirKey, "./src/templates", "Directory with the HTML templates")
	fs.String(KakaoRESTKeyKey, "", "Kakao REST API key")
	fs.String(KakaoJSKeyKey, "", "Kakao JavaScript key used by the map SDK on result pages")
	fs.String(KakaoBaseURLKey, kakao.DefaultBaseURL, "Kakao API base URL")
	fs.Float64(KakaoRPSKey, 10, "Maximum Kakao API requests per second")
	fs.Duration(KakaoTimeoutKey, 10*time.Second, "Kakao API request timeout")
	fs.Int(AddressCacheKey, 256, "Number of address searches kept in memory")
	fs.Int(SampleSizeKey, sampler.DefaultSize, "Number of places drawn per shortlist")
	fs.Int(SearchRadiusKey, types.DefaultRadius, "Search radius around the chosen location in metres")
	fs.Int(PageSizeKey, types.DefaultSize, "Places requested per page")
	fs.String(ExhaustedPolicyKey, cursor.Wrap.String(), "What a re-draw does after the last page: wrap or stay")
	fs.String(SigningKeyKey, "", "HS256 key for API tokens")
	fs.StringSlice(UsersKey, nil, "API users as name:bcrypt-hash")
	return fs
}

// BuildViper parses args into fs and layers the config file and environment on top.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if err := loadEnvFile(v.GetString(EnvFileKey)); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The keys keep the names the browser app used.
	if err := v.BindEnv(KakaoRESTKeyKey, envPrefix+"_KAKAO_REST_KEY", "KAKAO_REST_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(KakaoJSKeyKey, envPrefix+"_KAKAO_JS_KEY", "KAKAO_JS_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(SigningKeyKey, envPrefix+"_SIGNING_KEY", "MY_SIGNING_KEY"); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) && v.GetString(ConfigFileKey) != "" {
		v.SetConfigFile(os.ExpandEnv(v.GetString(ConfigFileKey)))
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
	}
	return v, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "loading %s", path)
}

func GetConfig(v *viper.Viper) (Config, error) {
	policy, err := cursor.ParsePolicy(v.GetString(ExhaustedPolicyKey))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:         v.GetString(HTTPAddrKey),
		LogLevel:         v.GetString(LogLevelKey),
		Source:           strings.ToLower(v.GetString(SourceKey)),
		ElasticURL:       v.GetString(ElasticURLKey),
		Index:            v.GetString(IndexKey),
		SchemaPath:       os.ExpandEnv(v.GetString(SchemaPathKey)),
		DataPath:         os.ExpandEnv(v.GetString(DataPathKey)),
		TemplateDir:      os.ExpandEnv(v.GetString(TemplateDirKey)),
		KakaoRESTKey:     v.GetString(KakaoRESTKeyKey),
		KakaoJSKey:       v.GetString(KakaoJSKeyKey),
		KakaoBaseURL:     v.GetString(KakaoBaseURLKey),
		KakaoRPS:         v.GetFloat64(KakaoRPSKey),
		KakaoTimeout:     v.GetDuration(KakaoTimeoutKey),
		AddressCacheSize: v.GetInt(AddressCacheKey),
		SampleSize:       v.GetInt(SampleSizeKey),
		SearchRadius:     v.GetInt(SearchRadiusKey),
		PageSize:         v.GetInt(PageSizeKey),
		ExhaustedPolicy:  policy,
		SigningKey:       v.GetString(SigningKeyKey),
		Users:            v.GetStringSlice(UsersKey),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceKakao:
		if c.KakaoRESTKey == "" {
			return errors.Errorf("%s is required with --%s=%s", KakaoRESTKeyKey, SourceKey, SourceKakao)
		}
	case SourceElastic:
		if c.ElasticURL == "" {
			return errors.Errorf("%s is required with --%s=%s", ElasticURLKey, SourceKey, SourceElastic)
		}
	default:
		return errors.Errorf("unknown place source %q", c.Source)
	}
	if c.SampleSize < 1 {
		return errors.Errorf("%s must be positive, got %d", SampleSizeKey, c.SampleSize)
	}
	if c.SearchRadius < 0 || c.SearchRadius > 20000 {
		return errors.Errorf("%s must be within 0..20000, got %d", SearchRadiusKey, c.SearchRadius)
	}
	if c.PageSize < 1 || c.PageSize > 15 {
		return errors.Errorf("%s must be within 1..15, got %d", PageSizeKey, c.PageSize)
	}
	if c.KakaoRPS <= 0 {
		return errors.Errorf("%s must be positive", KakaoRPSKey)
	}
	return nil
}

// Parse is BuildFlagSet, BuildViper and GetConfig in one step.
func Parse(args []string) (Config, error) {
	v, err := BuildViper(BuildFlagSet(), args)
	if err != nil {
		return Config{}, err
	}
	return GetConfig(v)
}
