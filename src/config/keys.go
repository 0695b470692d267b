package config

const (
	ConfigFileKey      = "config-file"
	EnvFileKey         = "env-file"
	HTTPAddrKey        = "http-addr"
	LogLevelKey        = "log-level"
	SourceKey          = "source"
	ElasticURLKey      = "elastic-url"
	IndexKey           = "index"
	SchemaPathKey      = "schema-path"
	DataPathKey        = "data-path"
	TemplateDirKey     = "template-dir"
	KakaoRESTKeyKey    = "kakao-rest-key"
	KakaoJSKeyKey      = "kakao-js-key"
	KakaoBaseURLKey    = "kakao-base-url"
	KakaoRPSKey        = "kakao-rps"
	KakaoTimeoutKey    = "kakao-timeout"
	AddressCacheKey    = "address-cache-size"
	SampleSizeKey      = "sample-size"
	SearchRadiusKey    = "search-radius"
	PageSizeKey        = "page-size"
	ExhaustedPolicyKey = "exhausted-policy"
	SigningKeyKey      = "signing-key"
	UsersKey           = "users"
)
