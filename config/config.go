package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "ADMIN_CONFIG_FILE"
	defaultConfigFile = "/config.yaml"
	envPrefix         = "ADMIN"
)

type httpServer struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type blob struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	ListTTL  time.Duration `mapstructure:"list_ttl"`
}

type auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	ProductEventsTopic string    `mapstructure:"product_events_topic"`
	ImageJanitorGroup  string    `mapstructure:"image_janitor_group"`
	User               string    `mapstructure:"user"`
	Pass               string    `mapstructure:"pass"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type startup struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type Config struct {
	LogLevel slog.Level `mapstructure:"log_level"`
	HTTP     httpServer `mapstructure:"http"`
	SQLDB    string     `mapstructure:"sql_db"`
	Blob     blob       `mapstructure:"blob"`
	Redis    redis      `mapstructure:"redis"`
	Auth     auth       `mapstructure:"auth"`
	Broker   broker     `mapstructure:"broker"`
	Startup  startup    `mapstructure:"startup"`
}

// CacheEnabled reports whether the listing cache is configured.
func (c Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

// EventsEnabled reports whether product events are configured.
func (c Config) EventsEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

func (c Config) BrokerTLSEnabled() bool {
	return c.Broker.TLS.CA != ""
}

var defaults = map[string]any{
	"log_level":                   "info",
	"http.addr":                   ":8080",
	"http.request_timeout":        "30s",
	"http.allowed_origins":        []string{},
	"sql_db":                      "",
	"blob.endpoint":               "",
	"blob.access_key":             "",
	"blob.secret_key":             "",
	"blob.bucket":                 "",
	"blob.use_ssl":                true,
	"blob.public_url":             "",
	"blob.key_prefix":             "products",
	"redis.addr":                  "",
	"redis.password":              "",
	"redis.db":                    0,
	"redis.list_ttl":              "5m",
	"auth.jwt_secret":             "",
	"broker.seed_brokers":         []string{},
	"broker.schema_registry_urls": []string{},
	"broker.product_events_topic": "product-events",
	"broker.image_janitor_group":  "image-janitor",
	"broker.user":                 "",
	"broker.pass":                 "",
	"broker.tls.ca":               "",
	"broker.tls.cert":             "",
	"broker.tls.key":              "",
	"startup.attempts":            5,
	"startup.delay":               "500ms",
}

// Load reads .env, the config file and ADMIN_* environment variables.
// Any failure stops the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		die(err)
	}

	path, explicit := getConfigFilepath()
	cfg, err := LoadFile(path, !explicit)
	if err != nil {
		die(err)
	}

	if err := cfg.Validate(); err != nil {
		die(err)
	}
	return cfg
}

// LoadFile builds the config from path and the environment. When optional
// is set a missing file is not an error.
func LoadFile(path string, optional bool) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var errs []error

	required := func(name, value string, sentinel error) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", name, sentinel))
		}
	}

	errRequired := errors.New("required")

	required("sql_db", c.SQLDB, errRequired)
	required("blob.endpoint", c.Blob.Endpoint, errRequired)
	required("blob.bucket", c.Blob.Bucket, domain.ErrMissingCredential)
	required("blob.access_key", c.Blob.AccessKey, domain.ErrMissingCredential)
	required("blob.secret_key", c.Blob.SecretKey, domain.ErrMissingCredential)

	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http.request_timeout: must be positive"))
	}
	if c.Startup.Attempts < 1 {
		errs = append(errs, errors.New("startup.attempts: must be at least 1"))
	}
	if c.Startup.Delay <= 0 {
		errs = append(errs, errors.New("startup.delay: must be positive"))
	}

	if c.EventsEnabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, fmt.Errorf("broker.schema_registry_urls: %w", errRequired))
		}
		required("broker.product_events_topic", c.Broker.ProductEventsTopic, errRequired)
		required("broker.image_janitor_group", c.Broker.ImageJanitorGroup, errRequired)
		if c.BrokerTLSEnabled() {
			required("broker.tls.cert", c.Broker.TLS.Cert, errRequired)
			required("broker.tls.key", c.Broker.TLS.Key, errRequired)
		}
	}

	return errors.Join(errs...)
}

func getConfigFilepath() (path string, explicit bool) {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", defaultConfigFile, "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, true
	}
	return *arg, cmdLine.Changed("config")
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	SQLDB=%q

	HTTP:
	Addr=%q
	RequestTimeout=%q
	AllowedOrigins=%q
	JWTSecret=%q

	Blob:
	Endpoint=%q
	Bucket=%q
	AccessKey=%q
	SecretKey=%q
	UseSSL=%t
	PublicURL=%q
	KeyPrefix=%q

	Redis:
	Addr=%q
	Password=%q
	DB=%d
	ListTTL=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	ProductEventsTopic=%q
	ImageJanitorGroup=%q
	User=%q
	Pass=%q
	TLSCA=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		maskDSN(c.SQLDB),
		c.HTTP.Addr,
		c.HTTP.RequestTimeout,
		c.HTTP.AllowedOrigins,
		mask(c.Auth.JWTSecret),
		c.Blob.Endpoint,
		c.Blob.Bucket,
		mask(c.Blob.AccessKey),
		mask(c.Blob.SecretKey),
		c.Blob.UseSSL,
		c.Blob.PublicURL,
		c.Blob.KeyPrefix,
		c.Redis.Addr,
		mask(c.Redis.Password),
		c.Redis.DB,
		c.Redis.ListTTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.ProductEventsTopic,
		c.Broker.ImageJanitorGroup,
		c.Broker.User,
		mask(c.Broker.Pass),
		c.Broker.TLS.CA,
	)
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return mask(dsn)
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(userinfo, ":")
	return scheme + "://" + user + ":" + mask("x") + "@" + host
}
