package shelfdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	engine    string // "opensearch" or "memory"
	addresses []string
	username  string
	password  string
	index     string
	fixtures  string

	catalogAddr     string
	catalogPassword string
	catalogPrefix   string

	scriptRevision int
	randomSeed     *int64
	dictionaryPath string
	vocabularyPath string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenSearch searches an OpenSearch index of works.
func WithOpenSearch(addresses []string, index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = "opensearch"
		c.addresses = addresses
		c.index = index
	})
}

// WithBasicAuth sets OpenSearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithMemoryEngine searches works loaded from a JSON fixture file in
// process. Meant for tests and demos.
func WithMemoryEngine(fixturesPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = "memory"
		c.fixtures = fixturesPath
	})
}

// WithRedisCatalog reads libraries and lanes from Redis. Without a
// catalog, searches naming a library or lane fail with ErrNotFound.
// An empty prefix uses the server's default.
func WithRedisCatalog(addr, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogAddr = addr
		c.catalogPassword = password
		c.catalogPrefix = keyPrefix
	})
}

// WithScriptRevision selects the stored script revision used by
// script-based sorts and fields.
func WithScriptRevision(rev int) Option {
	return optionFunc(func(c *clientConfig) {
		c.scriptRevision = rev
	})
}

// WithRandomSeed seeds the random part of featured ordering. Without it
// featured ordering is deterministic.
func WithRandomSeed(seed int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.randomSeed = &seed
	})
}

// WithDictionaryFile adds the words of a file, one per line, to the
// words the spelling check treats as known.
func WithDictionaryFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dictionaryPath = path
	})
}

// WithVocabularyFile replaces the built-in genre and audience vocabulary
// with a YAML file.
func WithVocabularyFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vocabularyPath = path
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
