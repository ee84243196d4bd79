package clientip

// Config lists the proxy headers trusted to carry the client address.
// Leave it empty when the server is reachable directly.
type Config struct {
	TrustedHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:","`
}

func NewFromConfig(cfg Config) *Resolver {
	return NewResolver(cfg.TrustedHeaders...)
}
