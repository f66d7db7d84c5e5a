package echo

// Config contains echo backend settings. The backend is disabled by
// default and only intended for local development and testing.
type Config struct {
	Enabled bool `env:"ECHO_ENABLED" envDefault:"false"`
}
