package gemini

// Config contains Gemini provider configuration.
type Config struct {
	APIKey string `env:"GOOGLE_API_KEY"`
}
