package config

import (
	"os"
	"strconv"
)

// Config holds everything read from the environment. The server and the
// terminal client read the same variables; each uses the fields it needs.
type Config struct {
	Port      string
	DBURL     string
	DBMigrate bool

	ImageDir       string
	GCSBucket      string
	GCPCredentials string

	LLMProvider    string
	GeminiAPIKey   string
	GeminiModelID  string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	VertexProject  string
	VertexLocation string
	ClaudeModel    string

	APIURL    string
	APIToken  string
	ProjectID string
}

// Load reads the process environment. Call godotenv.Load first to pick up a
// .env file.
func Load() Config {
	return Config{
		Port:      getEnv("PORT", "3000"),
		DBURL:     os.Getenv("DB_URL"),
		DBMigrate: getBool("DB_MIGRATE", false),

		ImageDir:       getEnv("IMAGE_DIR", "temp/images"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		GCPCredentials: os.Getenv("GCP_SERVICE_ACCOUNT_CREDENTIALS"),

		LLMProvider:    getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		VertexProject:  os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		VertexLocation: getEnv("GOOGLE_CLOUD_VERTEXAI_LOCATION", "us-central1"),
		ClaudeModel:    getEnv("CLAUDE_VERTEX_MODEL", "claude-sonnet-4-5@20250929"),

		APIURL:    getEnv("API_URL", "http://localhost:3000/api/v1"),
		APIToken:  os.Getenv("API_TOKEN"),
		ProjectID: os.Getenv("PROJECT_ID"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
