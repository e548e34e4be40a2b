package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	LinkedinAccessToken  string
	LinkedinAuthorURN    string
	XAccessToken         string
	FacebookPageID       string
	FacebookAccessToken  string
	InstagramAccountID   string
	InstagramAccessToken string
	TelegramBotToken     string
	TelegramChatID       string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	R2                   R2
	SecretKey            string
	CookieName           string
	DispatchSchedule     string
}

func LoadConfig() *Config {
	return &Config{
		LinkedinAccessToken:  getEnv("LINKEDIN_ACCESS_TOKEN", ""),
		LinkedinAuthorURN:    getEnv("LINKEDIN_AUTHOR_URN", ""),
		XAccessToken:         getEnv("X_ACCESS_TOKEN", ""),
		FacebookPageID:       getEnv("FACEBOOK_PAGE_ID", ""),
		FacebookAccessToken:  getEnv("FACEBOOK_ACCESS_TOKEN", ""),
		InstagramAccountID:   getEnv("INSTAGRAM_ACCOUNT_ID", ""),
		InstagramAccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", ""),
		DispatchSchedule: getEnv("DISPATCH_SCHEDULE", "@every 00h05m00s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
