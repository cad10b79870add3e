package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Mashup    MashupConfig
	Tools     ToolsConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	MashupPerHour int
}

// MailConfig holds the SMTP endpoint and the sender credentials used for delivery.
type MailConfig struct {
	Host        string
	Port        int
	SenderEmail string
	Password    string
}

// MashupConfig controls where a job keeps its files and how they are named.
type MashupConfig struct {
	WorkDir             string
	DownloadsDir        string
	OutputName          string
	ArchiveName         string
	ManifestName        string
	DefaultClipCount    int
	DefaultClipDuration int
}

type ToolsConfig struct {
	FFmpeg  string
	FFprobe string
	YTDLP   string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	readSecret("REDIS_PASSWORD")
	readSecret("MAIL_SENDER_EMAIL")
	readSecret("MAIL_PASSWORD")
	readSecret("SENDER_EMAIL")
	readSecret("EMAIL_PASSWORD")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.mashup_per_hour", "RATELIMIT_MASHUP_PER_HOUR")
	_ = viper.BindEnv("mail.host", "MAIL_HOST")
	_ = viper.BindEnv("mail.port", "MAIL_PORT")
	_ = viper.BindEnv("mail.sender_email", "MAIL_SENDER_EMAIL", "SENDER_EMAIL")
	_ = viper.BindEnv("mail.password", "MAIL_PASSWORD", "EMAIL_PASSWORD")
	_ = viper.BindEnv("mashup.work_dir", "MASHUP_WORK_DIR")
	_ = viper.BindEnv("mashup.default_clip_count", "MASHUP_DEFAULT_CLIP_COUNT")
	_ = viper.BindEnv("mashup.default_clip_duration", "MASHUP_DEFAULT_CLIP_DURATION")
	_ = viper.BindEnv("tools.ffmpeg", "FFMPEG_BIN")
	_ = viper.BindEnv("tools.ffprobe", "FFPROBE_BIN")
	_ = viper.BindEnv("tools.ytdlp", "YTDLP_BIN")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.mashup_per_hour", 5)

	// Mail defaults
	viper.SetDefault("mail.host", "smtp.gmail.com")
	viper.SetDefault("mail.port", 465)

	// Mashup defaults
	viper.SetDefault("mashup.work_dir", "./work")
	viper.SetDefault("mashup.downloads_dir", "downloads")
	viper.SetDefault("mashup.output_name", "mashup.mp3")
	viper.SetDefault("mashup.archive_name", "mashup.zip")
	viper.SetDefault("mashup.manifest_name", "file_list.txt")
	viper.SetDefault("mashup.default_clip_count", 15)
	viper.SetDefault("mashup.default_clip_duration", 30)

	// Tool defaults resolve through PATH
	viper.SetDefault("tools.ffmpeg", "ffmpeg")
	viper.SetDefault("tools.ffprobe", "ffprobe")
	viper.SetDefault("tools.ytdlp", "yt-dlp")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			MashupPerHour: viper.GetInt("ratelimit.mashup_per_hour"),
		},
		Mail: MailConfig{
			Host:        viper.GetString("mail.host"),
			Port:        viper.GetInt("mail.port"),
			SenderEmail: viper.GetString("mail.sender_email"),
			Password:    viper.GetString("mail.password"),
		},
		Mashup: MashupConfig{
			WorkDir:             viper.GetString("mashup.work_dir"),
			DownloadsDir:        viper.GetString("mashup.downloads_dir"),
			OutputName:          viper.GetString("mashup.output_name"),
			ArchiveName:         viper.GetString("mashup.archive_name"),
			ManifestName:        viper.GetString("mashup.manifest_name"),
			DefaultClipCount:    viper.GetInt("mashup.default_clip_count"),
			DefaultClipDuration: viper.GetInt("mashup.default_clip_duration"),
		},
		Tools: ToolsConfig{
			FFmpeg:  viper.GetString("tools.ffmpeg"),
			FFprobe: viper.GetString("tools.ffprobe"),
			YTDLP:   viper.GetString("tools.ytdlp"),
		},
	}

	return cfg, nil
}

// IsConfigured reports whether both sender credentials are present.
func (m MailConfig) IsConfigured() bool {
	return m.SenderEmail != "" && m.Password != ""
}
