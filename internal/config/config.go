package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	Telegram struct {
		ApiKey  string  `yaml:"api_key" env-default:""`
		BotName string  `yaml:"bot_name" env-default:"IzdatBot"`
		AdminId int64   `yaml:"admin_id" env-default:"0"`
		Admins  []int64 `yaml:"admins"`
		Enabled bool    `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Flow struct {
		SessionTTL     time.Duration `yaml:"session_ttl" env-default:"24h"`
		HandlerTimeout time.Duration `yaml:"handler_timeout" env-default:"30s"`
		LockWait       time.Duration `yaml:"lock_wait" env-default:"5s"`
		SweepInterval  time.Duration `yaml:"sweep_interval" env-default:"1h"`
	} `yaml:"flow"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	Sheets struct {
		SpreadsheetId   string `yaml:"spreadsheet_id" env-default:""`
		CredentialsFile string `yaml:"credentials_file" env-default:""`
	} `yaml:"sheets"`
	OpenAI struct {
		ApiKey string `yaml:"api_key" env-default:""`
		Model  string `yaml:"model" env-default:"gpt-4o-mini"`
	} `yaml:"openai"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9100"`
		ApiKey string `yaml:"key" env-default:""`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
