package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		CORSOrigins     string `env:"CORS_ORIGINS" envDefault:"*"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Booking struct {
		Timezone       string `env:"TIMEZONE" envDefault:"Asia/Kuala_Lumpur"`
		MaxPerDay      int    `env:"MAX_PER_DAY" envDefault:"3"`
		WeekendDays    string `env:"WEEKEND_DAYS" envDefault:"6,0"`
		ForceSlotTTL   int    `env:"FORCE_SLOT_TTL" envDefault:"600"` // seconds a pending force offer stays claimable
		ForceWindowLen int    `env:"FORCE_WINDOW_LEN" envDefault:"3"`
	} `envPrefix:"BOOKING_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 days
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD,required"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	WhatsApp struct {
		APIURL      string `env:"API_URL,required"`
		Token       string `env:"TOKEN,required"`
		ChatID      string `env:"CHAT_ID,required"` // fixed notification channel for the transport group
		SendTimeout int    `env:"SEND_TIMEOUT" envDefault:"15"`
	} `envPrefix:"WHATSAPP_"`
	Calendar struct {
		RendererURL  string `env:"RENDERER_URL,required"`
		CalendarID   string `env:"CALENDAR_ID" envDefault:"primary"`
		FetchTimeout int    `env:"FETCH_TIMEOUT" envDefault:"15"`
	} `envPrefix:"CALENDAR_"`
	Email struct {
		AlertTo string `env:"ALERT_TO"` // ops mailbox for force-override alerts, empty disables
		SMTP    struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	Seed struct {
		Drivers int `env:"DRIVERS" envDefault:"12"`
		Records int `env:"RECORDS" envDefault:"40"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only return the first error to keep the log readable
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
