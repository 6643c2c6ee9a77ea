package handler

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/selatan-haulage/driver-leave/backend/internal/config"
	"github.com/selatan-haulage/driver-leave/backend/internal/gateway"
	"github.com/selatan-haulage/driver-leave/backend/internal/repository"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	notifyChannel *amqp.Channel
	redisClient   *redis.Client
	renderer      *gateway.RendererClient
	adminHash     []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, notifyCh *amqp.Channel, rdb *redis.Client, renderer *gateway.RendererClient) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// the admin account lives in config, not in the roster
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		notifyChannel: notifyCh,
		redisClient:   rdb,
		renderer:      renderer,
		adminHash:     adminHash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.config.Server.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	h.Mux.Route("/api", func(r chi.Router) {
		// driver-app surface
		r.Get("/drivers", h.GetDrivers)
		r.Get("/capacity", h.GetCapacity)
		r.Get("/calendar_screenshot", h.GetCalendarScreenshot)
		r.Post("/apply", h.Apply)
		r.Post("/apply_force3", h.ApplyForce3)
		r.Post("/notify", h.PostNotify)

		// admin surface requires the JWT cookie
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminAuth)
			r.Post("/drivers_upsert", h.UpsertDrivers)
			r.Post("/settings_save", h.SaveSettings)
		})
	})
}
