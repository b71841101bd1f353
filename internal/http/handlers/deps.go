package handlers

import (
	"github.com/jmoiron/sqlx"

	"logbloga/internal/config"
	"logbloga/internal/mail"
	"logbloga/internal/payments"
	"logbloga/internal/repos"
	"logbloga/internal/services"
)

type Deps struct {
	ProductHandler        *ProductHandler
	CartHandler           *CartHandler
	OrderHandler          *OrderHandler
	LicenseHandler        *LicenseHandler
	NotificationHandler   *NotificationHandler
	RecommendationHandler *RecommendationHandler
	ContentHandler        *ContentHandler
	WebhookHandler        *WebhookHandler
	AdminHandler          *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	licenseRepo := repos.NewLicenseRepo(db)
	accessRepo := repos.NewAccessRepo(db)
	noteRepo := repos.NewNotificationRepo(db)
	recRepo := repos.NewRecommendationRepo(db)
	piracyRepo := repos.NewPiracyRepo(db)
	analyticsRepo := repos.NewAnalyticsRepo(db)

	var mailer mail.Mailer = mail.Nop{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}
	var pay payments.Client
	if cfg.StripeKey != "" {
		pay = payments.NewStripeClient(cfg.StripeKey)
	}

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	licenseSvc := services.NewLicenseService(licenseRepo, accessRepo)
	noteSvc := services.NewNotificationService(noteRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, couponRepo, licenseSvc, noteSvc, mailer, pay, cfg.BaseURL)
	recSvc := services.NewRecommendationService(recRepo)
	piracySvc := services.NewPiracyService(piracyRepo, prodRepo)
	analyticsSvc := services.NewAnalyticsService(analyticsRepo, licenseRepo)

	return &Deps{
		ProductHandler:        &ProductHandler{Catalog: catalogSvc},
		CartHandler:           &CartHandler{Cart: cartSvc},
		OrderHandler:          &OrderHandler{Cart: cartSvc, Order: orderSvc, Repo: orderRepo, Auth: auth},
		LicenseHandler:        &LicenseHandler{Licenses: licenseSvc},
		NotificationHandler:   &NotificationHandler{Notes: noteSvc},
		RecommendationHandler: &RecommendationHandler{Recs: recSvc},
		ContentHandler:        &ContentHandler{Catalog: catalogSvc, Access: accessRepo, Piracy: piracySvc},
		WebhookHandler:        &WebhookHandler{Order: orderSvc, Secret: cfg.StripeWebhookSecret},
		AdminHandler: &AdminHandler{
			Analytics: analyticsSvc, OrderRepo: orderRepo,
			Products: prodRepo, Cats: catRepo,
			Piracy: piracySvc, Licenses: licenseSvc,
		},
	}
}
