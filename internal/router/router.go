// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/handlers"
	"github.com/distrokey/distrokey-backend/internal/middleware"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	deviceStore, err := services.NewDeviceStoreService(cfg)
	if err != nil {
		return nil, err
	}

	userService := services.NewUserService(db, cfg, notificationService)
	ledgerService := services.NewLedgerService(db, notificationService)
	provisionService := services.NewProvisionService(db, deviceStore, notificationService)
	transactionService := services.NewTransactionService(db)
	walletService := services.NewWalletService(db)
	paymentService := services.NewPaymentService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	keyHandler := handlers.NewKeyHandler(ledgerService)
	provisionHandler := handlers.NewProvisionHandler(provisionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	walletHandler := handlers.NewWalletHandler(walletService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User directory routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.POST("", middleware.RequireRoles(
				models.RoleSuperAdmin, models.RoleSuperDistributor, models.RoleDistributor,
			), userHandler.CreateSubordinate)
			users.GET("/subordinates", userHandler.ListSubordinates)
			users.GET("/:id", userHandler.GetUser)
		}

		// Key ledger routes
		keys := v1.Group("/keys")
		keys.Use(middleware.AuthRequired())
		{
			keys.GET("", keyHandler.GetKeys)
			keys.POST("", middleware.RequireRoles(models.RoleSuperAdmin), keyHandler.CreateKeys)
			keys.POST("/transfer", middleware.RequireRoles(
				models.RoleSuperAdmin, models.RoleSuperDistributor, models.RoleDistributor,
			), keyHandler.TransferKeys)
			keys.POST("/revoke", middleware.RequireRoles(models.RoleSuperAdmin), keyHandler.RevokeKeys)
		}

		// Provisioning routes
		provision := v1.Group("/provision")
		provision.Use(middleware.AuthRequired(), middleware.RequireRoles(models.RoleRetailer))
		{
			provision.POST("", provisionHandler.ProvisionKey)
			provision.GET("/end-users/:id/emi", provisionHandler.GetEMIPlan)
		}

		// Ledger query routes
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.GET("", transactionHandler.ListTransactions)
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("", walletHandler.GetOwnWallet)
		}

		wallets := v1.Group("/wallets")
		wallets.Use(middleware.AuthRequired(), middleware.RequireRoles(models.RoleSuperAdmin))
		{
			wallets.GET("/:id", walletHandler.GetWallet)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired(), middleware.RequireRoles(models.RoleRetailer))
		{
			payments.POST("/installment-intent", paymentHandler.CreateInstallmentIntent)
			payments.POST("/installment-confirm", paymentHandler.ConfirmInstallment)
		}
	}

	return r, nil
}
