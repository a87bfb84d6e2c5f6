package main

import (
	"fmt"
	"os"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/authz"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// Default admin plus the Casbin role binding so the account works
	// against the admin API out of the box.
	adminEmail := os.Getenv("ETS_DEFAULT_ADMIN_EMAIL")
	adminPass := os.Getenv("ETS_DEFAULT_ADMIN_PASSWORD")
	if err := models.InitDefaultAdmin(adminEmail, adminPass); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	} else {
		var admin models.User
		if err := models.DB.Where("role = ?", constants.UserRoleAdmin).First(&admin).Error; err == nil {
			authzService, err := authz.NewService(models.DB)
			if err != nil {
				stdLog.Printf("Failed to init authz service: %v", err)
			} else if err := authzService.BootstrapBuiltinRoles(); err != nil {
				stdLog.Printf("Failed to bootstrap authz roles: %v", err)
			} else if err := authzService.AssignRole(admin.ID, constants.UserRoleAdmin); err != nil {
				stdLog.Printf("Failed to assign admin role: %v", err)
			} else {
				stdLog.Printf("Admin ready: %s", admin.Email)
			}
		}
	}

	categories := []models.Category{
		{Slug: "eletronicos", Name: "Eletrônicos", SortOrder: 300},
		{Slug: "casa-e-decoracao", Name: "Casa e Decoração", SortOrder: 200},
		{Slug: "leiloes", Name: "Leilões", SortOrder: 100},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"eletronicos", "casa-e-decoracao", "leiloes"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}
	eletronicosID := categoryIDs["eletronicos"]
	casaID := categoryIDs["casa-e-decoracao"]
	leiloesID := categoryIDs["leiloes"]

	now := time.Now()
	auctionStart := now.AddDate(0, 0, -2)
	auctionEnd := now.AddDate(0, 0, 5)
	auctionFutureStart := now.AddDate(0, 0, 10)
	auctionFutureEnd := now.AddDate(0, 0, 17)

	products := []models.Product{
		{
			Slug:        "fone-bluetooth",
			Title:       "Fone de Ouvido Bluetooth",
			Description: "Som de alta qualidade, bateria de longa duração, conforto para o dia todo.",
			PriceCents:  9990,
			Stock:       40,
			CategoryID:  &eletronicosID,
			SortOrder:   300,
			IsActive:    true,
		},
		{
			Slug:        "smartwatch-fit",
			Title:       "Smartwatch Fit",
			Description: "Monitoramento de saúde, rastreamento de exercícios e notificações.",
			PriceCents:  19990,
			Stock:       25,
			CategoryID:  &eletronicosID,
			SortOrder:   290,
			IsActive:    true,
		},
		{
			Slug:        "luminaria-de-mesa",
			Title:       "Luminária de Mesa",
			Description: "Luz quente regulável com entrada USB.",
			PriceCents:  7990,
			Stock:       60,
			CategoryID:  &casaID,
			SortOrder:   200,
			IsActive:    true,
		},
		{
			Slug:        "jogo-de-panelas",
			Title:       "Jogo de Panelas Antiaderente",
			Description: "Cinco peças com revestimento cerâmico.",
			PriceCents:  24990,
			Stock:       15,
			CategoryID:  &casaID,
			SortOrder:   190,
			IsActive:    true,
		},
		{
			Slug:         "leilao-tv-55",
			Title:        "Leilão: Smart TV 55\"",
			Description:  "Lote de leilão ativo. Elegível para cupom de leilão durante a janela.",
			PriceCents:   189900,
			Stock:        3,
			CategoryID:   &leiloesID,
			IsAuction:    true,
			AuctionStart: &auctionStart,
			AuctionEnd:   &auctionEnd,
			SortOrder:    100,
			IsActive:     true,
		},
		{
			Slug:         "leilao-notebook",
			Title:        "Leilão: Notebook Ultrafino",
			Description:  "Lote de leilão futuro. A janela ainda não abriu.",
			PriceCents:   329900,
			Stock:        2,
			CategoryID:   &leiloesID,
			IsAuction:    true,
			AuctionStart: &auctionFutureStart,
			AuctionEnd:   &auctionFutureEnd,
			SortOrder:    90,
			IsActive:     true,
		},
		{
			Slug:        "produto-esgotado",
			Title:       "Caixa de Som Portátil",
			Description: "Exemplo de produto sem estoque para testes de checkout.",
			PriceCents:  12990,
			Stock:       0,
			CategoryID:  &eletronicosID,
			SortOrder:   80,
			IsActive:    true,
		},
	}

	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			existing.Title = prod.Title
			existing.Description = prod.Description
			existing.PriceCents = prod.PriceCents
			existing.Stock = prod.Stock
			existing.CategoryID = prod.CategoryID
			existing.IsAuction = prod.IsAuction
			existing.AuctionStart = prod.AuctionStart
			existing.AuctionEnd = prod.AuctionEnd
			existing.IsActive = prod.IsActive
			existing.SortOrder = prod.SortOrder
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Updated product: %s", prod.Slug)
			}
		}
	}

	// Auction lots never accept regular percent coupons.
	restrictions := []models.CategoryRestriction{
		{CategoryID: leiloesID, CouponType: constants.DiscountCouponTypeRegular, Mode: constants.CategoryRestrictionForbid},
	}
	for _, restriction := range restrictions {
		if restriction.CategoryID == 0 {
			continue
		}
		var existing models.CategoryRestriction
		err := models.DB.Where("category_id = ? AND coupon_type = ?", restriction.CategoryID, restriction.CouponType).
			First(&existing).Error
		if err != nil {
			if err := models.DB.Create(&restriction).Error; err != nil {
				stdLog.Printf("Failed to create category restriction: %v", err)
			} else {
				stdLog.Printf("Created category restriction: category=%d type=%s mode=%s",
					restriction.CategoryID, restriction.CouponType, restriction.Mode)
			}
		} else if existing.Mode != restriction.Mode {
			existing.Mode = restriction.Mode
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update category restriction: %v", err)
			}
		}
	}

	discountValidUntil := now.AddDate(0, 3, 0)
	maxUses := 100
	discountCoupons := []models.DiscountCoupon{
		{
			Code:       "BEMVINDO10",
			Type:       constants.DiscountCouponTypeRegular,
			Percent:    10,
			IsActive:   true,
			ValidUntil: &discountValidUntil,
			MaxUses:    &maxUses,
		},
		{
			Code:     "SONHOS25",
			Type:     constants.DiscountCouponTypeRegular,
			Percent:  25,
			IsActive: true,
		},
		{
			Code:     "LEILAO50",
			Type:     constants.DiscountCouponTypeAuction,
			Percent:  50,
			IsActive: true,
		},
	}

	for _, coupon := range discountCoupons {
		var existing models.DiscountCoupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create discount coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created discount coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Discount coupon already exists: %s", coupon.Code)
		}
	}

	fmt.Println("\nSeed data ready.")
	fmt.Println("Summary:")
	fmt.Println("- 3 categories (incl. leiloes)")
	fmt.Println("- 7 products (2 auction lots, 1 out of stock)")
	fmt.Println("- 1 category restriction (regular coupons forbidden on leiloes)")
	fmt.Println("- 3 discount coupons (BEMVINDO10, SONHOS25, LEILAO50)")
}
