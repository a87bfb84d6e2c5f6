package provider

import (
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/authz"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/cache"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/queue"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo           repository.UserRepository
	CategoryRepo       repository.CategoryRepository
	ProductRepo        repository.ProductRepository
	CartRepo           repository.CartRepository
	OrderRepo          repository.OrderRepository
	CouponRepo         repository.CouponRepository
	DiscountCouponRepo repository.DiscountCouponRepository
	PaymentRepo        repository.PaymentRepository

	// Services
	AuthzService          *authz.Service
	UserAuthService       *service.UserAuthService
	EmailService          *service.EmailService
	ProductService        *service.ProductService
	CategoryService       *service.CategoryService
	CartService           *service.CartService
	CouponRegistry        *service.CouponRegistry
	CouponService         *service.CouponService
	DiscountCouponService *service.DiscountCouponService
	OrderService          *service.OrderService
	PaymentService        *service.PaymentService
}

// NewContainer initializes the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.DiscountCouponRepo = repository.NewDiscountCouponRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CouponRegistry = service.NewCouponRegistry(c.Config.CouponTiers, c.CouponRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.OrderRepo, c.CouponRegistry, c.Config)
	c.DiscountCouponService = service.NewDiscountCouponService(c.DiscountCouponRepo, c.ProductRepo, c.CategoryRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CartRepo, c.CouponRepo, c.DiscountCouponRepo, c.DiscountCouponService, c.Config)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.UserRepo, c.OrderService, c.CouponService, c.CouponRegistry, c.QueueClient, c.Config)
}
