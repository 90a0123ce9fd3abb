package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tably/internal/audit"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	"github.com/smallbiznis/tably/internal/catalog"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	"github.com/smallbiznis/tably/internal/config"
	"github.com/smallbiznis/tably/internal/discount"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
	"github.com/smallbiznis/tably/internal/idempotency"
	idemdomain "github.com/smallbiznis/tably/internal/idempotency/domain"
	"github.com/smallbiznis/tably/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tably/internal/observability/metrics"
	"github.com/smallbiznis/tably/internal/order"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	"github.com/smallbiznis/tably/internal/payment"
	paymentdomain "github.com/smallbiznis/tably/internal/payment/domain"
	"github.com/smallbiznis/tably/internal/report"
	reportdomain "github.com/smallbiznis/tably/internal/report/domain"
	"github.com/smallbiznis/tably/internal/table"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	idempotency.Module,
	catalog.Module,
	discount.Module,
	table.Module,
	order.Module,
	payment.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())
	r.Use(StaffContext())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(cfg, httpMetrics, registry)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	idemExec    idemdomain.Executor
	tableSvc    tabledomain.Service
	orderSvc    orderdomain.Service
	paymentSvc  paymentdomain.Service
	catalogSvc  catalogdomain.Service
	discountSvc discountdomain.Service
	auditSvc    auditdomain.Service
	reportSvc   reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	IdemExec    idemdomain.Executor
	TableSvc    tabledomain.Service
	OrderSvc    orderdomain.Service
	PaymentSvc  paymentdomain.Service
	CatalogSvc  catalogdomain.Service
	DiscountSvc discountdomain.Service
	AuditSvc    auditdomain.Service
	ReportSvc   reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		idemExec:    p.IdemExec,
		tableSvc:    p.TableSvc,
		orderSvc:    p.OrderSvc,
		paymentSvc:  p.PaymentSvc,
		catalogSvc:  p.CatalogSvc,
		discountSvc: p.DiscountSvc,
		auditSvc:    p.AuditSvc,
		reportSvc:   p.ReportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	tables := v1.Group("/tables")
	tables.POST("", s.CreateTable)
	tables.GET("", s.ListTables)
	tables.GET("/:id", s.GetTable)
	tables.POST("/:id/seat", s.SeatTable)
	tables.POST("/:id/unseat", s.UnseatTable)
	tables.POST("/:id/clear", s.ClearTable)
	tables.POST("/:id/clean", s.CleanTable)
	tables.POST("/:id/block", s.BlockTable)
	tables.POST("/:id/reserve", s.ReserveTable)

	orders := v1.Group("/orders")
	orders.GET("", s.ListOpenOrders)
	orders.GET("/:id", s.GetOrder)
	orders.POST("/send", s.SendToKitchen)
	orders.POST("/:id/bill", s.GenerateBill)
	orders.POST("/:id/close", s.CloseOrder)
	orders.GET("/:id/payment", s.GetOrderPayment)

	items := v1.Group("/orders/items")
	items.POST("/:id/advance", s.AdvanceItem)
	items.POST("/:id/reopen", s.ReopenItem)
	items.POST("/:id/void", s.VoidItem)
	items.POST("/:id/discount", s.ApplyDiscount)
	items.DELETE("/:id/discount", s.RemoveDiscount)
	items.POST("/:id/comp", s.CompItem)

	v1.POST("/payments", s.RecordPayment)

	products := v1.Group("/products")
	products.POST("", s.CreateProduct)
	products.GET("", s.ListProducts)
	products.POST("/:id/deactivate", s.DeactivateProduct)

	discounts := v1.Group("/discounts")
	discounts.POST("", s.CreateDiscountDefinition)
	discounts.GET("", s.ListDiscountDefinitions)

	v1.GET("/audit-logs", s.ListAuditLogs)
	v1.GET("/reports/daily", s.DailyReport)
}

// runIdempotent executes a mutating operation through the idempotency
// ledger and writes the outcome, stored or fresh, to the response.
// Terminal business failures are converted into recorded outcomes so a
// retried key replays the same rejection.
func (s *Server) runIdempotent(c *gin.Context, kind string, fingerprintSrc any, do func(ctx context.Context, tx *gorm.DB) (int, any, error)) {
	key := idempotencyKey(c)
	fingerprint := idemdomain.Fingerprint(fingerprintSrc)

	outcome, err := s.idemExec.Execute(c.Request.Context(), kind, key, fingerprint,
		func(ctx context.Context, tx *gorm.DB) (idemdomain.Outcome, error) {
			status, body, err := do(ctx, tx)
			if err != nil {
				if isTerminal(err) {
					errStatus, payload := mapError(err)
					return idemdomain.Outcome{
						Status: errStatus,
						Body:   datatypes.JSONMap{"error": toJSONValue(payload)},
					}, nil
				}
				return idemdomain.Outcome{}, err
			}
			return idemdomain.Outcome{Status: status, Body: toJSONMap(body)}, nil
		})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(outcome.Status, outcome.Body)
}

func toJSONMap(v any) datatypes.JSONMap {
	if v == nil {
		return datatypes.JSONMap{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSONMap{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(out)
}

func toJSONValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
