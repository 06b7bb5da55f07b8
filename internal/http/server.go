package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/screen"
	"storefront/internal/service"
	"storefront/internal/session"
)

var errCatalogUnavailable = errors.New("catalog is not available")

// Deps зависимости HTTP-слоя
type Deps struct {
	Log         zerolog.Logger
	Products    *service.ProductService
	GetProducts *service.GetProducts
	GetHistory  *service.GetOrderHistory
	// Home и History живут всё время работы процесса
	Home     *screen.HomeScreen
	History  *screen.HistoryScreen
	Sessions *session.Registry
	Cookies  *session.Cookies
}

type Server struct {
	engine *gin.Engine
	Deps
}

func NewServer(d Deps) *Server {
	r := gin.New()
	r.Use(requestLogger(d.Log), gin.Recovery())
	s := &Server{engine: r, Deps: d}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", s.healthz)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/session", s.login)
		v1.DELETE("/session", s.requireSession, s.logout)

		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.GET("/stream", s.streamProducts)
		products.POST("", s.createProduct)
		products.PUT(":id", s.updateProduct)
		products.DELETE(":id", s.deleteProduct)

		cart := v1.Group("/cart", s.requireSession)
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.DELETE("/items/:index", s.removeCartItem)
		cart.POST("/checkout", s.checkout)

		orders := v1.Group("/orders")
		orders.GET("", s.listOrders)
		orders.GET("/stream", s.streamOrders)
		orders.POST("/refresh", s.refreshOrders)
	}
}

// requestLogger пишет одну строку на запрос
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

const sessionKey = "session"

// requireSession кладёт активную сессию в контекст или отвечает 401.
// Cookie переиздаётся на каждом запросе, чтобы её срок шёл вместе с сессией.
func (s *Server) requireSession(c *gin.Context) {
	id, err := s.Cookies.ID(c.Request)
	if err == nil {
		var sess *session.Session
		if sess, err = s.Sessions.Get(id); err == nil {
			if err := s.Cookies.Save(c.Writer, c.Request, id); err != nil {
				s.Log.Warn().Err(err).Msg("session cookie not renewed")
			}
			c.Set(sessionKey, sess)
			c.Next()
			return
		}
	}
	c.AbortWithStatusJSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func writeError(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, screen.ErrNoSuchItem):
		return http.StatusNotFound
	case errors.Is(err, screen.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, errCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
