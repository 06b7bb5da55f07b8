package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/screen"
)

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Session handlers
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Start session
// @Tags session
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /session [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.Sessions.Create(req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Cookies.Save(c.Writer, c.Request, sess.ID); err != nil {
		_ = s.Sessions.End(sess.ID)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": sess.Email})
}

// @Summary End session
// @Tags session
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /session [delete]
func (s *Server) logout(c *gin.Context) {
	_ = s.Sessions.End(currentSession(c).ID)
	if err := s.Cookies.Clear(c.Writer, c.Request); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Product handlers

// @Summary Catalog state
// @Description Current state of the live catalog: loading, success with items, or error.
// @Tags products
// @Produce json
// @Success 200 {object} screen.FeedState[domain.Product]
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, s.Home.State())
}

// @Summary Catalog stream
// @Description Server-sent events; one "state" event per catalog snapshot.
// @Tags products
// @Produce text/event-stream
// @Router /products/stream [get]
func (s *Server) streamProducts(c *gin.Context) {
	home := screen.NewHomeScreen(context.WithoutCancel(c.Request.Context()), s.GetProducts, s.Log)
	defer home.Close()
	stream(c, home.Observe)
}

type productReq struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
	Emoji       string          `json:"emoji"`
}

func (r productReq) product() domain.Product {
	return domain.Product{ID: r.ID, Name: r.Name, Description: r.Description, Price: r.Price, Emoji: r.Emoji}
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.Products.Create(c, req.product())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body productReq true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ID = c.Param("id")
	p, err := s.Products.Update(c, req.product())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.Products.Delete(c, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cart handlers
type cartResp struct {
	Items      []domain.Product   `json:"items"`
	Totals     screen.Totals      `json:"totals"`
	Submission screen.SubmitState `json:"submission"`
}

func cartView(cart *screen.CartScreen) cartResp {
	items := cart.Items()
	if items == nil {
		items = []domain.Product{}
	}
	return cartResp{Items: items, Totals: cart.Totals(), Submission: cart.State()}
}

// @Summary Session cart
// @Tags cart
// @Produce json
// @Success 200 {object} cartResp
// @Failure 401 {object} map[string]string
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartView(currentSession(c).Cart))
}

type addItemReq struct {
	ProductID string `json:"product_id"`
}

// @Summary Add product to cart
// @Description The product is taken from the live catalog at the moment of the call.
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addItemReq true "Product"
// @Success 201 {object} cartResp
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalogProduct(req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	cart := currentSession(c).Cart
	cart.Add(p)
	c.JSON(http.StatusCreated, cartView(cart))
}

func (s *Server) catalogProduct(id string) (domain.Product, error) {
	st := s.Home.State()
	if st.Phase != screen.PhaseSuccess {
		return domain.Product{}, errCatalogUnavailable
	}
	for _, p := range st.Items {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %q: %w", id, repository.ErrNotFound)
}

// @Summary Remove cart item
// @Tags cart
// @Produce json
// @Param index path int true "Position in the cart"
// @Success 200 {object} cartResp
// @Failure 404 {object} map[string]string
// @Router /cart/items/{index} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	cart := currentSession(c).Cart
	if err := cart.Remove(idx); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(cart))
}

type checkoutReq struct {
	Address       domain.DeliveryAddress `json:"address"`
	PaymentMethod string                 `json:"payment_method"`
}

// @Summary Place order
// @Description Submits the session cart. On success the cart is cleared.
// @Tags cart
// @Accept json
// @Produce json
// @Param input body checkoutReq true "Checkout"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /cart/checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cart := currentSession(c).Cart
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := cart.PlaceOrder(c.Request.Context(), req.Address, method)
	if err != nil {
		status := mapErrorToStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		if status != http.StatusConflict {
			// the response carries the outcome; the holder goes back to Idle
			cart.Reset()
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	cart.Reset()
	c.JSON(http.StatusCreated, gin.H{"order_id": id})
}

// Order history handlers

// @Summary Order history
// @Description First snapshot of the order history, newest first.
// @Tags orders
// @Produce json
// @Success 200 {object} screen.FeedState[domain.OrderHistoryItem]
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	hist := screen.NewHistoryScreen(c.Request.Context(), s.GetHistory, s.Log)
	defer hist.Close()

	settled := make(chan screen.FeedState[domain.OrderHistoryItem], 1)
	stop := hist.Observe(func(st screen.FeedState[domain.OrderHistoryItem]) {
		if st.Phase == screen.PhaseLoading {
			return
		}
		select {
		case settled <- st:
		default:
		}
	})
	defer stop()

	select {
	case st := <-settled:
		c.JSON(http.StatusOK, st)
	case <-c.Request.Context().Done():
	}
}

// @Summary Order history stream
// @Tags orders
// @Produce text/event-stream
// @Router /orders/stream [get]
func (s *Server) streamOrders(c *gin.Context) {
	stream(c, s.History.Observe)
}

// @Summary Refresh order history
// @Description Re-subscribes the shared order history; the way out of the error state.
// @Tags orders
// @Produce json
// @Success 202 {object} screen.FeedState[domain.OrderHistoryItem]
// @Router /orders/refresh [post]
func (s *Server) refreshOrders(c *gin.Context) {
	s.History.Refresh(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, s.History.State())
}
