package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	authsvc "github.com/polybazaar/polybazaar-backend/internal/auth"
	cartsvc "github.com/polybazaar/polybazaar-backend/internal/cart"
	checkoutsvc "github.com/polybazaar/polybazaar-backend/internal/checkout"
	listingsvc "github.com/polybazaar/polybazaar-backend/internal/listings"
	"github.com/polybazaar/polybazaar-backend/internal/messaging"
	ordersvc "github.com/polybazaar/polybazaar-backend/internal/orders"
	productsvc "github.com/polybazaar/polybazaar-backend/internal/products"
	pkgAuth "github.com/polybazaar/polybazaar-backend/pkg/auth"
	"github.com/polybazaar/polybazaar-backend/pkg/config"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	"github.com/polybazaar/polybazaar-backend/pkg/logger"
	"github.com/polybazaar/polybazaar-backend/pkg/pagination"
	"github.com/polybazaar/polybazaar-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.RegisterResponse, error) {
	return &authsvc.RegisterResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return &authsvc.LoginResponse{}, nil
}

type stubAccessControlService struct{}

func (stubAccessControlService) Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error) {
	return accesscontrol.Capabilities{}, nil
}

func (stubAccessControlService) RequestPermission(ctx context.Context, requesterID uuid.UUID, in accesscontrol.RequestPermissionInput) (*accesscontrol.PermissionRequestDTO, error) {
	return &accesscontrol.PermissionRequestDTO{}, nil
}

func (stubAccessControlService) ListPermissionRequests(ctx context.Context, requesterID uuid.UUID) ([]accesscontrol.PermissionRequestDTO, error) {
	return nil, nil
}

func (stubAccessControlService) DecidePermission(ctx context.Context, requestID uuid.UUID, approve bool, actorID uuid.UUID) (*accesscontrol.PermissionRequestDTO, error) {
	return &accesscontrol.PermissionRequestDTO{}, nil
}

func (stubAccessControlService) RevokePermission(ctx context.Context, requestID, actorID uuid.UUID) (*accesscontrol.PermissionRequestDTO, error) {
	return &accesscontrol.PermissionRequestDTO{}, nil
}

func (stubAccessControlService) RequestAccess(ctx context.Context, userID uuid.UUID, in accesscontrol.RequestAccessInput) (*accesscontrol.AccessRequestDTO, error) {
	return &accesscontrol.AccessRequestDTO{}, nil
}

func (stubAccessControlService) DecideAccess(ctx context.Context, requestID uuid.UUID, in accesscontrol.DecideAccessInput, actorID uuid.UUID) (*accesscontrol.AccessRequestDTO, error) {
	return &accesscontrol.AccessRequestDTO{}, nil
}

type stubMessagingService struct{}

func (stubMessagingService) SendDirectMessage(ctx context.Context, senderID uuid.UUID, in messaging.SendMessageInput) (*messaging.MessageDTO, error) {
	return &messaging.MessageDTO{}, nil
}

func (stubMessagingService) DirectThread(ctx context.Context, userID, withID uuid.UUID, params pagination.Params) (*messaging.ThreadPage, error) {
	return &messaging.ThreadPage{}, nil
}

func (stubMessagingService) OpenConversation(ctx context.Context, participantID uuid.UUID, in messaging.OpenConversationInput) (*messaging.ConversationDTO, error) {
	return &messaging.ConversationDTO{}, nil
}

func (stubMessagingService) ListConversations(ctx context.Context, userID uuid.UUID) ([]messaging.ConversationDTO, error) {
	return nil, nil
}

func (stubMessagingService) SendConversationMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*messaging.MessageDTO, error) {
	return &messaging.MessageDTO{}, nil
}

func (stubMessagingService) ConversationMessages(ctx context.Context, userID, conversationID uuid.UUID, params pagination.Params) (*messaging.ThreadPage, error) {
	return &messaging.ThreadPage{}, nil
}

type stubProductsService struct{}

func (stubProductsService) Create(ctx context.Context, sellerID uuid.UUID, in productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductsService) ListCatalog(ctx context.Context) ([]productsvc.ProductDTO, error) {
	return nil, nil
}

func (stubProductsService) ListMine(ctx context.Context, sellerID uuid.UUID) ([]productsvc.ProductDTO, error) {
	return nil, nil
}

func (stubProductsService) Approve(ctx context.Context, productID uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

type stubListingsService struct{}

func (stubListingsService) CreateJob(ctx context.Context, buyerID uuid.UUID, in listingsvc.CreateJobInput) (*listingsvc.JobDTO, error) {
	return &listingsvc.JobDTO{}, nil
}

func (stubListingsService) ListOpenJobs(ctx context.Context) ([]listingsvc.JobDTO, error) {
	return nil, nil
}

func (stubListingsService) PlaceBid(ctx context.Context, sellerID, jobID uuid.UUID, in listingsvc.PlaceBidInput) (*listingsvc.BidDTO, error) {
	return &listingsvc.BidDTO{}, nil
}

func (stubListingsService) ListBids(ctx context.Context, jobID uuid.UUID) ([]listingsvc.BidDTO, error) {
	return nil, nil
}

func (stubListingsService) CreateMachinery(ctx context.Context, sellerID uuid.UUID, in listingsvc.CreateMachineryInput) (*listingsvc.MachineryDTO, error) {
	return &listingsvc.MachineryDTO{}, nil
}

func (stubListingsService) ListMachinery(ctx context.Context) ([]listingsvc.MachineryDTO, error) {
	return nil, nil
}

func (stubListingsService) ApproveMachinery(ctx context.Context, listingID uuid.UUID) (*listingsvc.MachineryDTO, error) {
	return &listingsvc.MachineryDTO{}, nil
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, buyerID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, buyerID uuid.UUID, in cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, in cartsvc.UpdateItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, buyerID uuid.UUID, in checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) List(ctx context.Context, buyerID uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}

func (stubOrdersService) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		nil,
		Services{
			Auth:          stubAuthService{},
			AccessControl: stubAccessControlService{},
			Messaging:     stubMessagingService{},
			Products:      stubProductsService{},
			Listings:      stubListingsService{},
			Cart:          stubCartService{},
			Checkout:      stubCheckoutService{},
			Orders:        stubOrdersService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/admin/v1/products/" + uuid.NewString() + "/approve"

	nonAdmin := httptest.NewRequest(http.MethodPut, target, nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPut, target, nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCatalogRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
