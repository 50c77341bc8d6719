package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openlink/openlink/internal/common/config"
	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
)

// Service wires the token issuer and OIDC client behind the auth HTTP API.
type Service struct {
	cfg    *config.Config
	issuer *TokenIssuer
	oidc   *OIDCClient
	log    *logger.Logger
}

// NewService creates the auth service.
func NewService(cfg *config.Config, issuer *TokenIssuer, oidc *OIDCClient, log *logger.Logger) *Service {
	return &Service{cfg: cfg, issuer: issuer, oidc: oidc, log: log}
}

// RegisterRoutes mounts the auth endpoints on the router.
func (s *Service) RegisterRoutes(router *gin.Engine) {
	router.POST("/exchange", s.handleExchange)
	router.POST("/exchange-server", s.handleExchangeServer)
	router.GET("/public-key", s.handlePublicKey)
	router.GET("/health", s.handleHealth)
}

type exchangeRequest struct {
	OIDCCode       string `json:"oidc_code" binding:"required"`
	UserNkeyPublic string `json:"user_nkey_public" binding:"required"`
	Network        string `json:"network" binding:"required"`
}

type exchangeServerRequest struct {
	ServerSecret   string `json:"server_secret" binding:"required"`
	UserNkeyPublic string `json:"user_nkey_public" binding:"required"`
	Network        string `json:"network" binding:"required"`
}

type exchangeResponse struct {
	JWT     string `json:"jwt"`
	CID     string `json:"cid"`
	Network string `json:"network"`
}

// handleExchange trades an OIDC authorization code for a scoped NATS JWT.
func (s *Service) handleExchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	network := models.NetworkID(req.Network)
	tokenURL, ok := s.cfg.Auth.TokenURLFor(req.Network)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown network"})
		return
	}

	cid, err := s.oidc.ExchangeCode(c.Request.Context(), tokenURL, req.OIDCCode)
	if err != nil {
		s.log.WithError(err).WithNetwork(req.Network).Warn("oidc exchange failed")
		s.renderError(c, err)
		return
	}

	jwt, err := s.issuer.SignUserJWT(req.UserNkeyPublic, cid, network, UserTokenTTL)
	if err != nil {
		s.log.WithError(err).Error("failed to sign user jwt")
		s.renderError(c, err)
		return
	}

	s.log.WithNetwork(req.Network).Info("issued user token", zap.String("cid", cid))
	c.JSON(http.StatusOK, exchangeResponse{JWT: jwt, CID: cid, Network: req.Network})
}

// handleExchangeServer trades the shared server secret for a wildcard JWT
// used by the relay. The secret comparison is constant time.
func (s *Service) handleExchangeServer(c *gin.Context) {
	var req exchangeServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	network := models.NetworkID(req.Network)
	if _, ok := s.cfg.Auth.TokenURLFor(req.Network); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown network"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.ServerSecret), []byte(s.cfg.Auth.ServerSecret)) != 1 {
		s.log.WithNetwork(req.Network).Warn("server exchange with invalid secret")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid server secret"})
		return
	}

	jwt, err := s.issuer.SignServerJWT(req.UserNkeyPublic, network, ServerTokenTTL)
	if err != nil {
		s.log.WithError(err).Error("failed to sign server jwt")
		s.renderError(c, err)
		return
	}

	cid := string(ServerAddress(network))
	s.log.WithNetwork(req.Network).Info("issued server token")
	c.JSON(http.StatusOK, exchangeResponse{JWT: jwt, CID: cid, Network: req.Network})
}

// handlePublicKey exposes the account public key so relays can verify
// envelope tokens offline.
func (s *Service) handlePublicKey(c *gin.Context) {
	key, err := s.issuer.PublicKey()
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": key})
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Service) renderError(c *gin.Context, err error) {
	status := apperrors.GetHTTPStatus(err)
	message := err.Error()
	if appErr, ok := apperrors.IsAppError(err); ok {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}
