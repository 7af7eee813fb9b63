package webserver

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/app"
	"github.com/talkincode/botgate/internal/gateway"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WebServer is the operator-facing control plane: a REST surface for
// session and CRM operations plus an SSE stream pushing status, message
// and log events to every connected observer.
type WebServer struct {
	root *echo.Echo
	app  app.AppContext
	bulk *gateway.BulkSender
	hub  *Hub
}

func NewWebServer(appCtx app.AppContext, bulk *gateway.BulkSender) *WebServer {
	s := &WebServer{
		root: echo.New(),
		app:  appCtx,
		bulk: bulk,
		hub:  NewHub(appCtx.Bus()),
	}
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.CORS())
	s.root.HideBanner = true
	s.root.JSONSerializer = jsonSerializer{}

	s.registerSessionRoutes()
	s.registerCrmRoutes()
	s.registerEventRoutes()
	return s
}

func (s *WebServer) Start() error {
	cfg := s.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("Starting control plane on %s", addr)
	return s.root.Start(addr)
}

func (s *WebServer) Shutdown() {
	_ = s.root.Close()
}

// jsonSerializer routes echo JSON handling through json-iterator.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"data": data,
	})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":   1,
		"error":  code,
		"msg":    msg,
		"detail": detail,
	})
}
