package service

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 5 * time.Second
	// writeTimeout 覆盖最多 1000 行的 Excel 导出
	writeTimeout = 30 * time.Second
	idleTimeout  = 90 * time.Second
)

// Server crowdguard HTTP 服务
// Start 先绑定端口再关闭 Ready，监听 ":0" 时可通过 Addr 取得实际端口
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
}

// NewServer 创建 HTTP 服务
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}
	return &Server{httpServer: s, logger: logger, ready: make(chan struct{})}
}

// Start 阻塞直到服务停止；正常关闭时返回 http.ErrServerClosed
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("Crowdguard API listening",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("write_timeout", writeTimeout),
	)
	return s.httpServer.Serve(ln)
}

// Ready 端口绑定后关闭
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr 实际监听地址，Start 之前返回配置值
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return s.httpServer.Addr
	}
	return s.addr.String()
}

// Stop 停止接收新请求，等待进行中的请求（含导出）完成
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping crowdguard API", zap.String("addr", s.Addr()))
	return s.httpServer.Shutdown(ctx)
}
