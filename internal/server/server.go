package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mercari/internal/blobstore"
	"mercari/internal/config"
	"mercari/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ImageOptions controls upload limits and media type policy for item images.
type ImageOptions struct {
	MaxUploadBytes     int64
	MultipartMaxMemory int64
	AllowedMediaTypes  []string
}

// Server serves the mercari HTTP API. All catalog and image access goes
// through service.
type Server struct {
	addr         string
	service      *ItemService
	logger       *slog.Logger
	frontURL     string
	imagesDir    string
	imageOptions ImageOptions
}

// New creates a server for the given catalog and image store.
func New(addr string, catalog store.CatalogStore, images blobstore.ImageStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		service:  NewItemService(catalog, images),
		logger:   logger,
		frontURL: config.DefaultFrontURL,
		imageOptions: ImageOptions{
			MaxUploadBytes:     config.DefaultImageMaxSize,
			MultipartMaxMemory: config.DefaultImageMultipartMemory,
		},
	}
}

// ConfigureImageOptions applies upload limits and the allowed media types.
// Non-positive sizes keep the current value.
func (s *Server) ConfigureImageOptions(opts ImageOptions) {
	if opts.MaxUploadBytes > 0 {
		s.imageOptions.MaxUploadBytes = opts.MaxUploadBytes
	}
	if opts.MultipartMaxMemory > 0 {
		s.imageOptions.MultipartMaxMemory = opts.MultipartMaxMemory
	}
	s.imageOptions.AllowedMediaTypes = config.NormalizeMediaTypes(opts.AllowedMediaTypes)
	s.service.ConfigurePolicy(s.imageOptions.AllowedMediaTypes)
}

// ConfigureCORS sets the single browser origin allowed to call the API.
func (s *Server) ConfigureCORS(frontURL string) {
	if frontURL = strings.TrimSpace(frontURL); frontURL == "" {
		frontURL = config.DefaultFrontURL
	}
	s.frontURL = frontURL
}

// SetImagesDir records the image directory reported by /v1/info.
func (s *Server) SetImagesDir(dir string) {
	s.imagesDir = dir
}

// Handler returns the routed handler wrapped in request ID, logging and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Run listens on the server address and serves until ctx is cancelled. In
// flight requests get shutdownTimeout to finish.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log().Handler(), slog.LevelWarn),
	}

	s.log().Info("listening", "addr", ln.Addr().String(), "front_url", s.frontURL)
	served := make(chan error, 1)
	go func() { served <- httpServer.Serve(ln) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down", "addr", ln.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr turns the configured API URL into a listen address. Hosts other
// than loopback are refused unless MERCARI_ALLOW_REMOTE=true.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}

	addr, host := apiURL, ""
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		addr, host = u.Host, u.Hostname()
	} else if h, _, err := net.SplitHostPort(apiURL); err == nil {
		host = h
	}
	if !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, config.AllowRemoteEnvKey)
	}
	return addr, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" || host == "localhost" || config.AllowRemote() {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
