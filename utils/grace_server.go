package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 15 * time.Second

	gracefulEnvKey     = "COMMUNITY_GRACEFUL"
	gracefulEnvValue   = gracefulEnvKey + "=1"
	gracefulListenerFD = 3
)

// Server wraps http.Server with signal driven shutdown, hot restart on SIGUSR2 and
// hooks that run once the last request finished.
type Server struct {
	*http.Server

	listener   net.Listener
	inherited  bool
	signals    chan os.Signal
	done       chan struct{}
	closeOnce  sync.Once
	hooksMu    sync.Mutex
	onShutdown []func(context.Context) error
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		inherited: os.Getenv(gracefulEnvKey) != "",
		signals:   make(chan os.Signal, 1),
		done:      make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server drained, in registration order.
func (srv *Server) OnShutdown(fn func(context.Context) error) {
	srv.hooksMu.Lock()
	srv.onShutdown = append(srv.onShutdown, fn)
	srv.hooksMu.Unlock()
}

// ListenAndServe serves until a shutdown signal arrives and the hooks ran.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}
	return srv.Serve(ln)
}

// Serve accepts on ln; it returns nil after a clean shutdown.
func (srv *Server) Serve(ln net.Listener) error {
	srv.listener = ln
	signal.Notify(srv.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	go srv.handleSignals()

	err := srv.Server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		signal.Stop(srv.signals)
		return err
	}
	<-srv.done
	return nil
}

// Shutdown drains the server and runs the shutdown hooks. Safe to call more than once.
func (srv *Server) Shutdown(ctx context.Context) error {
	var err error
	srv.closeOnce.Do(func() {
		signal.Stop(srv.signals)
		err = srv.Server.Shutdown(ctx)

		srv.hooksMu.Lock()
		hooks := append([]func(context.Context) error(nil), srv.onShutdown...)
		srv.hooksMu.Unlock()
		for _, hook := range hooks {
			if hookErr := hook(ctx); hookErr != nil {
				Logger.Warn("shutdown hook failed", zap.Error(hookErr))
				err = errors.Join(err, hookErr)
			}
		}
		close(srv.done)
	})
	return err
}

func (srv *Server) listen(addr string) (net.Listener, error) {
	if srv.inherited {
		ln, err := net.FileListener(os.NewFile(gracefulListenerFD, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	for sig := range srv.signals {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			Logger.Info("shutting down HTTP server", zap.String("signal", sig.String()))
			srv.shutdownWithTimeout()
			return
		case syscall.SIGUSR2:
			pid, err := srv.startNewProcess()
			if err != nil {
				Logger.Error("restart failed, continue serving", zap.Error(err))
				continue
			}
			Logger.Info("new process started, draining old server", zap.Int("pid", pid))
			srv.shutdownWithTimeout()
			return
		}
	}
}

func (srv *Server) shutdownWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("HTTP server shutdown error", zap.Error(err))
		return
	}
	Logger.Info("HTTP server shutdown complete")
}

// startNewProcess re-executes the binary with the listening socket as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is %T, not *net.TCPListener", srv.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	defer file.Close()

	envs := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}
