package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/transport"
	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newGRPCServer(reader transport.TrackerReader, logger *zap.Logger) *grpc.Server {
	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	grpcPrometheus.EnableHandlingTimeHistogram()
	grpcPrometheus.Register(srv)

	blockinsight7000v1.RegisterExplorerServiceServer(srv, transport.NewExplorerHandler(reader))
	return srv
}

// serveGRPC serves srv on socket until ctx is done.
func serveGRPC(ctx context.Context, srv *grpc.Server, socket net.Listener, logger *zap.Logger) {
	go func() {
		logger.Info("starting grpc server", zap.Stringer("addr", socket.Addr()))
		if err := srv.Serve(socket); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("grpc server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down grpc server")
		srv.GracefulStop()
	}()
}

// newHTTPHandler mounts the tracker routes, metrics and the gateway for the
// gRPC server at grpcAddr on one mux.
func newHTTPHandler(ctx context.Context, grpcAddr string, handler *transport.TrackerHandler) (http.Handler, error) {
	mux := http.NewServeMux()

	gw := gwruntime.NewServeMux()
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if err := blockinsight7000v1.RegisterExplorerServiceHandlerFromEndpoint(ctx, gw, grpcAddr, opts); err != nil {
		return nil, fmt.Errorf("register explorer gateway: %w", err)
	}

	mux.Handle("/", gw)
	mux.Handle("/metrics", promhttp.Handler())
	handler.Register(mux)
	return cors.Default().Handler(mux), nil
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()
}
