package rpc

import (
	"context"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// DefaultWorkers is the number of requests a service handles concurrently.
const DefaultWorkers = 10

// WorkerPool bounds the number of unary handlers running at once. Requests
// beyond the bound wait for a free worker until their context ends.
type WorkerPool struct {
	size int64
	sem  *semaphore.Weighted
}

// NewWorkerPool creates a pool with n workers; n <= 0 selects DefaultWorkers.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = DefaultWorkers
	}
	return &WorkerPool{size: int64(n), sem: semaphore.NewWeighted(int64(n))}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return int(p.size)
}

// ServerOptions returns the server options that size gRPC's stream workers
// to the pool.
func (p *WorkerPool) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.NumStreamWorkers(uint32(p.size))}
}

// UnaryInterceptor admits a request once a worker is free.
func (p *WorkerPool) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		defer p.sem.Release(1)

		return handler(ctx, req)
	}
}
