// Package notifier tells proxies which Redis node they forward to.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-redis/redis"
	"github.com/redisctl/im-redis/pkg/task"
)

const setRemotesCommand = "SETREMOTES"

type executor interface {
	Submit(ctx context.Context, name string, delay time.Duration, fn task.Func) error
}

// sendFunc sends a single command to the Redis protocol server at addr.
type sendFunc func(ctx context.Context, addr string, args ...any) error

// New creates a notifier submitting notifications to the executor. Notifications are sent once
// delay has passed.
func New(logger *slog.Logger, executor executor, delay time.Duration) *Notifier {
	return &Notifier{
		logger:   logger,
		executor: executor,
		delay:    delay,
		send:     send,
	}
}

type Notifier struct {
	logger   *slog.Logger
	executor executor
	delay    time.Duration
	send     sendFunc
}

// SetRemotes schedules SETREMOTES <remoteHost> <remotePort> to be sent to the proxy. The call
// returns before the command is sent. Failures are logged and never retried.
func (n *Notifier) SetRemotes(ctx context.Context, proxyHost string, proxyPort int, remoteHost string, remotePort int) {
	proxy := net.JoinHostPort(proxyHost, strconv.Itoa(proxyPort))
	remote := net.JoinHostPort(remoteHost, strconv.Itoa(remotePort))

	err := n.executor.Submit(ctx, "set-remotes "+proxy, n.delay, func(ctx context.Context) error {
		if err := n.send(ctx, proxy, setRemotesCommand, remoteHost, remotePort); err != nil {
			return fmt.Errorf("failed to set remote %s of proxy %s: %v", remote, proxy, err)
		}
		n.logger.InfoContext(ctx, "Proxy remotes set", "proxy", proxy, "remote", remote)
		return nil
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to schedule proxy notification", "proxy", proxy, "remote", remote, "error", err)
	}
}

// send opens a connection used for this command only.
func send(ctx context.Context, addr string, args ...any) error {
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     1,
		MaxRetries:   0,
	})
	defer client.Close()

	return client.WithContext(ctx).Do(args...).Err()
}
