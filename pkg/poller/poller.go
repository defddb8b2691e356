// Package poller collects INFO of every registered node. The parsed details are cached in a Redis
// hash so listings don't have to reach out to every node.
package poller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/redisctl/im-redis/pkg/model"
	"golang.org/x/sync/errgroup"
)

const (
	// detailsKey is the Redis hash holding the details of every node keyed by host:port.
	detailsKey = "node-details"
	// StatKey is true if the node answered the last poll.
	StatKey = "stat"
	// UpdatedAtKey is the unix time of the last poll.
	UpdatedAtKey = "updated_at"

	concurrency = 8
)

type nodeLister interface {
	FindAllNodes(ctx context.Context) ([]model.Node, error)
}

// infoFunc returns the raw INFO reply of the node at addr.
type infoFunc func(ctx context.Context, addr string, timeout time.Duration) (string, error)

func New(logger *slog.Logger, store *redis.Client, nodes nodeLister, interval time.Duration) *Poller {
	return &Poller{
		logger:   logger,
		store:    store,
		nodes:    nodes,
		interval: interval,
		info:     info,
	}
}

type Poller struct {
	logger   *slog.Logger
	store    *redis.Client
	nodes    nodeLister
	interval time.Duration
	info     infoFunc
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil {
			p.logger.ErrorContext(ctx, "Failed to poll nodes", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll runs INFO on every registered node and stores the details. Unreachable nodes are stored
// with stat false.
func (p *Poller) Poll(ctx context.Context) error {
	nodes, err := p.nodes.FindAllNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to find nodes: %v", err)
	}

	details := make([]map[string]any, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, node := range nodes {
		g.Go(func() error {
			details[i] = p.poll(gctx, node.Address())
			return nil
		})
	}
	_ = g.Wait()

	if len(nodes) == 0 {
		return nil
	}

	fields := make(map[string]any, len(nodes))
	for i, node := range nodes {
		value, err := json.Marshal(details[i])
		if err != nil {
			return fmt.Errorf("failed to marshal details of %s: %v", node.Address(), err)
		}
		fields[node.Address()] = string(value)
	}

	err = p.store.WithContext(ctx).HMSet(detailsKey, fields).Err()
	if err != nil {
		return fmt.Errorf("failed to store node details: %v", err)
	}
	return nil
}

func (p *Poller) poll(ctx context.Context, addr string) map[string]any {
	raw, err := p.info(ctx, addr, p.interval/2)
	if err != nil {
		p.logger.WarnContext(ctx, "Node unreachable", "node", addr, "error", err)
		return map[string]any{
			StatKey:      false,
			UpdatedAtKey: time.Now().Unix(),
		}
	}

	details := parseInfo(raw)
	details[StatKey] = true
	details[UpdatedAtKey] = time.Now().Unix()
	return details
}

// Details returns the stored details of the nodes at the given addresses. Nodes which were never
// polled have no entry.
func (p *Poller) Details(ctx context.Context, addrs []string) (map[string]map[string]any, error) {
	result := make(map[string]map[string]any, len(addrs))
	if len(addrs) == 0 {
		return result, nil
	}

	values, err := p.store.WithContext(ctx).HMGet(detailsKey, addrs...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get node details: %v", err)
	}

	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		var details map[string]any
		if err := json.Unmarshal([]byte(s), &details); err != nil {
			p.logger.WarnContext(ctx, "Ignoring corrupt node details", "node", addrs[i], "error", err)
			continue
		}
		result[addrs[i]] = details
	}
	return result, nil
}

// Forget removes the stored details of a node.
func (p *Poller) Forget(ctx context.Context, addr string) error {
	return p.store.WithContext(ctx).HDel(detailsKey, addr).Err()
}

func info(ctx context.Context, addr string, timeout time.Duration) (string, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     1,
	})
	defer client.Close()

	return client.WithContext(ctx).Info().Result()
}

// parseInfo parses the INFO reply. Section headers and blank lines are skipped. Values keep their
// textual form except keyspace entries which become maps.
func parseInfo(raw string) map[string]any {
	details := map[string]any{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		if strings.HasPrefix(key, "db") && strings.Contains(value, "=") {
			details[key] = parseKeyspace(value)
			continue
		}
		details[key] = value
	}
	return details
}

// parseKeyspace parses keys=1,expires=0,avg_ttl=0.
func parseKeyspace(value string) map[string]string {
	keyspace := map[string]string{}
	for _, pair := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if ok {
			keyspace[k] = v
		}
	}
	return keyspace
}
