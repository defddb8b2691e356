package orchestrator

import (
	"strings"
	"testing"

	"github.com/redisctl/im-redis/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestUnitName(t *testing.T) {
	t.Run("Node", func(t *testing.T) {
		name := unitName(model.NodeKind, "Pod A", 6379)

		assert.Regexp(t, `^redis-pod-a-6379-[0-9a-f]{8}$`, name)
	})

	t.Run("Proxy", func(t *testing.T) {
		name := unitName(model.ProxyKind, "pod-a", 8889)

		assert.Regexp(t, `^proxy-pod-a-8889-[0-9a-f]{8}$`, name)
	})

	t.Run("Unique", func(t *testing.T) {
		assert.NotEqual(t, unitName(model.NodeKind, "pod-a", 6379), unitName(model.NodeKind, "pod-a", 6379))
	})

	t.Run("LongPodName", func(t *testing.T) {
		name := unitName(model.NodeKind, strings.Repeat("very-long-pod-name-", 10), 6379)

		assert.LessOrEqual(t, len(name), 63)
		assert.Regexp(t, `^redis-very-long-pod-name-.*[^-]-6379-[0-9a-f]{8}$`, name)
	})
}

func TestNodeCommand(t *testing.T) {
	command := nodeCommand(NodeRequest{Port: 6380, AOF: true, Cluster: true, MicroPlan: true})

	assert.Equal(t, []string{"redis-server", "--port", "6380", "--appendonly", "yes", "--cluster-enabled", "yes", "--maxmemory", "48mb"}, command)
}

func TestProxyCommand(t *testing.T) {
	t.Run("Threads", func(t *testing.T) {
		command := proxyCommand(ProxyRequest{Port: 8889, Threads: 4})

		assert.Equal(t, []string{"--bind", "8889", "--threads", "4"}, command)
	})

	t.Run("MicroPlanUsesASingleThread", func(t *testing.T) {
		slice := 2
		command := proxyCommand(ProxyRequest{Port: 8889, Threads: 4, ReadSlave: true, MicroPlanCPUSlice: &slice})

		assert.Equal(t, []string{"--bind", "8889", "--threads", "1", "--read-slave"}, command)
	})
}
