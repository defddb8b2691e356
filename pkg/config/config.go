package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BasePath       string
	Port           int
	Logging        Logging
	Postgresql     Postgresql
	Redis          Redis
	RabbitMqURL    RabbitMQ
	Authentication Authentication
	Orchestrator   Orchestrator
	Notifier       Notifier
	Poller         Poller
	Tracing        Tracing
	ImagesFile     string
}

func New() (Config, error) {
	basePath, err := requireEnv("BASE_PATH")
	if err != nil {
		return Config{}, err
	}

	port, err := optionalEnvAsInt("PORT", 8080)
	if err != nil {
		return Config{}, err
	}

	logging, err := newLogging()
	if err != nil {
		return Config{}, err
	}

	pg, err := newPostgresql()
	if err != nil {
		return Config{}, err
	}

	redis, err := newRedis()
	if err != nil {
		return Config{}, err
	}

	rb, err := newRabbitMQ()
	if err != nil {
		return Config{}, err
	}

	auth, err := newAuthentication()
	if err != nil {
		return Config{}, err
	}

	orchestrator, err := newOrchestrator()
	if err != nil {
		return Config{}, err
	}

	notifier, err := newNotifier()
	if err != nil {
		return Config{}, err
	}

	poller, err := newPoller()
	if err != nil {
		return Config{}, err
	}

	return Config{
		BasePath:       basePath,
		Port:           port,
		Logging:        logging,
		Postgresql:     pg,
		Redis:          redis,
		RabbitMqURL:    rb,
		Authentication: auth,
		Orchestrator:   orchestrator,
		Notifier:       notifier,
		Poller:         poller,
		Tracing:        Tracing{JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT")},
		ImagesFile:     os.Getenv("IMAGES_FILE"),
	}, nil
}

type Logging struct {
	Level  string
	Pretty bool
}

func newLogging() (Logging, error) {
	pretty, err := optionalEnvAsBool("LOG_PRETTY", false)
	if err != nil {
		return Logging{}, err
	}

	return Logging{
		Level:  optionalEnv("LOG_LEVEL", "INFO"),
		Pretty: pretty,
	}, nil
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

func newPostgresql() (Postgresql, error) {
	host, err := requireEnv("DATABASE_HOST")
	if err != nil {
		return Postgresql{}, err
	}
	port, err := requireEnvAsInt("DATABASE_PORT")
	if err != nil {
		return Postgresql{}, err
	}
	username, err := requireEnv("DATABASE_USERNAME")
	if err != nil {
		return Postgresql{}, err
	}
	pw, err := requireEnv("DATABASE_PASSWORD")
	if err != nil {
		return Postgresql{}, err
	}
	name, err := requireEnv("DATABASE_NAME")
	if err != nil {
		return Postgresql{}, err
	}

	return Postgresql{
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     pw,
		DatabaseName: name,
	}, nil
}

type Redis struct {
	Host string
	Port int
}

func newRedis() (Redis, error) {
	host, err := requireEnv("REDIS_HOST")
	if err != nil {
		return Redis{}, err
	}
	port, err := requireEnvAsInt("REDIS_PORT")
	if err != nil {
		return Redis{}, err
	}

	return Redis{
		Host: host,
		Port: port,
	}, nil
}

// RabbitMQ is optional. Audit records are only published if a host is configured.
type RabbitMQ struct {
	Host     string
	Port     int
	Username string
	Password string
	Exchange string
}

func newRabbitMQ() (RabbitMQ, error) {
	host := os.Getenv("RABBITMQ_HOST")
	if host == "" {
		return RabbitMQ{}, nil
	}
	port, err := requireEnvAsInt("RABBITMQ_PORT")
	if err != nil {
		return RabbitMQ{}, err
	}
	username, err := requireEnv("RABBITMQ_USERNAME")
	if err != nil {
		return RabbitMQ{}, err
	}
	pw, err := requireEnv("RABBITMQ_PASSWORD")
	if err != nil {
		return RabbitMQ{}, err
	}

	return RabbitMQ{
		Host:     host,
		Port:     port,
		Username: username,
		Password: pw,
		Exchange: optionalEnv("RABBITMQ_AUDIT_EXCHANGE", "redis-ctl.audit"),
	}, nil
}

func (r RabbitMQ) Enabled() bool {
	return r.Host != ""
}

func (r RabbitMQ) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type Authentication struct {
	// PublicKey is the PEM encoded RSA key access tokens are verified with.
	PublicKey string
}

func newAuthentication() (Authentication, error) {
	publicKey, err := requireEnv("AUTHENTICATION_PUBLIC_KEY")
	if err != nil {
		return Authentication{}, err
	}
	// allow passing the PEM in a single line environment variable
	publicKey = strings.ReplaceAll(publicKey, `\n`, "\n")

	return Authentication{PublicKey: publicKey}, nil
}

const (
	KubernetesBackend = "kubernetes"
	DockerBackend     = "docker"
)

type Orchestrator struct {
	Backend string
	// Namespace units are deployed to when using the Kubernetes backend.
	Namespace string
	// Kubeconfig path. In cluster configuration is used if empty.
	Kubeconfig string
	// PodLabel is the Kubernetes node label grouping hosts into pods.
	PodLabel   string
	RedisImage string
	ProxyImage string
	// DeployTimeout bounds the wait for a deployed unit to report its address.
	DeployTimeout time.Duration
	// DockerPod is the name of the single pod the Docker backend exposes.
	DockerPod string
	// DockerAddress is the address units are reachable at when using the Docker backend.
	DockerAddress string
}

func newOrchestrator() (Orchestrator, error) {
	backend := optionalEnv("ORCHESTRATOR", KubernetesBackend)
	if backend != KubernetesBackend && backend != DockerBackend {
		return Orchestrator{}, fmt.Errorf("unsupported orchestrator %q", backend)
	}

	timeout, err := optionalEnvAsDuration("ORCHESTRATOR_DEPLOY_TIMEOUT", 2*time.Minute)
	if err != nil {
		return Orchestrator{}, err
	}

	return Orchestrator{
		Backend:       backend,
		Namespace:     optionalEnv("ORCHESTRATOR_NAMESPACE", "redis"),
		Kubeconfig:    os.Getenv("KUBECONFIG"),
		PodLabel:      optionalEnv("ORCHESTRATOR_POD_LABEL", "redis-ctl/pod"),
		RedisImage:    optionalEnv("ORCHESTRATOR_REDIS_IMAGE", "redis:7.2"),
		ProxyImage:    optionalEnv("ORCHESTRATOR_PROXY_IMAGE", "hunantv/cerberus:latest"),
		DeployTimeout: timeout,
		DockerPod:     optionalEnv("ORCHESTRATOR_DOCKER_POD", "local"),
		DockerAddress: optionalEnv("ORCHESTRATOR_DOCKER_ADDRESS", "127.0.0.1"),
	}, nil
}

type Notifier struct {
	// Delay before a proxy is told about its remotes. Gives a freshly deployed proxy time to boot.
	Delay       time.Duration
	Timeout     time.Duration
	Concurrency int64
}

func newNotifier() (Notifier, error) {
	delay, err := optionalEnvAsDuration("NOTIFIER_DELAY", time.Second)
	if err != nil {
		return Notifier{}, err
	}
	timeout, err := optionalEnvAsDuration("NOTIFIER_TIMEOUT", 5*time.Second)
	if err != nil {
		return Notifier{}, err
	}
	concurrency, err := optionalEnvAsInt("NOTIFIER_CONCURRENCY", 8)
	if err != nil {
		return Notifier{}, err
	}

	if delay < 0 {
		return Notifier{}, fmt.Errorf("NOTIFIER_DELAY can't be negative: %s", delay)
	}
	if timeout <= 0 {
		return Notifier{}, fmt.Errorf("NOTIFIER_TIMEOUT must be positive: %s", timeout)
	}
	if concurrency <= 0 {
		return Notifier{}, fmt.Errorf("NOTIFIER_CONCURRENCY must be positive: %d", concurrency)
	}

	return Notifier{
		Delay:       delay,
		Timeout:     timeout,
		Concurrency: int64(concurrency),
	}, nil
}

type Poller struct {
	Interval time.Duration
}

func newPoller() (Poller, error) {
	interval, err := optionalEnvAsDuration("POLLER_INTERVAL", 30*time.Second)
	if err != nil {
		return Poller{}, err
	}
	if interval <= 0 {
		return Poller{}, fmt.Errorf("POLLER_INTERVAL must be positive: %s", interval)
	}
	return Poller{Interval: interval}, nil
}

// Tracing is disabled if no endpoint is configured.
type Tracing struct {
	JaegerEndpoint string
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("can't find environment variable: %s", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("can't parse value of %s as integer: %v", key, err)
	}
	return value, nil
}

func optionalEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	return value
}

func optionalEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("can't parse value of %s as integer: %v", key, err)
	}
	return i, nil
}

func optionalEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("can't parse value of %s as bool: %v", key, err)
	}
	return b, nil
}

func optionalEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("can't parse value of %s as duration: %v", key, err)
	}
	return d, nil
}
