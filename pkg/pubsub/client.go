package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub payments topic is required")
	errNotConnected      = errors.New("pubsub client not initialized")
)

// Client publishes to Pub/Sub topics of one project. Publishers are created
// lazily per topic and flushed on Close.
type Client struct {
	client      *pubsub.Client
	projectID   string
	healthTopic string
	mu          sync.Mutex
	publishers  map[string]*pubsub.Publisher
}

// NewClient connects and fails when the payments topic does not exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	switch {
	case projectID == "":
		return nil, errProjectIDRequired
	case strings.TrimSpace(cfg.PaymentsTopic) == "":
		return nil, errTopicRequired
	}

	ps, err := pubsub.NewClient(ctx, projectID, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	c := &Client{
		client:      ps,
		projectID:   projectID,
		healthTopic: TopicResourceName(projectID, cfg.PaymentsTopic),
		publishers:  map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", c.healthTopic), "pubsub.ready")
	}
	return c, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case gcp.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case gcp.ApplicationCredentials != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Publish sends one message and blocks until the server assigns its id.
func (c *Client) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	pub, err := c.publisher(topic)
	if err != nil {
		return "", err
	}
	return pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

func (c *Client) publisher(topic string) (*pubsub.Publisher, error) {
	if c == nil || c.client == nil {
		return nil, errNotConnected
	}
	name := TopicResourceName(c.projectID, topic)
	if name == "" {
		return nil, fmt.Errorf("topic %q is not a valid topic", topic)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pub, ok := c.publishers[name]
	if !ok {
		pub = c.client.Publisher(name)
		c.publishers[name] = pub
	}
	return pub, nil
}

// Ping looks up the payments topic.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotConnected
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.healthTopic})
	switch {
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %s does not exist", c.healthTopic)
	case err != nil:
		return fmt.Errorf("get topic %s: %w", c.healthTopic, err)
	}
	return nil
}

// Close flushes pending messages, then closes the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// TopicResourceName expands a bare topic id to projects/<p>/topics/<id>.
// Full resource names pass through.
func TopicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if name == "" || projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}
