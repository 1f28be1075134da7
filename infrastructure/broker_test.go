package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"agencyops/events"
	"agencyops/models"

	"github.com/nats-io/nats.go"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer runs a broker image for the duration of the test. Skipped under -short.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}

	req.Labels = map[string]string{
		"test":      "agencyops-infrastructure",
		"test-name": t.Name(),
		"cleanup":   "auto",
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})
	return container
}

func TestNATSClient_ForwardsToJetStream(t *testing.T) {
	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "nats:2.10-alpine",
		Cmd:          []string{"-js"},
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)

	client := NewNATSClient(url, "agencyops-test")
	require.NoError(t, client.Connect(ctx))
	defer client.Close()
	assert.True(t, client.IsConnected())

	mapper := NewEventSubjectMapper("agencyops")
	require.NoError(t, client.EnsureStream("AGENCYOPS", mapper.GetAllSubjects()))
	// A second call finds the existing stream
	require.NoError(t, client.EnsureStream("AGENCYOPS", mapper.GetAllSubjects()))

	forwarder := NewEventForwarder("nats", client, mapper)
	event := events.PayrollRunPaidEvent{RunID: 4, Period: models.FiscalPeriod{Year: 2024, Month: 3}, TotalNet: 5000}
	require.NoError(t, forwarder.Forward(ctx, event))

	msg, err := client.js.GetLastMsg("AGENCYOPS", "agencyops.payroll_run_paid")
	require.NoError(t, err)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &envelope))
	assert.Equal(t, "payroll_run_paid", envelope.EventType)
}

func TestNATSClient_PublishWithoutConnection(t *testing.T) {
	client := NewNATSClient(nats.DefaultURL, "agencyops-test")
	err := client.Publish(context.Background(), "agencyops.x", []byte("{}"))
	assert.ErrorContains(t, err, "not connected")
	assert.False(t, client.IsConnected())
	assert.NoError(t, client.Close())
}

func TestAMQPClient_PublishesToTopicExchange(t *testing.T) {
	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "test",
			"RABBITMQ_DEFAULT_PASS": "test",
		},
		WaitingFor: wait.ForLog("Server startup complete").WithStartupTimeout(2 * time.Minute),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("amqp://test:test@%s:%s/", host, port.Port())

	client, err := NewAMQPClient(url, "agencyops.events")
	require.NoError(t, err)
	defer client.Close()

	// Consumer side: a private queue bound to payroll approvals
	conn, err := amqp091.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(queue.Name, "payroll_run_approved", "agencyops.events", false, nil))
	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	forwarder := NewEventForwarder("amqp", client, NewEventSubjectMapper(""))
	require.NoError(t, forwarder.Forward(ctx, events.PayrollRunApprovedEvent{RunID: 2, Employees: 3}))
	// Not bound, must not arrive
	require.NoError(t, forwarder.Forward(ctx, events.CommissionsApprovedEvent{Count: 1}))

	select {
	case d := <-deliveries:
		assert.Equal(t, "payroll_run_approved", d.RoutingKey)
		assert.Equal(t, "application/json", d.ContentType)
		var envelope EventEnvelope
		require.NoError(t, json.Unmarshal(d.Body, &envelope))
		assert.Equal(t, "payroll_run_approved", envelope.EventType)
	case <-ctx.Done():
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case d := <-deliveries:
		t.Fatalf("unexpected delivery %s", d.RoutingKey)
	case <-time.After(500 * time.Millisecond):
	}
}
