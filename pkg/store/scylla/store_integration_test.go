package scylla

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tablesink/pkg/settings"
	"tablesink/pkg/store"
)

const (
	scyllaImage    = "scylladb/scylla:5.2"
	scyllaPort     = "9042/tcp"
	keyspace       = "tablesink_test"
	createKeyspace = "CREATE KEYSPACE IF NOT EXISTS tablesink_test WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	if !isDockerRunning(ctx) {
		t.Skip("Docker is not running, skipping integration test")
	}

	host, port, terminate, err := setupScyllaBox(ctx)
	if err != nil {
		t.Fatalf("failed to setup scylla container: %v", err)
	}
	defer terminate()

	// Bootstrap the keyspace before the store connects to it.
	cluster := gocql.NewCluster(host)
	cluster.Port = port
	cluster.Timeout = 10 * time.Second
	cluster.Consistency = gocql.One

	session, err := cluster.CreateSession()
	if err != nil {
		t.Fatalf("failed to connect to scylla for setup: %v", err)
	}
	if err := session.Query(createKeyspace).Exec(); err != nil {
		session.Close()
		t.Fatalf("failed to create keyspace: %v", err)
	}
	session.Close()

	cfg := &settings.Scylla{
		Hosts:    []string{host},
		Port:     port,
		Keyspace: keyspace,
		Timeout:  10,
		Retries:  3,
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	// Single-node container, quorum would never be met.
	client.session.SetConsistency(gocql.One)

	table := client.Table("app-logs")

	t.Run("Ping", func(t *testing.T) {
		if err := client.Ping(ctx); err != nil {
			t.Fatalf("failed to ping: %v", err)
		}
	})

	t.Run("CreateIfMissing", func(t *testing.T) {
		if err := table.CreateIfMissing(ctx); err != nil {
			t.Fatalf("failed to provision table: %v", err)
		}
		// Second call must be a no-op, not an error.
		if err := table.CreateIfMissing(ctx); err != nil {
			t.Fatalf("provisioning is not idempotent: %v", err)
		}
	})

	t.Run("InsertOne", func(t *testing.T) {
		entry := testEntry("one-1", "hello")
		if err := table.InsertOne(ctx, entry); err != nil {
			t.Fatalf("failed to insert entry: %v", err)
		}
		if got := countRows(t, client, "app-logs"); got < 1 {
			t.Errorf("expected at least 1 row, got %d", got)
		}
	})

	t.Run("InsertBatch", func(t *testing.T) {
		entries := make([]*store.Entry, 25)
		for i := range entries {
			entries[i] = testEntry(fmt.Sprintf("batch-%d", i), fmt.Sprintf("m%d", i))
		}
		if err := table.InsertBatch(ctx, entries); err != nil {
			t.Fatalf("failed to insert batch: %v", err)
		}
		if got := countRows(t, client, "app-logs"); got < 26 {
			t.Errorf("expected at least 26 rows, got %d", got)
		}
	})
}

func testEntry(id, message string) *store.Entry {
	return &store.Entry{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Level:     "info",
		Source:    "test",
		Message:   message,
		Fields:    map[string]string{"tenant": "acme"},
	}
}

func countRows(t *testing.T, client *Client, tableName string) int {
	t.Helper()
	var count int
	stmt := fmt.Sprintf(`SELECT count(*) FROM %s."%s"`, keyspace, tableName)
	if err := client.session.Query(stmt).Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func setupScyllaBox(ctx context.Context) (string, int, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        scyllaImage,
		ExposedPorts: []string{scyllaPort},
		Cmd:          []string{"--smp", "1", "--memory", "750M", "--overprovisioned", "1", "--api-address", "0.0.0.0"},
		WaitingFor:   wait.ForLog("Scylla version").WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return "", 0, nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, scyllaPort)
	if err != nil {
		container.Terminate(ctx)
		return "", 0, nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	terminate := func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("failed to terminate container: %v\n", err)
		}
	}

	return host, mappedPort.Int(), terminate, nil
}

func isDockerRunning(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}
