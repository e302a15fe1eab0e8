package universe

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

// startMongo spins up a throwaway MongoDB container for the duration of the
// test and returns a connected repository.
func startMongo(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	repo := NewRepository(client.Database("eternaverse_test"), zerolog.Nop())
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	owner := uuid.New()
	u := New(owner, "round-trip", "rt-seed", DifficultyIntermediate, nil)
	u.CurrentState.Age = 2e9
	u.CurrentState.ScaleFactor = 1.5
	u.Anomalies = append(u.Anomalies, &Anomaly{
		ID:       uuid.New(),
		Type:     "cosmicVoid",
		Severity: 2,
	})

	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Seed, got.Seed)
	assert.Equal(t, 2e9, got.CurrentState.Age)
	assert.Equal(t, 1.5, got.CurrentState.ScaleFactor)
	require.Len(t, got.Anomalies, 1)
	assert.Equal(t, "cosmicVoid", got.Anomalies[0].Type)
}

func TestRepositoryGetUnknown(t *testing.T) {
	repo := startMongo(t)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRepositorySaveVersioning(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	owner := uuid.New()
	u := New(owner, "versioned", "v-seed", DifficultyBeginner, nil)
	require.NoError(t, repo.Create(ctx, u))

	u.CurrentState.Age = 1e9
	require.NoError(t, repo.Save(ctx, u))
	assert.Equal(t, int64(2), u.Version)

	// A save from a stale snapshot is a write conflict.
	stale, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	err = repo.Save(ctx, stale)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.Equal(t, int64(2), stale.Version)
}

func TestRepositoryListByOwner(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	owner := uuid.New()
	for i := 0; i < 3; i++ {
		u := New(owner, fmt.Sprintf("u-%d", i), uuid.NewString(), DifficultyBeginner, nil)
		require.NoError(t, repo.Create(ctx, u))
	}
	other := New(uuid.New(), "other", uuid.NewString(), DifficultyBeginner, nil)
	require.NoError(t, repo.Create(ctx, other))

	mine, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestRepositoryDelete(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	owner := uuid.New()
	u := New(owner, "deleted", "d-seed", DifficultyBeginner, nil)
	require.NoError(t, repo.Create(ctx, u))

	// Deleting as a non-owner reads as not found and leaves the document.
	err := repo.Delete(ctx, u.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, repo.Delete(ctx, u.ID, owner))
	_, err = repo.Get(ctx, u.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRepositoryListAnomalyHeavy(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	heavy := New(uuid.New(), "heavy", "h-seed", DifficultyBeginner, nil)
	for i := 0; i < MaxAnomalies; i++ {
		heavy.Anomalies = append(heavy.Anomalies, &Anomaly{ID: uuid.New()})
	}
	light := New(uuid.New(), "light", "l-seed", DifficultyBeginner, nil)
	light.Anomalies = append(light.Anomalies, &Anomaly{ID: uuid.New()})

	require.NoError(t, repo.Create(ctx, heavy))
	require.NoError(t, repo.Create(ctx, light))

	ids, err := repo.ListAnomalyHeavy(ctx, MaxAnomalies)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, heavy.ID, ids[0])
}
